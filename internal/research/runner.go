package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/jobs"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
)

// Runner executes research jobs in the background, reporting progress and
// outcomes exclusively through the job queue's transition API.
type Runner struct {
	queue *jobs.Queue
	orch  *Orchestrator
	log   *slog.Logger

	// base is the lifetime of background work; job processing must survive
	// the submitting request's context.
	base context.Context
}

func NewRunner(ctx context.Context, queue *jobs.Queue, orch *Orchestrator, log *slog.Logger) *Runner {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{queue: queue, orch: orch, log: log, base: ctx}
}

// Submit creates a job and schedules its processing. It returns immediately
// with the job id.
func (r *Runner) Submit(q query.Query) string {
	id := r.queue.Create()
	go r.process(id, q)
	return id
}

func (r *Runner) process(id string, q query.Query) {
	started := time.Now()

	fail := func(cause string) {
		if err := r.queue.Fail(id, cause); err != nil {
			r.log.Error("recording job failure", "job", id, "error", err)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("job panicked", "job", id, "panic", rec)
			fail(FallbackMessage)
		}
	}()

	if err := r.queue.UpdateProgress(id, 20, "Analyzing query and searching sources"); err != nil {
		r.log.Warn("progress update rejected", "job", id, "error", err)
		return
	}

	res := r.orch.Research(r.base, q)

	r.queue.UpdateProgress(id, 50, "Generating response from sources")

	answer, err := r.orch.Complete(r.base, q, res)
	if err != nil {
		// The raw failure goes to logs; the caller sees only the fixed
		// fallback message.
		fail(FallbackMessage)
		return
	}

	r.queue.UpdateProgress(id, 80, "Formatting response")

	result := jobs.Result{
		Response: answer,
		Sources:  res.Sources,
		Metadata: jobs.Metadata{
			SourceCount:       len(res.Sources),
			AverageRelevance:  averageRelevance(res),
			ProviderBreakdown: res.ProviderBreakdown,
			ProcessingTime:    fmt.Sprintf("%.1fs", time.Since(started).Seconds()),
		},
	}

	if err := r.queue.Complete(id, result); err != nil {
		r.log.Error("completing job", "job", id, "error", err)
	}
}

func averageRelevance(res Result) float64 {
	if len(res.Sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range res.Sources {
		sum += s.RelevanceScore
	}
	return sum / float64(len(res.Sources))
}
