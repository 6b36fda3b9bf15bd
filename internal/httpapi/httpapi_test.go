package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/aggregate"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/completion"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/jobs"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/provider"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/research"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticProvider struct {
	sources []source.Source
}

func (p *staticProvider) Name() string      { return "articles" }
func (p *staticProvider) Kind() source.Kind { return source.NewsArticle }
func (p *staticProvider) Priority() int     { return provider.PriorityNewsIndex }
func (p *staticProvider) Search(ctx context.Context, q query.Query) ([]source.Source, error) {
	return p.sources, nil
}

type staticCompleter struct {
	text string
}

func (c *staticCompleter) Complete(ctx context.Context, prompt string, sources []source.Source) (completion.Answer, error) {
	return completion.Answer{Text: c.text, Sources: sources}, nil
}

func testServer(t *testing.T) (*gin.Engine, *jobs.Queue) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	news := &staticProvider{sources: []source.Source{{
		Kind:  source.NewsArticle,
		Title: "Healthcare voting record coverage",
		URL:   "https://news.example/1",
	}}}

	orch := research.New(research.Config{FallbackFloor: 1},
		aggregate.New(aggregate.Config{}, log), news, log,
		research.WithCompleter(&staticCompleter{text: "Voted yes [1]."}))

	queue := jobs.NewQueue(15*time.Minute, log)
	runner := research.NewRunner(context.Background(), queue, orch, log)
	return NewRouter(NewHandler(runner, queue)), queue
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := testServer(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	router, _ := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/research/submit", `{"message": "   "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/research/submit", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestSubmitAcceptsQuery(t *testing.T) {
	router, _ := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/research/submit",
		`{"message": "How has my representative voted on healthcare?"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	var resp struct {
		JobID     string `json:"jobId"`
		Status    string `json:"status"`
		StatusURL string `json:"statusUrl"`
		ResultURL string `json:"resultUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("missing jobId")
	}
	if resp.Status != string(jobs.StatusPending) {
		t.Errorf("status = %q, want pending", resp.Status)
	}
	if resp.StatusURL != "/api/research/status/"+resp.JobID {
		t.Errorf("statusUrl = %q", resp.StatusURL)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	router, _ := testServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/research/status/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestResultUnknownJob(t *testing.T) {
	router, _ := testServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/research/result/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestResultBeforeCompletion(t *testing.T) {
	router, queue := testServer(t)
	id := queue.Create()

	w := doJSON(t, router, http.MethodGet, "/api/research/result/"+id, "")
	if w.Code != http.StatusTooEarly {
		t.Errorf("status = %d, want 425", w.Code)
	}
}

func TestResultFailedJob(t *testing.T) {
	router, queue := testServer(t)
	id := queue.Create()
	queue.Fail(id, "upstream exploded")

	w := doJSON(t, router, http.MethodGet, "/api/research/result/"+id, "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	// The stored cause stays in logs; the client gets the fixed message.
	if !strings.Contains(w.Body.String(), research.FallbackMessage) {
		t.Errorf("body = %s, want the generic fallback message", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "exploded") {
		t.Errorf("internal failure detail leaked: %s", w.Body.String())
	}
}

func TestSubmitThroughResult(t *testing.T) {
	router, queue := testServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/research/submit",
		`{"message": "How has my representative voted on healthcare?"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d", w.Code)
	}
	var submitted struct {
		JobID string `json:"jobId"`
	}
	json.Unmarshal(w.Body.Bytes(), &submitted)

	// The job runs on a background goroutine; poll until terminal.
	deadline := time.Now().Add(5 * time.Second)
	for {
		view, err := queue.Status(submitted.JobID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if view.Status.Terminal() {
			if view.Status != jobs.StatusCompleted {
				t.Fatalf("job finished %s, want completed", view.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s after deadline", view.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	w = doJSON(t, router, http.MethodGet, "/api/research/result/"+submitted.JobID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("result status = %d, want 200", w.Code)
	}
	var result struct {
		Response string `json:"response"`
		Metadata struct {
			SourceCount int `json:"sourceCount"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !strings.HasPrefix(result.Response, "Voted yes [1].") {
		t.Errorf("response = %q", result.Response)
	}
	if !strings.Contains(result.Response, "[1] Healthcare voting record coverage - https://news.example/1") {
		t.Errorf("response missing the appended source list: %q", result.Response)
	}
	if result.Metadata.SourceCount != 1 {
		t.Errorf("sourceCount = %d, want 1", result.Metadata.SourceCount)
	}
}

func TestStats(t *testing.T) {
	router, queue := testServer(t)
	queue.Create()

	w := doJSON(t, router, http.MethodGet, "/api/research/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats jobs.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Total != 1 || stats.Pending != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
