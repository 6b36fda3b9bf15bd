// Package completion wraps the LLM backends that turn a prompt and source
// list into an answer. The upstream integrations historically returned three
// shapes (a bare string, {response, sources}, {analysis, sources}); the
// decoder here accepts all of them and always emits the structured Answer.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/config"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/source"
)

// Answer is the normalized completion result.
type Answer struct {
	Text    string
	Sources []source.Source
}

// Completer generates an answer from a prompt and the sources it may cite.
type Completer interface {
	Complete(ctx context.Context, prompt string, sources []source.Source) (Answer, error)
}

// New creates a Completer from the AI config.
func New(cfg *config.AIConfig, apiKey string, timeout time.Duration) (Completer, error) {
	if cfg == nil || apiKey == "" {
		return nil, fmt.Errorf("AI not configured")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &claudeProvider{apiKey: apiKey, model: model, client: client}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &openaiProvider{apiKey: apiKey, model: model, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: claude, openai)", cfg.Provider)
	}
}

// wireAnswer covers the structured historical response shapes. Older
// integrations used "analysis" where newer ones use "response".
type wireAnswer struct {
	Response string          `json:"response"`
	Analysis string          `json:"analysis"`
	Sources  []source.Source `json:"sources"`
}

// normalizeAnswer converts any of the historical completion shapes into an
// Answer. When the text is not a structured payload it is taken verbatim and
// the supplied sources carry through unchanged.
func normalizeAnswer(raw string, supplied []source.Source) Answer {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var w wireAnswer
		if err := json.Unmarshal([]byte(trimmed), &w); err == nil {
			text := w.Response
			if text == "" {
				text = w.Analysis
			}
			if text != "" {
				sources := w.Sources
				if len(sources) == 0 {
					sources = supplied
				}
				return Answer{Text: text, Sources: sources}
			}
		}
	}
	return Answer{Text: trimmed, Sources: supplied}
}

// --- Claude provider ---

type claudeProvider struct {
	apiKey string
	model  string
	client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) Complete(ctx context.Context, prompt string, sources []source.Source) (Answer, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 2048,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Answer{}, fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Answer{}, err
	}
	if len(cr.Content) == 0 {
		return Answer{}, fmt.Errorf("empty claude response")
	}
	return normalizeAnswer(cr.Content[0].Text, sources), nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) Complete(ctx context.Context, prompt string, sources []source.Source) (Answer, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Answer{}, fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return Answer{}, err
	}
	if len(or.Choices) == 0 {
		return Answer{}, fmt.Errorf("empty openai response")
	}
	return normalizeAnswer(or.Choices[0].Message.Content, sources), nil
}
