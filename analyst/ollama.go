package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
)

// Ollama generates text with a local Ollama server.
type Ollama struct {
	model       string
	temperature float64
	maxTokens   int
	http        *resty.Client
}

// NewOllama creates an Ollama generator for model served at host.
func NewOllama(host, model string, temperature float64, maxTokens int, timeout time.Duration) *Ollama {
	return &Ollama{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(host, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// Ping checks the server answers and that the model is installed.
func (o *Ollama) Ping(ctx context.Context) error {
	resp, err := o.http.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("cannot list models: %s", resp.Status())
	}
	names, err := query[[]any]("$.models[*].name", resp.Body())
	if err != nil {
		return err
	}
	for _, n := range names {
		name, _ := n.(string)
		if name == o.model || strings.TrimSuffix(name, ":latest") == o.model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not installed, run: ollama pull %s", o.model, o.model)
}

// Generate sends prompt to /api/generate without streaming.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model":  o.model,
			"prompt": prompt,
			"stream": false,
			"options": map[string]any{
				"temperature": o.temperature,
				"num_predict": o.maxTokens,
			},
		}).
		Post("/api/generate")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama generate: %s", resp.Status())
	}
	return query[string]("$.response", resp.Body())
}

// query evaluates a jsonpath expression on a JSON document.
func query[T any](path string, body []byte) (T, error) {
	var zero T
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return zero, fmt.Errorf("invalid JSON response: %w", err)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return zero, fmt.Errorf("error parsing %q: %w", path, err)
	}
	v, ok := jval.(T)
	if !ok {
		return zero, fmt.Errorf("error parsing %q: unexpected %T", path, jval)
	}
	return v, nil
}
