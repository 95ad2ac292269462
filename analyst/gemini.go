package analyst

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// Gemini generates text with the Google Gemini API.
type Gemini struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int32
	baseURL     string // empty for the public endpoint
	search      bool

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGemini creates a Gemini generator. The client is created on first use.
func NewGemini(apiKey, model string, temperature float32, maxTokens int32) *Gemini {
	return &Gemini{apiKey: apiKey, model: model, temperature: temperature, maxTokens: maxTokens}
}

// WithSearch lets the model ground its answers with Google Search.
func (g *Gemini) WithSearch() *Gemini {
	g.search = true
	return g
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

// Ping only checks that an API key is configured, it does not spend a request.
func (g *Gemini) Ping(ctx context.Context) error {
	if g.apiKey == "" {
		return errors.New("GOOGLE_API_KEY is not set")
	}
	return nil
}

func (g *Gemini) connect(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		cfg := &genai.ClientConfig{APIKey: g.apiKey, Backend: genai.BackendGeminiAPI}
		if g.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
		}
		g.client, g.err = genai.NewClient(ctx, cfg)
	})
	return g.client, g.err
}

// Generate sends prompt as a single user turn.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.Ping(ctx); err != nil {
		return "", err
	}
	client, err := g.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("error initializing Gemini's client: %w", err)
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: `
		You are an analyst specialized in micro-cap equities. You answer with
		concise markdown, figures first, and you state clearly when information
		may be outdated.`}}}
	if g.search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from %s", g.model)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
