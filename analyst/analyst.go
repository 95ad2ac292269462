package analyst

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"github.com/etnz/microcap"
)

//go:embed prompts/*.tmpl
var promptsFS embed.FS

var prompts = template.Must(template.New("").Funcs(template.FuncMap{
	"pct": func(fraction float64) microcap.Percent { return microcap.PercentOf(fraction) },
}).ParseFS(promptsFS, "prompts/*.tmpl"))

// Analyst writes analyses of the portfolio with a Generator.
type Analyst struct {
	gen     Generator
	initial microcap.Money
}

// New creates an Analyst. initial is the cash the portfolio started with.
func New(gen Generator, initial microcap.Money) *Analyst {
	return &Analyst{gen: gen, initial: initial}
}

// Provider returns the name of the text generation provider.
func (a *Analyst) Provider() string { return a.gen.Name() }

type snapshotData struct {
	microcap.Snapshot
	Initial    microcap.Money
	Return     microcap.Percent
	Conditions string
}

func (a *Analyst) snapshotData(hist *microcap.History) (snapshotData, error) {
	latest, ok := hist.Latest()
	if !ok {
		return snapshotData{}, fmt.Errorf("no portfolio data available for analysis")
	}
	d := snapshotData{Snapshot: latest, Initial: a.initial}
	if a.initial.IsPositive() {
		d.Return = microcap.PercentOf(latest.Total.Equity.Sub(a.initial).AsFloat() / a.initial.AsFloat())
	}
	return d, nil
}

// Portfolio analyzes the latest snapshot of the history.
func (a *Analyst) Portfolio(ctx context.Context, hist *microcap.History) (string, error) {
	d, err := a.snapshotData(hist)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, "portfolio.tmpl", d)
}

// Research analyzes a single stock. name and price are optional.
func (a *Analyst) Research(ctx context.Context, ticker, name string, price microcap.Money) (string, error) {
	return a.generate(ctx, "research.tmpl", struct {
		Ticker, Name string
		Price        microcap.Money
	}{ticker, name, price})
}

// Strategy recommends a trading strategy for the current positions under
// the market conditions described by the operator.
func (a *Analyst) Strategy(ctx context.Context, hist *microcap.History, conditions string) (string, error) {
	d, err := a.snapshotData(hist)
	if err != nil {
		return "", err
	}
	d.Conditions = conditions
	if d.Conditions == "" {
		d.Conditions = "not specified"
	}
	return a.generate(ctx, "strategy.tmpl", d)
}

// Performance compares the portfolio metrics with the benchmark.
func (a *Analyst) Performance(ctx context.Context, m microcap.Metrics, bench microcap.Benchmark) (string, error) {
	return a.generate(ctx, "performance.tmpl", struct {
		Portfolio microcap.Metrics
		Benchmark microcap.Benchmark
	}{m, bench})
}

// Prompt renders the prompt template name with data.
func Prompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("cannot render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

func (a *Analyst) generate(ctx context.Context, name string, data any) (string, error) {
	prompt, err := Prompt(name, data)
	if err != nil {
		return "", err
	}
	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", &microcap.ProviderUnavailableError{Provider: a.gen.Name(), Err: err}
	}
	return text, nil
}
