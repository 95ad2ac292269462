package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/config"
	"github.com/etnz/microcap/renderer"
	"github.com/etnz/microcap/xlsx"
	"github.com/google/subcommands"
)

// performance computes the metrics of the history and of the benchmark over
// the same days.
func performance(ctx context.Context, cfg *config.Config, h *microcap.History) (microcap.Metrics, microcap.Benchmark, error) {
	latest, ok := h.Latest()
	if !ok {
		return microcap.Metrics{}, microcap.Benchmark{}, &microcap.DegenerateSeriesError{Metric: "metrics", Reason: "no snapshot recorded"}
	}
	initial := initialCash(cfg)
	m, err := microcap.ComputeMetrics(h.EquitySeries(initial), cfg.Portfolio.RiskFree)
	if err != nil {
		return m, microcap.Benchmark{}, err
	}
	b, err := microcap.FetchBenchmark(ctx, newFeed(cfg), cfg.Portfolio.Benchmark, m.From, latest.Date, initial, cfg.Portfolio.RiskFree)
	return m, b, err
}

type performanceCmd struct {
	ai bool
}

func (*performanceCmd) Name() string { return "performance" }
func (*performanceCmd) Synopsis() string {
	return "compare the portfolio risk and return with the benchmark"
}
func (*performanceCmd) Usage() string {
	return `mcap performance [-ai]

  Computes total return, volatility, max drawdown, Sharpe and Sortino ratios
  over the whole history, for the portfolio and for the benchmark.
`
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.ai, "ai", false, "Also generate the AI performance analysis")
}

func (c *performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, h, _, err := openHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	m, b, err := performance(ctx, cfg, h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderPerformance(m, b))

	if !c.ai {
		return subcommands.ExitSuccess
	}
	a, err := newAnalyst(ctx, cfg)
	if err != nil {
		log.Printf("warning: no AI analysis: %v", err)
		return subcommands.ExitSuccess
	}
	text, err := a.Performance(ctx, m, b)
	if err != nil {
		log.Printf("warning: %v", err)
		return subcommands.ExitSuccess
	}
	writeReport(cfg, fmt.Sprintf("ai_performance_analysis_%s.txt", m.To), text)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export history, trades and metrics to a spreadsheet" }
func (*exportCmd) Usage() string {
	return `mcap export [-o <file.xlsx>]

  Writes the history, the trade log and the metrics in an Excel workbook.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "mcap.xlsx", "Output file")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, h, trades, err := openHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var metrics *microcap.Metrics
	m, err := microcap.ComputeMetrics(h.EquitySeries(initialCash(cfg)), cfg.Portfolio.RiskFree)
	var degenerate *microcap.DegenerateSeriesError
	switch {
	case err == nil:
		metrics = &m
	case errors.As(err, &degenerate):
		log.Printf("warning: metrics not exported: %v", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := os.Create(c.output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := errors.Join(xlsx.Export(out, h, trades, metrics), out.Close()); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", c.output, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Successfully exported to %s\n", c.output)
	return subcommands.ExitSuccess
}
