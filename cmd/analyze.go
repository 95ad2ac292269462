package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/analyst"
	"github.com/etnz/microcap/date"
	"github.com/google/subcommands"
)

type analyzeCmd struct{}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "ask the AI provider to analyze the portfolio" }
func (*analyzeCmd) Usage() string {
	return `mcap analyze

  Generates an analysis of the latest snapshot and its trend.
`
}

func (*analyzeCmd) SetFlags(_ *flag.FlagSet) {}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, h, _, err := openHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	latest, ok := h.Latest()
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: no snapshot yet, run 'mcap daily' first")
		return subcommands.ExitFailure
	}
	a, err := newAnalyst(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	text, err := a.Portfolio(ctx, h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	writeReport(cfg, fmt.Sprintf("ai_daily_analysis_%s.txt", latest.Date), text)
	return subcommands.ExitSuccess
}

type researchCmd struct {
	date string
}

func (*researchCmd) Name() string     { return "research" }
func (*researchCmd) Synopsis() string { return "ask the AI provider to research a ticker" }
func (*researchCmd) Usage() string {
	return `mcap research [-d <date>] <ticker>

  Generates a research note on a ticker at its last close.
`
}

func (c *researchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the close (YYYY-MM-DD)")
}

func (c *researchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ticker := strings.ToUpper(f.Arg(0))
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	feed := newFeed(cfg)
	q := microcap.FetchQuote(ctx, feed, ticker, on)
	if q.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", q.Err)
		return subcommands.ExitFailure
	}
	name := ""
	if results, err := feed.Search(ctx, ticker); err != nil {
		log.Printf("warning: cannot search %s: %v", ticker, err)
	} else if len(results) > 0 {
		name = results[0].Name
	}

	a, err := newAnalyst(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	text, err := a.Research(ctx, ticker, name, q.Close)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	writeReport(cfg, fmt.Sprintf("ai_research_%s_%s.txt", fileName(ticker), q.On), text)
	return subcommands.ExitSuccess
}

type strategyCmd struct {
	conditions string
}

func (*strategyCmd) Name() string     { return "strategy" }
func (*strategyCmd) Synopsis() string { return "ask the AI provider for a trading strategy" }
func (*strategyCmd) Usage() string {
	return `mcap strategy [-conditions <market conditions>]

  Generates trading strategy recommendations for the current positions.
`
}

func (c *strategyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.conditions, "conditions", "", "Current market conditions")
}

func (c *strategyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, h, _, err := openHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	a, err := newAnalyst(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	text, err := a.Strategy(ctx, h, c.conditions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	writeReport(cfg, fmt.Sprintf("ai_trading_strategy_%s.txt", date.Today()), text)
	return subcommands.ExitSuccess
}

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show which AI providers are available" }
func (*statusCmd) Usage() string {
	return `mcap status

  Checks every AI provider and shows the one "auto" selects.
`
}

func (*statusCmd) SetFlags(_ *flag.FlagSet) {}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var b strings.Builder
	b.WriteString("# AI Providers\n\n| Provider | Model | Status |\n|:--|:--|:--|\n")
	selected := ""
	for _, s := range analyst.Status(ctx, generators(cfg)...) {
		status := "available"
		if !s.Available {
			status = "unavailable: " + s.Err.Error()
		} else if selected == "" {
			selected = s.Name
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Name, s.Model, status)
	}
	fmt.Fprintf(&b, "\nConfigured provider: %s", cfg.AI.Provider)
	if cfg.AI.Provider == analyst.Auto && selected != "" {
		fmt.Fprintf(&b, ", using %s", selected)
	}
	b.WriteString("\n")
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
