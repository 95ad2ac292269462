package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
	"github.com/etnz/microcap/renderer"
	"github.com/google/subcommands"
)

// dailyCmd holds the flags for the 'daily' subcommand.
type dailyCmd struct {
	date     string
	ai       bool
	research bool
}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "mark the portfolio to market, apply stop losses and report" }
func (*dailyCmd) Usage() string {
	return `mcap daily [-d <date>] [-ai] [-research]

  Fetches the closing prices of the day, sells the positions whose stop loss
  is hit, records the snapshot of the day and prints the daily report.
  Running it again for the same day replaces that day's snapshot.
`
}

func (c *dailyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date of the run (YYYY-MM-DD)")
	f.BoolVar(&c.ai, "ai", false, "Also generate the AI portfolio analysis")
	f.BoolVar(&c.research, "research", false, "Also generate the AI research of every position")
}

func (c *dailyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	run := &microcap.DailyRun{
		Feed:      newFeed(cfg),
		Store:     st,
		Initial:   initialCash(cfg),
		Benchmark: cfg.Portfolio.Benchmark,
		Watch:     cfg.Portfolio.Watch,
		RiskFree:  cfg.Portfolio.RiskFree,
	}
	report, err := run.Run(ctx, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: daily run failed: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderDaily(report))

	if !c.ai && !c.research {
		return subcommands.ExitSuccess
	}
	// analysis is best effort, the snapshot is already saved.
	a, err := newAnalyst(ctx, cfg)
	if err != nil {
		log.Printf("warning: no AI analysis: %v", err)
		return subcommands.ExitSuccess
	}
	if c.ai {
		text, err := a.Portfolio(ctx, report.History)
		if err != nil {
			log.Printf("warning: %v", err)
		} else {
			writeReport(cfg, fmt.Sprintf("ai_daily_analysis_%s.txt", on), text)
		}
	}
	if c.research {
		for _, q := range report.Quotes {
			if q.Status() != microcap.QuoteOK {
				continue
			}
			text, err := a.Research(ctx, q.Ticker, "", q.Close)
			if err != nil {
				log.Printf("warning: %v", err)
				continue
			}
			writeReport(cfg, fmt.Sprintf("ai_research_%s_%s.txt", fileName(q.Ticker), on), text)
		}
	}
	return subcommands.ExitSuccess
}
