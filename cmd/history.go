package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/config"
	"github.com/etnz/microcap/renderer"
	"github.com/google/subcommands"
)

// openHistory loads the configuration and reads the history and the trade log.
func openHistory(ctx context.Context) (*config.Config, *microcap.History, []microcap.Trade, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot open store: %w", err)
	}
	defer st.Close()
	h, err := st.History(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot read history: %w", err)
	}
	trades, err := st.Trades(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot read trade log: %w", err)
	}
	return cfg, h, trades, nil
}

type historyCmd struct {
	tail int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the equity history" }
func (*historyCmd) Usage() string {
	return `mcap history [-tail <n>]

  Displays the TOTAL row of every recorded day.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.tail, "tail", 0, "Show only the last N days.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.tail < 0 {
		fmt.Fprintln(os.Stderr, "Error: -tail must not be negative.")
		return subcommands.ExitUsageError
	}
	_, h, _, err := openHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.HistoryMarkdown(h, c.tail))
	return subcommands.ExitSuccess
}

type tradesCmd struct {
	tail int
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list the trade log" }
func (*tradesCmd) Usage() string {
	return `mcap trades [-tail <n>]

  Lists the executed trades, manual and stop-loss ones.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.tail, "tail", 0, "Show only the last N trades.")
}

func (c *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, _, trades, err := openHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.tail > 0 && len(trades) > c.tail {
		trades = trades[len(trades)-c.tail:]
	}
	printMarkdown(renderer.TradesMarkdown(trades))
	return subcommands.ExitSuccess
}
