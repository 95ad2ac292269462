package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search tickers on EODHD" }
func (*searchCmd) Usage() string {
	return `mcap search <ticker or company name>

  Searches EODHD and prints the matching tickers, to be used in buy.
`
}

func (*searchCmd) SetFlags(_ *flag.FlagSet) {}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	results, err := newFeed(cfg).Search(ctx, strings.Join(f.Args(), " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("| Ticker | Name | Type | Exchange | Currency | Previous Close |\n|:--|:--|:--|:--|:--|--:|\n")
	for _, r := range results {
		ticker := r.Code
		if r.Exchange != "US" {
			ticker = r.Code + "." + r.Exchange
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %.2f |\n", ticker, r.Name, r.Type, r.Exchange, r.Currency, r.PreviousClose)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
