package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
	"github.com/google/subcommands"
)

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	date    string
	ticker  string
	shares  float64
	price   float64
	memo    string
	confirm bool
}

func (c *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Trade date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Ticker")
	f.Float64Var(&c.price, "p", 0, "Price per share, defaults to the last close")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the trade")
	f.BoolVar(&c.confirm, "confirm", false, "Execute the trade, without it the trade is only previewed")
}

// execute previews or executes the order and records the trade.
func (c *tradeFlags) execute(ctx context.Context, side microcap.Side, stopLoss float64) subcommands.ExitStatus {
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

	trades, err := st.Trades(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading trade log: %v\n", err)
		return subcommands.ExitFailure
	}
	ledger, err := microcap.RestoreLedger(initialCash(cfg), trades)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	cur := cfg.Portfolio.Currency
	price := microcap.M(c.price, cur)
	if c.price <= 0 {
		q := microcap.FetchQuote(ctx, newFeed(cfg), c.ticker, on)
		if q.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: no price for %s, use -p: %v\n", c.ticker, q.Err)
			return subcommands.ExitFailure
		}
		price = q.Close
	}
	order := microcap.Order{
		On:       on,
		Side:     side,
		Ticker:   c.ticker,
		Shares:   microcap.Q(c.shares),
		Price:    price,
		StopLoss: microcap.M(stopLoss, cur),
		Memo:     c.memo,
	}

	// dry run on a copy so that every check of the ledger applies.
	preview := order
	preview.Confirmed = true
	trade, err := ledger.Clone().Execute(preview)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !c.confirm {
		fmt.Printf("%s %v %s at %v for %v (cash %v). Run again with -confirm to execute.\n",
			side, trade.Shares, trade.Ticker, trade.Price, trade.Price.Mul(trade.Shares), ledger.Cash())
		return subcommands.ExitSuccess
	}

	order.Confirmed = true
	if trade, err = ledger.Execute(order); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := st.AppendTrades(ctx, trade); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing trade log: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: %v %s at %v, cash is now %v\n", trade.Reason, trade.Shares, trade.Ticker, trade.Price, ledger.Cash())
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct {
	tradeFlags
	stopLoss float64
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "open a position with a stop loss" }
func (*buyCmd) Usage() string {
	return `mcap buy -t <ticker> -s <shares> -stop <stop loss> [-p <price>] [-d <date>] [-m <memo>] [-confirm]

  Buys shares of a ticker. The cost is debited from the cash balance. The
  position is sold by the daily run once the close is at or below the stop
  loss.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	c.tradeFlags.set(f)
	f.Float64Var(&c.shares, "s", 0, "Number of shares")
	f.Float64Var(&c.stopLoss, "stop", 0, "Stop loss price, 0 for none")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.shares <= 0 || c.stopLoss < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return c.execute(ctx, microcap.Buy, c.stopLoss)
}

// --- Sell Command ---

type sellCmd struct {
	tradeFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares of a position" }
func (*sellCmd) Usage() string {
	return `mcap sell -t <ticker> [-s <shares>] [-p <price>] [-d <date>] [-m <memo>] [-confirm]

  Sells shares of a position, the whole position when -s is not set.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	c.tradeFlags.set(f)
	f.Float64Var(&c.shares, "s", 0, "Number of shares, 0 for the whole position")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.shares < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return c.execute(ctx, microcap.Sell, 0)
}
