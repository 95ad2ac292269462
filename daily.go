package microcap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/etnz/microcap/date"
)

// DailyRun processes one trading day: it marks the portfolio to market,
// applies the stop losses, persists the snapshot and computes the metrics.
type DailyRun struct {
	Feed      PriceFeed
	Store     Store
	Initial   Money     // cash at the baseline
	Benchmark string    // required index, e.g. "^SPX"
	Watch     []string  // tickers quoted for information only
	RiskFree  float64   // annual risk-free rate
	Baseline  date.Date // zero means the weekday before the first trading day
}

// DailyReport is the outcome of a daily run.
type DailyReport struct {
	Date      date.Date
	Snapshot  Snapshot
	Quotes    []Quote // one per position held before the run
	Watch     []Quote
	Trades    []Trade // stop-loss sells executed by the run
	History   *History
	Metrics   Metrics
	Benchmark Benchmark
}

// Run processes day on.
//
// The benchmark is fetched first: when it fails nothing is written. A ticker
// without price is reported as NO DATA and does not stop the run. Running
// twice the same day replaces the snapshot of that day and never duplicates
// trades. Manual trades of the day logged after its stop-loss sells are kept
// out of the snapshot, see ReplayableTrades.
func (d *DailyRun) Run(ctx context.Context, on date.Date) (*DailyReport, error) {
	hist, err := d.Store.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read history: %w", err)
	}
	persisted, err := d.Store.Trades(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read trade log: %w", err)
	}

	baseline := d.Baseline
	if baseline.IsZero() {
		baseline = hist.Baseline(on)
	}
	bench, err := FetchBenchmark(ctx, d.Feed, d.Benchmark, baseline, on, d.Initial, d.RiskFree)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch benchmark %s: %w", d.Benchmark, err)
	}

	before, after := ReplayableTrades(persisted, on)
	ledger, err := RestoreLedger(d.Initial, before)
	if err != nil {
		return nil, err
	}

	quotes := FetchQuotes(ctx, d.Feed, ledger.Tickers(), on)
	for _, q := range quotes {
		if q.Err != nil {
			log.Printf("warning: %s is NO DATA: %v", q.Ticker, q.Err)
		}
	}

	vals := ledger.MarkToMarket(Prices(quotes))
	snap, sold, err := BuildSnapshot(on, ledger, vals)
	if err != nil {
		return nil, err
	}
	if err := snap.Check(); err != nil {
		return nil, err
	}
	for _, t := range sold {
		log.Printf("stop-loss ticker=%s shares=%v price=%v pnl=%v", t.Ticker, t.Shares, t.Price, t.RealizedPnL)
	}
	// trades logged after a previous run of the day must still apply on top
	// of its stop losses. They show in the snapshot of the next day.
	if err := ledger.Clone().Replay(after...); err != nil {
		return nil, fmt.Errorf("trade log of %v does not match its stop losses: %w", on, err)
	}

	if err := d.Store.ReplaceSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("cannot save snapshot %v: %w", on, err)
	}
	if fresh := NewTrades(persisted, ledger.Trades()); len(fresh) > 0 {
		if err := d.Store.AppendTrades(ctx, fresh...); err != nil {
			return nil, fmt.Errorf("cannot append trades: %w", err)
		}
	}
	hist.Replace(snap)

	report := &DailyReport{
		Date:      on,
		Snapshot:  snap,
		Quotes:    quotes,
		Trades:    sold,
		History:   hist,
		Benchmark: bench,
	}
	report.Metrics, err = ComputeMetrics(hist.EquitySeries(d.Initial), d.RiskFree)
	var degenerate *DegenerateSeriesError
	switch {
	case errors.As(err, &degenerate):
		log.Printf("metrics: %v", err)
	case err != nil:
		return nil, err
	case errors.As(report.Metrics.Err(), &degenerate):
		log.Printf("metrics: %v", report.Metrics.Err())
	}

	report.Watch = FetchQuotes(ctx, d.Feed, d.Watch, on)
	for _, q := range report.Watch {
		if q.Err != nil {
			log.Printf("warning: watch %s: %v", q.Ticker, q.Err)
		}
	}
	return report, nil
}
