package renderer

import (
	"fmt"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
)

// Daily is the view of a daily report.
type Daily struct {
	Date       date.Date
	Total      microcap.Total
	Positions  []Position
	StopLosses []microcap.Trade
	NoData     []string
	Watch      []Watch
	Metrics    *microcap.Metrics   // nil until there are two equity points
	Benchmark  *microcap.Benchmark // nil without benchmark data
	Initial    microcap.Money      // first equity of the benchmark
}

// Position is a printable row of the snapshot.
type Position struct {
	Ticker   string
	Shares   string
	BuyPrice string
	StopLoss string
	Close    string
	Change   string
	Value    string
	PnL      string
	Action   string
}

// Watch is a printable quote.
type Watch struct {
	Ticker string
	Close  string
	Change string
	Volume string
}

// NewDaily builds the view of r.
func NewDaily(r *microcap.DailyReport) *Daily {
	d := &Daily{
		Date:       r.Date,
		Total:      r.Snapshot.Total,
		StopLosses: r.Trades,
	}
	change := make(map[string]string)
	for _, q := range r.Quotes {
		change[q.Ticker] = q.Change().SignedString()
	}
	for _, row := range r.Snapshot.Rows {
		p := Position{
			Ticker:   row.Ticker,
			Shares:   row.Shares.String(),
			BuyPrice: row.BuyPrice.String(),
			StopLoss: row.StopLoss.String(),
			Close:    "-",
			Change:   "-",
			Value:    "-",
			PnL:      "-",
			Action:   string(row.Action),
		}
		if row.Priced {
			p.Close, p.Value, p.PnL = row.Price.String(), row.Value.String(), row.PnL.SignedString()
			p.Change = change[row.Ticker]
		} else {
			d.NoData = append(d.NoData, row.Ticker)
		}
		d.Positions = append(d.Positions, p)
	}
	for _, q := range r.Watch {
		w := Watch{Ticker: q.Ticker, Close: "-", Change: "-", Volume: "-"}
		if q.Status() == microcap.QuoteOK {
			w.Close, w.Change, w.Volume = q.Close.String(), q.Change().SignedString(), fmt.Sprint(q.Volume)
		}
		d.Watch = append(d.Watch, w)
	}
	if r.Metrics.Days > 0 {
		m := r.Metrics
		d.Metrics = &m
	}
	if len(r.Benchmark.Series) > 0 {
		b := r.Benchmark
		d.Benchmark = &b
		d.Initial = b.Series[0].Equity
	}
	return d
}

// Performance is the view of the performance report.
type Performance struct {
	Portfolio microcap.Metrics
	Benchmark microcap.Benchmark
	// Beat reports whether the portfolio total return is above the benchmark one.
	Beat bool
}

func NewPerformance(m microcap.Metrics, b microcap.Benchmark) *Performance {
	return &Performance{Portfolio: m, Benchmark: b, Beat: m.TotalReturn > b.Metrics.TotalReturn}
}
