package microcap

import (
	"context"
	"errors"
	"log"
	"slices"

	"github.com/etnz/microcap/date"
)

// Benchmark is a reference index normalized to the portfolio initial cash:
// the equity of the initial cash fully invested in the index on the first
// bar.
type Benchmark struct {
	Ticker  string
	Series  EquitySeries
	Metrics Metrics
}

// BenchmarkSeries scales the closes of bars so that the first close equals
// initial.
func BenchmarkSeries(bars []Bar, initial Money) EquitySeries {
	bars = slices.Clone(bars)
	slices.SortFunc(bars, func(a, b Bar) int { return a.Date.Compare(b.Date) })
	if len(bars) == 0 || !bars[0].Close.IsPositive() {
		return nil
	}
	base := bars[0].Close.value
	res := make(EquitySeries, 0, len(bars))
	for _, b := range bars {
		res = append(res, EquityPoint{
			Date:   b.Date,
			Equity: Money{value: initial.value.Mul(b.Close.value).Div(base), cur: initial.cur},
		})
	}
	return res
}

// FetchBenchmark fetches ticker between from and to and computes its
// normalized metrics.
//
// The benchmark is required: a provider failure or an empty answer is
// returned as an error, without retry.
func FetchBenchmark(ctx context.Context, feed PriceFeed, ticker string, from, to date.Date, initial Money, riskFree float64) (Benchmark, error) {
	bars, err := feed.Bars(ctx, ticker, from, to)
	if err != nil {
		var unavailable *ProviderUnavailableError
		if !errors.As(err, &unavailable) {
			err = &ProviderUnavailableError{Provider: "price feed", Err: err}
		}
		return Benchmark{}, err
	}
	series := BenchmarkSeries(bars, initial)
	if len(series) == 0 {
		return Benchmark{}, &NoDataError{Ticker: ticker, On: to}
	}
	b := Benchmark{Ticker: ticker, Series: series}
	if len(series) >= 2 {
		// a single bar has no metrics, that is not a failure of the feed.
		m, err := ComputeMetrics(series, riskFree)
		if err := errors.Join(err, m.Err()); err != nil {
			log.Printf("benchmark %s metrics: %v", ticker, err)
		}
		b.Metrics = m
	}
	return b, nil
}
