package microcap

import (
	"context"
	"errors"
	"slices"

	"github.com/etnz/microcap/date"
)

// Bar is the daily OHLCV of a ticker.
type Bar struct {
	Date   date.Date
	Open   Money
	High   Money
	Low    Money
	Close  Money
	Volume int64
}

// PriceFeed provides daily bars.
//
// Bars returns the bars of ticker between from and to inclusive. An empty
// slice with a nil error means the feed has no data, an error means the feed
// could not be queried.
type PriceFeed interface {
	Bars(ctx context.Context, ticker string, from, to date.Date) ([]Bar, error)
}

// QuoteStatus discriminates the outcome of a quote request.
type QuoteStatus int

const (
	QuoteOK QuoteStatus = iota
	QuoteNoData
	QuoteFailed
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteOK:
		return "ok"
	case QuoteNoData:
		return "no data"
	default:
		return "failed"
	}
}

// quoteLookback is how far back a quote looks for the last close, to cover
// week-ends and holidays.
const quoteLookback = 7

// Quote is the last known price of a ticker on a day.
//
// Err is nil on success, a *NoDataError when the feed had nothing, and a
// *ProviderUnavailableError when the feed call failed.
type Quote struct {
	Ticker        string
	On            date.Date // date of the last bar
	Close         Money
	PreviousClose Money // zero when there is a single bar
	Volume        int64
	Err           error
}

// Status returns the outcome of the quote.
func (q Quote) Status() QuoteStatus {
	var noData *NoDataError
	switch {
	case q.Err == nil:
		return QuoteOK
	case errors.As(q.Err, &noData):
		return QuoteNoData
	default:
		return QuoteFailed
	}
}

// Change returns the percent change from the previous close.
func (q Quote) Change() Percent {
	if q.Err != nil || !q.PreviousClose.IsPositive() {
		return 0
	}
	return PercentOf(q.Close.Sub(q.PreviousClose).AsFloat() / q.PreviousClose.AsFloat())
}

// FetchQuote returns the last close of ticker at or before on.
func FetchQuote(ctx context.Context, feed PriceFeed, ticker string, on date.Date) Quote {
	q := Quote{Ticker: ticker}
	bars, err := feed.Bars(ctx, ticker, on.Add(-quoteLookback), on)
	if err != nil {
		var unavailable *ProviderUnavailableError
		if !errors.As(err, &unavailable) {
			err = &ProviderUnavailableError{Provider: "price feed", Err: err}
		}
		q.Err = err
		return q
	}
	bars = slices.DeleteFunc(slices.Clone(bars), func(b Bar) bool { return b.Date.After(on) })
	slices.SortFunc(bars, func(a, b Bar) int { return a.Date.Compare(b.Date) })
	if len(bars) == 0 {
		q.Err = &NoDataError{Ticker: ticker, On: on}
		return q
	}
	last := bars[len(bars)-1]
	q.On = last.Date
	q.Close = last.Close.Round2()
	q.Volume = last.Volume
	if len(bars) > 1 {
		q.PreviousClose = bars[len(bars)-2].Close.Round2()
	}
	return q
}

// FetchQuotes fetches one quote per ticker, sequentially.
func FetchQuotes(ctx context.Context, feed PriceFeed, tickers []string, on date.Date) []Quote {
	res := make([]Quote, 0, len(tickers))
	for _, t := range tickers {
		res = append(res, FetchQuote(ctx, feed, t, on))
	}
	return res
}

// Prices returns the close of every successful quote by ticker.
func Prices(quotes []Quote) map[string]Money {
	res := make(map[string]Money, len(quotes))
	for _, q := range quotes {
		if q.Status() == QuoteOK {
			res[q.Ticker] = q.Close
		}
	}
	return res
}
