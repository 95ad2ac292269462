package microcap

import (
	"context"
	"fmt"

	"github.com/etnz/microcap/date"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const wit no currency set
func NO(v float64) Money { return M(v, "") }

// fakeFeed is an in memory PriceFeed: closes by ticker and date.
type fakeFeed struct {
	closes map[string]map[date.Date]float64
	fail   map[string]error
	calls  []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{closes: make(map[string]map[date.Date]float64), fail: make(map[string]error)}
}

func (f *fakeFeed) set(ticker, day string, close float64) *fakeFeed {
	if f.closes[ticker] == nil {
		f.closes[ticker] = make(map[date.Date]float64)
	}
	f.closes[ticker][date.MustParse(day)] = close
	return f
}

func (f *fakeFeed) Bars(ctx context.Context, ticker string, from, to date.Date) ([]Bar, error) {
	f.calls = append(f.calls, ticker)
	if err := f.fail[ticker]; err != nil {
		return nil, err
	}
	var res []Bar
	for d := from; !d.After(to); d = d.Add(1) {
		if c, ok := f.closes[ticker][d]; ok {
			res = append(res, Bar{Date: d, Close: USD(c), Volume: 1000})
		}
	}
	return res, nil
}

// memStore is an in memory Store.
type memStore struct {
	hist        *History
	trades      []Trade
	failReplace error
}

func newMemStore() *memStore { return &memStore{hist: NewHistory()} }

func (m *memStore) History(ctx context.Context) (*History, error) {
	return NewHistory(m.hist.Snapshots()...), nil
}

func (m *memStore) ReplaceSnapshot(ctx context.Context, s Snapshot) error {
	if m.failReplace != nil {
		return m.failReplace
	}
	m.hist.Replace(s)
	return nil
}

func (m *memStore) Trades(ctx context.Context) ([]Trade, error) {
	return append([]Trade(nil), m.trades...), nil
}

func (m *memStore) AppendTrades(ctx context.Context, trades ...Trade) error {
	m.trades = append(m.trades, trades...)
	return nil
}

func (m *memStore) Close() error { return nil }

// mustBuy buys or fails the test setup.
func mustBuy(l *Ledger, day, ticker string, shares, price, stop float64) {
	if _, err := l.Buy(date.MustParse(day), ticker, Q(shares), USD(price), USD(stop)); err != nil {
		panic(fmt.Sprintf("setup: buy %s: %v", ticker, err))
	}
}
