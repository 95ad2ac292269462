package microcap

import (
	"fmt"

	"github.com/etnz/microcap/date"
)

// Action is what the daily run did with a position.
type Action string

const (
	Hold     Action = "HOLD"
	StopLoss Action = "SELL - Stop Loss Triggered"
	NoData   Action = "NO DATA"
)

// ParseAction parses an Action as written in the history.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case Hold, StopLoss, NoData:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Row is the state of one ticker in a daily snapshot.
type Row struct {
	Ticker    string
	Shares    Quantity
	BuyPrice  Money
	CostBasis Money
	StopLoss  Money
	Priced    bool // false for NO DATA rows, Price, Value and PnL are then unset
	Price     Money
	Value     Money
	PnL       Money
	Action    Action
}

// Total is the aggregate row of a daily snapshot.
type Total struct {
	Value  Money // market value of the positions still held
	PnL    Money
	Cash   Money
	Equity Money // Value + Cash
}

// Snapshot is the ledger state of one trading day.
type Snapshot struct {
	Date  date.Date
	Rows  []Row
	Total Total
}

// Tickers returns the tickers of the rows in order.
func (s Snapshot) Tickers() []string {
	res := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		res = append(res, r.Ticker)
	}
	return res
}

// Row returns the row of ticker.
func (s Snapshot) Row(ticker string) (Row, bool) {
	for _, r := range s.Rows {
		if r.Ticker == ticker {
			return r, true
		}
	}
	return Row{}, false
}

// Check verifies the reconciliation of the TOTAL row: its equity must be the
// cash plus the value of the priced rows that were not stop-loss sold.
func (s Snapshot) Check() error {
	value := M(0, s.Total.Cash.Currency())
	for _, r := range s.Rows {
		if r.Action == Hold && r.Priced {
			value = value.Add(r.Value)
		}
	}
	if !value.Equal(s.Total.Value) {
		return fmt.Errorf("snapshot %v: total value is %v, rows sum to %v", s.Date, s.Total.Value, value)
	}
	if eq := s.Total.Cash.Add(value); !eq.Equal(s.Total.Equity) {
		return fmt.Errorf("snapshot %v: total equity is %v, expected %v", s.Date, s.Total.Equity, eq)
	}
	return nil
}

// BuildSnapshot builds the snapshot of day on from the ledger and its
// valuations, taken before any stop loss was applied.
//
// Every triggered position is sold from the ledger at its current price. The
// TOTAL row is then computed from the remaining positions and the post-sell
// cash. It returns the stop-loss trades it executed. On error the ledger is
// left unchanged.
func BuildSnapshot(on date.Date, l *Ledger, vals []Valuation) (Snapshot, []Trade, error) {
	snap := Snapshot{Date: on}
	work := l.Clone()
	var sold []Trade
	for _, v := range vals {
		row := Row{
			Ticker:    v.Ticker,
			Shares:    v.Shares,
			BuyPrice:  v.BuyPrice,
			CostBasis: v.CostBasis,
			StopLoss:  v.StopLoss,
			Priced:    v.Priced,
			Price:     v.Price,
			Value:     v.Value,
			PnL:       v.PnL,
			Action:    Hold,
		}
		switch {
		case !v.Priced:
			row.Action = NoData
		case triggered(v):
			row.Action = StopLoss
			t, err := work.Sell(on, v.Ticker, v.Shares, v.Price, StopLossSell)
			if err != nil {
				return Snapshot{}, nil, fmt.Errorf("cannot apply stop loss on %s: %w", v.Ticker, err)
			}
			sold = append(sold, t)
		}
		snap.Rows = append(snap.Rows, row)
	}

	*l = *work

	cur := l.Currency()
	total := Total{Value: M(0, cur), PnL: M(0, cur), Cash: l.Cash()}
	for _, r := range snap.Rows {
		if r.Action != Hold {
			continue
		}
		total.Value = total.Value.Add(r.Value)
		total.PnL = total.PnL.Add(r.PnL)
	}
	total.Equity = total.Value.Add(total.Cash)
	snap.Total = total
	return snap, sold, nil
}
