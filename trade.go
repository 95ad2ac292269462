package microcap

import (
	"fmt"
	"strings"

	"github.com/etnz/microcap/date"
)

// Reason tells why a trade was executed.
type Reason int

const (
	ManualBuy Reason = iota + 1
	ManualSell
	StopLossSell
)

func (r Reason) String() string {
	switch r {
	case ManualBuy:
		return "MANUAL_BUY"
	case ManualSell:
		return "MANUAL_SELL"
	case StopLossSell:
		return "STOP_LOSS_SELL"
	default:
		return "UNKNOWN"
	}
}

// ParseReason parses the code returned by Reason.String.
func ParseReason(s string) (Reason, error) {
	switch s {
	case "MANUAL_BUY":
		return ManualBuy, nil
	case "MANUAL_SELL":
		return ManualSell, nil
	case "STOP_LOSS_SELL":
		return StopLossSell, nil
	default:
		return 0, fmt.Errorf("unknown trade reason: %q", s)
	}
}

// Trade is the immutable record of an executed buy or sell.
type Trade struct {
	Date        date.Date
	Ticker      string
	Reason      Reason
	Shares      Quantity
	Price       Money
	CostBasis   Money // price paid for the shares traded
	RealizedPnL Money // sells only
	StopLoss    Money // buys only, needed to rebuild the position
	Memo        string
}

// IsBuy reports whether the trade opened a position.
func (t Trade) IsBuy() bool { return t.Reason == ManualBuy }

// Label returns the reason as written in the trade log, with the memo if any.
func (t Trade) Label() string {
	if t.Memo == "" {
		return t.Reason.String()
	}
	return t.Reason.String() + " - " + t.Memo
}

// ParseLabel is the reverse of Trade.Label.
func ParseLabel(s string) (Reason, string, error) {
	code, memo, _ := strings.Cut(s, " - ")
	r, err := ParseReason(strings.TrimSpace(code))
	return r, strings.TrimSpace(memo), err
}

// same reports whether two records describe the same execution.
func (t Trade) same(u Trade) bool {
	return t.Date == u.Date && t.Ticker == u.Ticker && t.Reason == u.Reason &&
		t.Shares.Equal(u.Shares) && t.Price.Equal(u.Price)
}

// TradeLog is an append-only list of trades.
type TradeLog struct {
	trades []Trade
}

// Append records trades at the end of the log.
func (l *TradeLog) Append(trades ...Trade) { l.trades = append(l.trades, trades...) }

// Len returns the number of trades in the log.
func (l *TradeLog) Len() int { return len(l.trades) }

// All returns a copy of all trades in execution order.
func (l *TradeLog) All() []Trade { return append([]Trade(nil), l.trades...) }

// ReplayableTrades splits the persisted trades around the daily run of day
// on, keeping the order of the log.
//
// before rebuilds the ledger the run starts from: every trade dated before
// on, and the manual trades of on logged before its first stop-loss sell (all
// of them when the day has none yet). after holds the manual trades of on
// logged after that stop-loss sell: they were made once the run was done, a
// rebuy of a stopped ticker for instance. Stop-loss sells of on are in
// neither, the run produces them again.
func ReplayableTrades(trades []Trade, on date.Date) (before, after []Trade) {
	ran := false
	for _, t := range trades {
		switch {
		case t.Date.After(on):
		case t.Date.Before(on):
			before = append(before, t)
		case t.Reason == StopLossSell:
			ran = true
		case ran:
			after = append(after, t)
		default:
			before = append(before, t)
		}
	}
	return before, after
}

// NewTrades returns the executed trades that are not already in existing.
func NewTrades(existing, executed []Trade) []Trade {
	var res []Trade
	for _, t := range executed {
		found := false
		for _, e := range existing {
			if e.same(t) {
				found = true
				break
			}
		}
		if !found {
			res = append(res, t)
		}
	}
	return res
}
