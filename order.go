package microcap

import (
	"fmt"

	"github.com/etnz/microcap/date"
)

// Side is the direction of a manual order.
type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is a pre-validated manual trade request.
//
// Confirmed must be set by the caller once the operator agreed to the trade,
// the ledger never asks for it.
type Order struct {
	On        date.Date
	Side      Side
	Ticker    string
	Shares    Quantity // zero on a sell means the whole position
	Price     Money
	StopLoss  Money // buys only
	Memo      string
	Confirmed bool
}

// Validate checks the order fields and applies quick fixes against the
// ledger: a sell of zero shares becomes a sell of the whole position.
func (o *Order) Validate(l *Ledger) error {
	if o.On.IsZero() {
		return fmt.Errorf("%w: date is missing", ErrInvalidOrder)
	}
	if o.Ticker == "" {
		return fmt.Errorf("%w: ticker is missing", ErrInvalidOrder)
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidOrder, o.Price)
	}
	switch o.Side {
	case Buy:
		if !o.Shares.IsPositive() {
			return fmt.Errorf("%w: buy quantity must be positive, got %v", ErrInvalidOrder, o.Shares)
		}
		if o.StopLoss.IsNegative() {
			return fmt.Errorf("%w: stop loss cannot be negative, got %v", ErrInvalidOrder, o.StopLoss)
		}
	case Sell:
		if o.Shares.IsNegative() {
			return fmt.Errorf("%w: sell quantity cannot be negative, got %v", ErrInvalidOrder, o.Shares)
		}
		if o.Shares.IsZero() {
			pos, ok := l.Position(o.Ticker)
			if !ok {
				return &UnknownTickerError{Ticker: o.Ticker}
			}
			o.Shares = pos.Shares
		}
	default:
		return fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, o.Side)
	}
	return nil
}

// Execute validates and applies a confirmed order to the ledger.
func (l *Ledger) Execute(o Order) (Trade, error) {
	if err := o.Validate(l); err != nil {
		return Trade{}, err
	}
	if !o.Confirmed {
		return Trade{}, fmt.Errorf("%s %v %s: %w", o.Side, o.Shares, o.Ticker, ErrNotConfirmed)
	}
	var (
		t   Trade
		err error
	)
	if o.Side == Buy {
		t, err = l.Buy(o.On, o.Ticker, o.Shares, o.Price, o.StopLoss)
	} else {
		t, err = l.Sell(o.On, o.Ticker, o.Shares, o.Price, ManualSell)
	}
	if err != nil {
		return Trade{}, err
	}
	if o.Memo != "" {
		// the memo belongs to the last logged trade.
		t.Memo = o.Memo
		l.log.trades[len(l.log.trades)-1].Memo = o.Memo
	}
	return t, nil
}
