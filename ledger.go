package microcap

import (
	"fmt"
	"slices"

	"github.com/etnz/microcap/date"
)

// Position is an open holding.
type Position struct {
	Ticker    string
	Shares    Quantity
	BuyPrice  Money
	CostBasis Money // remaining shares times BuyPrice
	StopLoss  Money // sell when the price is at or below
}

// Valuation is a position marked to a current price.
//
// When the feed had no price for the ticker, Priced is false and Price,
// Value and PnL are left unset: a missing price is not a zero value.
type Valuation struct {
	Position
	Priced bool
	Price  Money
	Value  Money
	PnL    Money
}

// Ledger holds the cash balance and the open positions.
//
// Operations are all-or-nothing: every check is done before the ledger is
// mutated, so a failed operation leaves it unchanged.
type Ledger struct {
	cash      Money
	positions map[string]Position
	order     []string // tickers in opening order
	log       TradeLog
}

// NewLedger creates a ledger with cash and no positions.
func NewLedger(cash Money) *Ledger {
	return &Ledger{
		cash:      cash,
		positions: make(map[string]Position),
	}
}

// RestoreLedger rebuilds a ledger by replaying persisted trades on top of the
// initial cash. The returned ledger has an empty TradeLog.
func RestoreLedger(initial Money, trades []Trade) (*Ledger, error) {
	l := NewLedger(initial)
	if err := l.Replay(trades...); err != nil {
		return nil, err
	}
	l.log = TradeLog{}
	return l, nil
}

// Replay executes persisted trades in order, buys with their recorded stop.
// It stops at the first trade that cannot be executed.
func (l *Ledger) Replay(trades ...Trade) error {
	for _, t := range trades {
		var err error
		if t.IsBuy() {
			_, err = l.Buy(t.Date, t.Ticker, t.Shares, t.Price, t.StopLoss)
		} else {
			_, err = l.Sell(t.Date, t.Ticker, t.Shares, t.Price, t.Reason)
		}
		if err != nil {
			return fmt.Errorf("cannot replay %s %s on %v: %w", t.Reason, t.Ticker, t.Date, err)
		}
	}
	return nil
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		cash:      l.cash,
		positions: make(map[string]Position, len(l.positions)),
		order:     slices.Clone(l.order),
		log:       TradeLog{trades: l.log.All()},
	}
	for k, v := range l.positions {
		c.positions[k] = v
	}
	return c
}

// Cash returns the cash balance.
func (l *Ledger) Cash() Money { return l.cash }

// Currency returns the ledger currency.
func (l *Ledger) Currency() string { return l.cash.Currency() }

// Position returns the open position for ticker.
func (l *Ledger) Position(ticker string) (Position, bool) {
	p, ok := l.positions[ticker]
	return p, ok
}

// Positions returns the open positions in opening order.
func (l *Ledger) Positions() []Position {
	res := make([]Position, 0, len(l.order))
	for _, t := range l.order {
		res = append(res, l.positions[t])
	}
	return res
}

// Tickers returns the tickers of the open positions.
func (l *Ledger) Tickers() []string { return slices.Clone(l.order) }

// Trades returns the trades executed by this ledger.
func (l *Ledger) Trades() []Trade { return l.log.All() }

// Buy opens a position of shares at price, with a stop-loss threshold.
func (l *Ledger) Buy(on date.Date, ticker string, shares Quantity, price, stopLoss Money) (Trade, error) {
	if ticker == "" {
		return Trade{}, fmt.Errorf("%w: ticker is missing", ErrInvalidOrder)
	}
	if !shares.IsPositive() {
		return Trade{}, fmt.Errorf("%w: buy quantity must be positive, got %v", ErrInvalidOrder, shares)
	}
	if !price.IsPositive() {
		return Trade{}, fmt.Errorf("%w: buy price must be positive, got %v", ErrInvalidOrder, price)
	}
	if stopLoss.IsNegative() {
		return Trade{}, fmt.Errorf("%w: stop loss cannot be negative, got %v", ErrInvalidOrder, stopLoss)
	}
	if _, exists := l.positions[ticker]; exists {
		return Trade{}, &DuplicatePositionError{Ticker: ticker}
	}
	cost := price.Mul(shares)
	if cost.GreaterThan(l.cash) {
		return Trade{}, &InsufficientCashError{Ticker: ticker, Required: cost, Available: l.cash}
	}

	l.cash = l.cash.Sub(cost)
	l.positions[ticker] = Position{
		Ticker:    ticker,
		Shares:    shares,
		BuyPrice:  price,
		CostBasis: cost,
		StopLoss:  stopLoss,
	}
	l.order = append(l.order, ticker)

	trade := Trade{
		Date:        on,
		Ticker:      ticker,
		Reason:      ManualBuy,
		Shares:      shares,
		Price:       price,
		CostBasis:   cost,
		RealizedPnL: M(0, l.Currency()),
		StopLoss:    stopLoss,
	}
	l.log.Append(trade)
	return trade, nil
}

// Sell sells shares of ticker at price.
//
// Selling the whole position closes it. A partial sell keeps the buy price
// and shrinks the cost basis to the remaining shares times the buy price.
func (l *Ledger) Sell(on date.Date, ticker string, shares Quantity, price Money, reason Reason) (Trade, error) {
	if reason != ManualSell && reason != StopLossSell {
		return Trade{}, fmt.Errorf("%w: %v is not a sell reason", ErrInvalidOrder, reason)
	}
	pos, ok := l.positions[ticker]
	if !ok {
		return Trade{}, &UnknownTickerError{Ticker: ticker}
	}
	if !shares.IsPositive() {
		return Trade{}, fmt.Errorf("%w: sell quantity must be positive, got %v", ErrInvalidOrder, shares)
	}
	if !price.IsPositive() {
		return Trade{}, fmt.Errorf("%w: sell price must be positive, got %v", ErrInvalidOrder, price)
	}
	if shares.GreaterThan(pos.Shares) {
		return Trade{}, &OversellError{Ticker: ticker, Requested: shares, Held: pos.Shares}
	}

	cost := pos.BuyPrice.Mul(shares)
	proceeds := price.Mul(shares)
	trade := Trade{
		Date:        on,
		Ticker:      ticker,
		Reason:      reason,
		Shares:      shares,
		Price:       price,
		CostBasis:   cost,
		RealizedPnL: proceeds.Sub(cost),
	}

	if shares.Equal(pos.Shares) {
		delete(l.positions, ticker)
		l.order = slices.DeleteFunc(l.order, func(t string) bool { return t == ticker })
	} else {
		pos.Shares = pos.Shares.Sub(shares)
		pos.CostBasis = pos.BuyPrice.Mul(pos.Shares)
		l.positions[ticker] = pos
	}
	l.cash = l.cash.Add(proceeds)
	l.log.Append(trade)
	return trade, nil
}

// MarkToMarket values every open position at prices. It does not mutate the
// ledger. Tickers missing from prices yield an unpriced Valuation.
//
// Value and PnL are rounded to cents per position, so that totals are sums
// of the amounts shown for each row.
func (l *Ledger) MarkToMarket(prices map[string]Money) []Valuation {
	res := make([]Valuation, 0, len(l.order))
	for _, pos := range l.Positions() {
		v := Valuation{Position: pos}
		if price, ok := prices[pos.Ticker]; ok {
			v.Priced = true
			v.Price = price
			v.Value = price.Mul(pos.Shares).Round2()
			v.PnL = price.Sub(pos.BuyPrice).Mul(pos.Shares).Round2()
		}
		res = append(res, v)
	}
	return res
}

// Equity returns the cash plus the value of the priced positions.
func (l *Ledger) Equity(prices map[string]Money) Money {
	equity := l.cash
	for _, v := range l.MarkToMarket(prices) {
		if v.Priced {
			equity = equity.Add(v.Value)
		}
	}
	return equity
}
