package microcap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/etnz/microcap/date"
)

func TestLedger_Buy(t *testing.T) {
	l := NewLedger(USD(100))
	trade, err := l.Buy(date.MustParse("2025-06-27"), "ABEO", Q(6), USD(5.77), USD(4.90))
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if want := USD(65.38); !l.Cash().Equal(want) {
		t.Errorf("Cash() = %v, want %v", l.Cash(), want)
	}
	pos, ok := l.Position("ABEO")
	if !ok {
		t.Fatal("Position(ABEO) not found")
	}
	if !pos.CostBasis.Equal(USD(34.62)) {
		t.Errorf("CostBasis = %v, want $34.62", pos.CostBasis)
	}
	if trade.Reason != ManualBuy || !trade.StopLoss.Equal(USD(4.90)) {
		t.Errorf("trade = %+v, want a MANUAL_BUY with stop $4.90", trade)
	}
	if got := len(l.Trades()); got != 1 {
		t.Errorf("len(Trades()) = %d, want 1", got)
	}
}

func TestLedger_BuyErrors(t *testing.T) {
	testCases := []struct {
		name   string
		ticker string
		shares float64
		price  float64
		check  func(error) bool
	}{
		{
			name: "insufficient cash", ticker: "X", shares: 20, price: 5.77,
			check: func(err error) bool { var e *InsufficientCashError; return errors.As(err, &e) },
		},
		{
			name: "duplicate position", ticker: "HELD", shares: 1, price: 1,
			check: func(err error) bool { var e *DuplicatePositionError; return errors.As(err, &e) },
		},
		{
			name: "zero shares", ticker: "X", shares: 0, price: 1,
			check: func(err error) bool { return errors.Is(err, ErrInvalidOrder) },
		},
		{
			name: "negative price", ticker: "X", shares: 1, price: -1,
			check: func(err error) bool { return errors.Is(err, ErrInvalidOrder) },
		},
		{
			name: "missing ticker", ticker: "", shares: 1, price: 1,
			check: func(err error) bool { return errors.Is(err, ErrInvalidOrder) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger(USD(100))
			mustBuy(l, "2025-06-27", "HELD", 1, 10, 0)
			before := l.Clone()

			_, err := l.Buy(date.MustParse("2025-06-30"), tc.ticker, Q(tc.shares), USD(tc.price), USD(0))
			if err == nil || !tc.check(err) {
				t.Fatalf("Buy() error = %v, not the expected kind", err)
			}
			if !reflect.DeepEqual(l, before) {
				t.Errorf("ledger mutated by a failed Buy")
			}
		})
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	if _, err := l.Sell(date.MustParse("2025-06-27"), "X", Q(6), USD(5.77), ManualSell); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	if !l.Cash().Equal(USD(100)) {
		t.Errorf("Cash() = %v, want $100.00", l.Cash())
	}
	if len(l.Positions()) != 0 {
		t.Errorf("Positions() = %v, want none", l.Positions())
	}
}

func TestLedger_PartialSellKeepsBuyPrice(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 10, 5, 4)
	trade, err := l.Sell(date.MustParse("2025-06-30"), "X", Q(4), USD(6), ManualSell)
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	if !trade.RealizedPnL.Equal(USD(4)) {
		t.Errorf("RealizedPnL = %v, want $4.00", trade.RealizedPnL)
	}
	pos, _ := l.Position("X")
	if !pos.Shares.Equal(Q(6)) {
		t.Errorf("Shares = %v, want 6", pos.Shares)
	}
	if !pos.BuyPrice.Equal(USD(5)) {
		t.Errorf("BuyPrice = %v, want $5.00 (no re-averaging)", pos.BuyPrice)
	}
	if !pos.CostBasis.Equal(USD(30)) {
		t.Errorf("CostBasis = %v, want $30.00", pos.CostBasis)
	}
	if !l.Cash().Equal(USD(74)) {
		t.Errorf("Cash() = %v, want $74.00", l.Cash())
	}
}

func TestLedger_SellErrors(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	before := l.Clone()

	_, err := l.Sell(date.MustParse("2025-06-30"), "X", Q(7), USD(6), ManualSell)
	var oversell *OversellError
	if !errors.As(err, &oversell) {
		t.Fatalf("Sell() error = %v, want OversellError", err)
	}
	if !reflect.DeepEqual(l, before) {
		t.Errorf("ledger mutated by a failed Sell")
	}

	_, err = l.Sell(date.MustParse("2025-06-30"), "Y", Q(1), USD(6), ManualSell)
	var unknown *UnknownTickerError
	if !errors.As(err, &unknown) {
		t.Errorf("Sell() error = %v, want UnknownTickerError", err)
	}

	_, err = l.Sell(date.MustParse("2025-06-30"), "X", Q(1), USD(6), ManualBuy)
	if !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Sell() error = %v, want ErrInvalidOrder", err)
	}
}

func TestLedger_MarkToMarket(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	mustBuy(l, "2025-06-27", "Y", 2, 10, 0)

	vals := l.MarkToMarket(map[string]Money{"X": USD(6)})
	if len(vals) != 2 {
		t.Fatalf("len(MarkToMarket()) = %d, want 2", len(vals))
	}
	x, y := vals[0], vals[1]
	if !x.Priced || !x.Value.Equal(USD(36)) || !x.PnL.Equal(USD(1.38)) {
		t.Errorf("X valuation = %+v, want value $36.00 pnl $1.38", x)
	}
	if y.Priced || !y.Value.IsZero() || y.Value.Currency() != "" {
		t.Errorf("Y valuation = %+v, want unpriced with unset value", y)
	}
	if !l.Cash().Equal(USD(45.38)) {
		t.Errorf("MarkToMarket mutated cash: %v", l.Cash())
	}
}

func TestLedger_MarkToMarketRoundsToCents(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "A", 2.5, 1.23, 0)
	mustBuy(l, "2025-06-27", "B", 2.5, 1.23, 0)

	vals := l.MarkToMarket(map[string]Money{"A": USD(1.23), "B": USD(1.23)})
	for _, v := range vals {
		if !v.Value.Equal(USD(3.08)) || !v.PnL.IsZero() {
			t.Errorf("%s valuation = %v/%v, want $3.08/0", v.Ticker, v.Value, v.PnL)
		}
	}
	snap, _, err := BuildSnapshot(date.MustParse("2025-06-30"), l, vals)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if !snap.Total.Value.Equal(USD(6.16)) {
		t.Errorf("total value = %v, want the sum of the rows $6.16", snap.Total.Value)
	}
	if err := snap.Check(); err != nil {
		t.Error(err)
	}
}

func TestMoney_Plain(t *testing.T) {
	testCases := []struct {
		m    Money
		want string
	}{
		{USD(65.38), "65.38"},
		{USD(4.9), "4.90"},
		{USD(0), "0.00"},
		{USD(1.505), "1.505"},
		{USD(-5.52), "-5.52"},
	}
	for _, tc := range testCases {
		if got := tc.m.Plain(); got != tc.want {
			t.Errorf("Plain() = %q, want %q", got, tc.want)
		}
	}
}

func TestRestoreLedger(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	mustBuy(l, "2025-06-27", "Y", 2, 10, 8)
	if _, err := l.Sell(date.MustParse("2025-06-30"), "Y", Q(1), USD(11), ManualSell); err != nil {
		t.Fatal(err)
	}

	got, err := RestoreLedger(USD(100), l.Trades())
	if err != nil {
		t.Fatalf("RestoreLedger() error = %v", err)
	}
	if !got.Cash().Equal(l.Cash()) {
		t.Errorf("Cash() = %v, want %v", got.Cash(), l.Cash())
	}
	if !reflect.DeepEqual(got.Positions(), l.Positions()) {
		t.Errorf("Positions() = %v, want %v", got.Positions(), l.Positions())
	}
	if len(got.Trades()) != 0 {
		t.Errorf("restored ledger has %d trades, want a fresh log", len(got.Trades()))
	}
}

func TestLedger_Execute(t *testing.T) {
	on := date.MustParse("2025-06-30")
	l := NewLedger(USD(100))

	_, err := l.Execute(Order{On: on, Side: Buy, Ticker: "X", Shares: Q(6), Price: USD(5.77), StopLoss: USD(4.9)})
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Execute() error = %v, want ErrNotConfirmed", err)
	}
	if !l.Cash().Equal(USD(100)) {
		t.Fatalf("unconfirmed order mutated the ledger")
	}

	trade, err := l.Execute(Order{On: on, Side: Buy, Ticker: "X", Shares: Q(6), Price: USD(5.77), StopLoss: USD(4.9), Memo: "conviction", Confirmed: true})
	if err != nil {
		t.Fatalf("Execute(buy) error = %v", err)
	}
	if trade.Label() != "MANUAL_BUY - conviction" || l.Trades()[0].Memo != "conviction" {
		t.Errorf("memo not recorded: %q", trade.Label())
	}

	// zero shares sells the whole position
	trade, err = l.Execute(Order{On: on, Side: Sell, Ticker: "X", Price: USD(6), Confirmed: true})
	if err != nil {
		t.Fatalf("Execute(sell) error = %v", err)
	}
	if !trade.Shares.Equal(Q(6)) || trade.Reason != ManualSell {
		t.Errorf("trade = %+v, want MANUAL_SELL of 6", trade)
	}
	if len(l.Positions()) != 0 {
		t.Errorf("position still open after selling all")
	}

	_, err = l.Execute(Order{On: on, Side: Sell, Ticker: "X", Price: USD(6), Confirmed: true})
	var unknown *UnknownTickerError
	if !errors.As(err, &unknown) {
		t.Errorf("Execute() error = %v, want UnknownTickerError", err)
	}
}
