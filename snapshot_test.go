package microcap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/etnz/microcap/date"
)

func TestStopLossTriggered(t *testing.T) {
	testCases := []struct {
		name  string
		price float64
		stop  float64
		want  bool
	}{
		{name: "above", price: 5.00, stop: 4.90, want: false},
		{name: "equal triggers", price: 4.90, stop: 4.90, want: true},
		{name: "below", price: 4.85, stop: 4.90, want: true},
		{name: "no stop", price: 0.01, stop: 0, want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger(USD(100))
			mustBuy(l, "2025-06-27", "X", 1, 5.77, tc.stop)
			got := StopLossTriggered(l.MarkToMarket(map[string]Money{"X": USD(tc.price)}))
			if (len(got) == 1) != tc.want {
				t.Errorf("StopLossTriggered() = %v, want triggered=%v", got, tc.want)
			}
		})
	}

	t.Run("unpriced never triggers", func(t *testing.T) {
		l := NewLedger(USD(100))
		mustBuy(l, "2025-06-27", "X", 1, 5.77, 4.90)
		if got := StopLossTriggered(l.MarkToMarket(nil)); len(got) != 0 {
			t.Errorf("StopLossTriggered() = %v, want none", got)
		}
	})
}

func TestBuildSnapshot_Hold(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	d1 := date.MustParse("2025-06-30")

	snap, sold, err := BuildSnapshot(d1, l, l.MarkToMarket(map[string]Money{"X": USD(6.00)}))
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(sold) != 0 {
		t.Errorf("sold = %v, want none", sold)
	}
	row, ok := snap.Row("X")
	if !ok || row.Action != Hold {
		t.Fatalf("row X = %+v, want HOLD", row)
	}
	want := Total{Value: USD(36), PnL: USD(1.38), Cash: USD(65.38), Equity: USD(101.38)}
	if !snap.Total.Value.Equal(want.Value) || !snap.Total.PnL.Equal(want.PnL) ||
		!snap.Total.Cash.Equal(want.Cash) || !snap.Total.Equity.Equal(want.Equity) {
		t.Errorf("Total = %+v, want %+v", snap.Total, want)
	}
	if err := snap.Check(); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestBuildSnapshot_StopLoss(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	mustBuy(l, "2025-06-27", "Y", 1, 10, 8)
	d2 := date.MustParse("2025-07-01")
	cashBefore := l.Cash()

	snap, sold, err := BuildSnapshot(d2, l, l.MarkToMarket(map[string]Money{"X": USD(4.85), "Y": USD(11)}))
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(sold) != 1 || sold[0].Ticker != "X" || sold[0].Reason != StopLossSell || !sold[0].Price.Equal(USD(4.85)) {
		t.Fatalf("sold = %+v, want one STOP_LOSS_SELL of X at $4.85", sold)
	}
	if want := cashBefore.Add(USD(4.85).Mul(Q(6))); !l.Cash().Equal(want) {
		t.Errorf("Cash() = %v, want %v", l.Cash(), want)
	}
	if _, ok := l.Position("X"); ok {
		t.Errorf("X still open after stop loss")
	}
	row, _ := snap.Row("X")
	if row.Action != StopLoss {
		t.Errorf("row X action = %q, want %q", row.Action, StopLoss)
	}
	if !snap.Total.Value.Equal(USD(11)) {
		t.Errorf("Total.Value = %v, want $11.00 (X excluded)", snap.Total.Value)
	}
	if !snap.Total.Cash.Equal(l.Cash()) || !snap.Total.Equity.Equal(l.Cash().Add(USD(11))) {
		t.Errorf("Total = %+v, not reconciled with the ledger", snap.Total)
	}
	if err := snap.Check(); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestBuildSnapshot_FailedStopLossLeavesLedger(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	mustBuy(l, "2025-06-27", "Y", 1, 10, 8)
	cashBefore := l.Cash()

	// X is sold first, then the zero price of Y cannot be sold
	_, _, err := BuildSnapshot(date.MustParse("2025-07-01"), l, l.MarkToMarket(map[string]Money{"X": USD(4.85), "Y": USD(0)}))
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("BuildSnapshot() error = %v, want ErrInvalidOrder", err)
	}
	if !l.Cash().Equal(cashBefore) || len(l.Tickers()) != 2 || len(l.Trades()) != 2 {
		t.Errorf("ledger changed by a failed snapshot: cash %v, tickers %v", l.Cash(), l.Tickers())
	}
}

func TestBuildSnapshot_NoData(t *testing.T) {
	l := NewLedger(USD(100))
	mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
	mustBuy(l, "2025-06-27", "Y", 1, 10, 8)

	snap, _, err := BuildSnapshot(date.MustParse("2025-06-30"), l, l.MarkToMarket(map[string]Money{"Y": USD(9)}))
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	row, _ := snap.Row("X")
	if row.Action != NoData || row.Priced {
		t.Errorf("row X = %+v, want unpriced NO DATA", row)
	}
	if !snap.Total.Value.Equal(USD(9)) {
		t.Errorf("Total.Value = %v, want $9.00", snap.Total.Value)
	}
	if _, ok := l.Position("X"); !ok {
		t.Errorf("NO DATA position must stay open")
	}
}

func TestHistory_ReplaceIsIdempotent(t *testing.T) {
	build := func() Snapshot {
		l := NewLedger(USD(100))
		mustBuy(l, "2025-06-27", "X", 6, 5.77, 4.90)
		s, _, err := BuildSnapshot(date.MustParse("2025-06-30"), l, l.MarkToMarket(map[string]Money{"X": USD(6)}))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	h := NewHistory()
	h.Replace(build())
	first := h.Snapshots()
	h.Replace(build())
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	if !reflect.DeepEqual(h.Snapshots(), first) {
		t.Errorf("re-run changed the snapshot:\n got %+v\nwant %+v", h.Snapshots(), first)
	}
}

func TestHistory_EquitySeries(t *testing.T) {
	h := NewHistory(
		Snapshot{Date: date.MustParse("2025-07-01"), Total: Total{Equity: USD(99)}},
		Snapshot{Date: date.MustParse("2025-06-30"), Total: Total{Equity: USD(101.38)}},
	)
	got := h.EquitySeries(USD(100))
	want := EquitySeries{
		{Date: date.MustParse("2025-06-27"), Equity: USD(100)}, // friday before
		{Date: date.MustParse("2025-06-30"), Equity: USD(101.38)},
		{Date: date.MustParse("2025-07-01"), Equity: USD(99)},
	}
	if len(got) != len(want) {
		t.Fatalf("EquitySeries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Date != want[i].Date || !got[i].Equity.Equal(want[i].Equity) {
			t.Errorf("EquitySeries()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := h.Baseline(date.MustParse("2025-07-02")); got != date.MustParse("2025-06-27") {
		t.Errorf("Baseline() = %v, want 2025-06-27", got)
	}
}

func TestReplayableTrades(t *testing.T) {
	on := date.MustParse("2025-07-01")
	trades := []Trade{
		{Date: date.MustParse("2025-06-27"), Ticker: "X", Reason: ManualBuy},
		{Date: date.MustParse("2025-06-30"), Ticker: "Y", Reason: StopLossSell},
		{Date: on, Ticker: "Z", Reason: ManualBuy},
		{Date: on, Ticker: "X", Reason: StopLossSell},
		{Date: on, Ticker: "X", Reason: ManualBuy},
		{Date: date.MustParse("2025-07-02"), Ticker: "W", Reason: ManualBuy},
	}
	tickers := func(trades []Trade) []string {
		var res []string
		for _, tr := range trades {
			res = append(res, tr.Ticker)
		}
		return res
	}
	before, after := ReplayableTrades(trades, on)
	if want := []string{"X", "Y", "Z"}; !reflect.DeepEqual(tickers(before), want) {
		t.Errorf("ReplayableTrades() before = %v, want %v", tickers(before), want)
	}
	if want := []string{"X"}; !reflect.DeepEqual(tickers(after), want) {
		t.Errorf("ReplayableTrades() after = %v, want %v", tickers(after), want)
	}

	// a day not run yet has all its manual trades before
	before, after = ReplayableTrades(trades[:3], on)
	if len(before) != 3 || len(after) != 0 {
		t.Errorf("ReplayableTrades() = %v / %v, want every trade before", tickers(before), tickers(after))
	}

	fresh := NewTrades(trades[:2], []Trade{trades[1], trades[3]})
	if len(fresh) != 1 || fresh[0].Ticker != "X" {
		t.Errorf("NewTrades() = %v, want only the X stop loss", fresh)
	}
}
