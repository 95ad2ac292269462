package microcap

import (
	"slices"

	"github.com/etnz/microcap/date"
)

// History is the ordered list of daily snapshots, at most one per date.
type History struct {
	snapshots []Snapshot
}

// NewHistory creates a History from snapshots in any order. When several
// snapshots share a date the last one wins.
func NewHistory(snapshots ...Snapshot) *History {
	h := new(History)
	for _, s := range snapshots {
		h.Replace(s)
	}
	return h
}

// Replace inserts s, replacing any snapshot with the same date.
func (h *History) Replace(s Snapshot) {
	i, found := slices.BinarySearchFunc(h.snapshots, s.Date, func(e Snapshot, d date.Date) int {
		return e.Date.Compare(d)
	})
	if found {
		h.snapshots[i] = s
		return
	}
	h.snapshots = slices.Insert(h.snapshots, i, s)
}

// Len returns the number of trading days.
func (h *History) Len() int { return len(h.snapshots) }

// Snapshots returns the snapshots by increasing date.
func (h *History) Snapshots() []Snapshot { return slices.Clone(h.snapshots) }

// On returns the snapshot of day d.
func (h *History) On(d date.Date) (Snapshot, bool) {
	for _, s := range h.snapshots {
		if s.Date == d {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Latest returns the most recent snapshot.
func (h *History) Latest() (Snapshot, bool) {
	if len(h.snapshots) == 0 {
		return Snapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// First returns the date of the first trading day.
func (h *History) First() (date.Date, bool) {
	if len(h.snapshots) == 0 {
		return date.Date{}, false
	}
	return h.snapshots[0].Date, true
}

// Baseline returns the date of the synthetic baseline point: the weekday
// before the first trading day, or before on when there is no history yet.
func (h *History) Baseline(on date.Date) date.Date {
	if first, ok := h.First(); ok && !first.After(on) {
		return first.PreviousWeekday()
	}
	return on.PreviousWeekday()
}

// EquitySeries returns the TOTAL equity of every day, seeded with a baseline
// point holding the initial cash.
func (h *History) EquitySeries(initial Money) EquitySeries {
	if len(h.snapshots) == 0 {
		return nil
	}
	res := make(EquitySeries, 0, len(h.snapshots)+1)
	res = append(res, EquityPoint{Date: h.snapshots[0].Date.PreviousWeekday(), Equity: initial})
	for _, s := range h.snapshots {
		res = append(res, EquityPoint{Date: s.Date, Equity: s.Total.Equity})
	}
	return res
}
