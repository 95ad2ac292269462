package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
)

// CSV stores the history and the trade log in two CSV files.
type CSV struct {
	historyPath string
	tradesPath  string
	currency    string
}

// NewCSV creates a CSV store. Files are created on first write.
func NewCSV(historyPath, tradesPath, currency string) *CSV {
	return &CSV{historyPath: historyPath, tradesPath: tradesPath, currency: currency}
}

func (c *CSV) Close() error { return nil }

// readAll reads a CSV file and returns its records with the columns of
// header, in that order. Columns are matched by name, so files written by hand
// or by older versions, with other column orders or missing columns, are
// accepted. A missing file has no records.
func readAll(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	head, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	index := make([]int, len(header))
	for i, name := range header {
		index[i] = slices.Index(head, name)
	}
	if index[0] < 0 || index[1] < 0 {
		return nil, fmt.Errorf("%s: unexpected header %q", path, head)
	}

	var res [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		row := make([]string, len(header))
		for i, j := range index {
			if j >= 0 && j < len(rec) {
				row[i] = strings.TrimSpace(rec[j])
			}
		}
		res = append(res, row)
	}
}

// History implements microcap.Store.
func (c *CSV) History(ctx context.Context) (*microcap.History, error) {
	records, err := readAll(c.historyPath, historyHeader)
	if err != nil {
		return nil, err
	}
	snaps := make(map[date.Date]*microcap.Snapshot)
	var order []date.Date
	for i, rec := range records {
		d, err := date.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", c.historyPath, i+2, err)
		}
		s, ok := snaps[d]
		if !ok {
			s = &microcap.Snapshot{Date: d}
			snaps[d] = s
			order = append(order, d)
		}
		if rec[1] == TotalTicker {
			s.Total, err = c.decodeTotal(rec)
		} else {
			var row microcap.Row
			row, err = c.decodeRow(rec)
			s.Rows = append(s.Rows, row)
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", c.historyPath, i+2, err)
		}
	}
	h := microcap.NewHistory()
	for _, d := range order {
		h.Replace(*snaps[d])
	}
	return h, nil
}

func (c *CSV) decodeRow(rec []string) (microcap.Row, error) {
	row := microcap.Row{Ticker: rec[1]}
	var err error
	if row.Shares, err = microcap.ParseQuantity(rec[2]); err != nil {
		return row, err
	}
	if row.CostBasis, err = optMoney(rec[3], c.currency); err != nil {
		return row, err
	}
	if row.StopLoss, err = optMoney(rec[4], c.currency); err != nil {
		return row, err
	}
	if row.Action, err = microcap.ParseAction(rec[8]); err != nil {
		return row, err
	}
	if row.Shares.IsPositive() {
		row.BuyPrice = row.CostBasis.Div(row.Shares)
	}
	if strings.TrimSpace(rec[5]) == "" {
		return row, nil // NO DATA keeps price, value and pnl unset
	}
	row.Priced = true
	if row.Price, err = optMoney(rec[5], c.currency); err != nil {
		return row, err
	}
	if row.Value, err = optMoney(rec[6], c.currency); err != nil {
		return row, err
	}
	row.PnL, err = optMoney(rec[7], c.currency)
	return row, err
}

func (c *CSV) decodeTotal(rec []string) (microcap.Total, error) {
	var (
		t   microcap.Total
		err error
	)
	if t.Value, err = optMoney(rec[6], c.currency); err != nil {
		return t, err
	}
	if t.PnL, err = optMoney(rec[7], c.currency); err != nil {
		return t, err
	}
	if t.Cash, err = optMoney(rec[9], c.currency); err != nil {
		return t, err
	}
	t.Equity, err = optMoney(rec[10], c.currency)
	return t, err
}

func encodeSnapshot(s microcap.Snapshot) [][]string {
	res := make([][]string, 0, len(s.Rows)+1)
	d := s.Date.String()
	for _, r := range s.Rows {
		rec := []string{d, r.Ticker, r.Shares.String(), money(r.CostBasis), money(r.StopLoss), "", "", "", string(r.Action), "", ""}
		if r.Priced {
			rec[5], rec[6], rec[7] = money(r.Price), money(r.Value), money(r.PnL)
		}
		res = append(res, rec)
	}
	t := s.Total
	res = append(res, []string{d, TotalTicker, "", "", "", "", money(t.Value), money(t.PnL), "", money(t.Cash), money(t.Equity)})
	return res
}

// ReplaceSnapshot implements microcap.Store. The file is rewritten with the
// rows of every other date followed by the rows of s.
func (c *CSV) ReplaceSnapshot(ctx context.Context, s microcap.Snapshot) error {
	records, err := readAll(c.historyPath, historyHeader)
	if err != nil {
		return err
	}
	day := s.Date.String()
	kept := make([][]string, 0, len(records)+len(s.Rows)+1)
	for _, rec := range records {
		if d, err := date.Parse(rec[0]); err == nil && d.String() == day {
			continue
		}
		kept = append(kept, rec)
	}
	kept = append(kept, encodeSnapshot(s)...)
	return writeAtomic(c.historyPath, historyHeader, kept)
}

// writeAtomic writes the file in a temporary file renamed over path.
func writeAtomic(path string, header []string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Write(header)
	w.WriteAll(records) // flushes
	if err := errors.Join(w.Error(), tmp.Close()); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// Trades implements microcap.Store.
func (c *CSV) Trades(ctx context.Context) ([]microcap.Trade, error) {
	records, err := readAll(c.tradesPath, tradesHeader)
	if err != nil {
		return nil, err
	}
	res := make([]microcap.Trade, 0, len(records))
	for i, rec := range records {
		t, err := c.decodeTrade(rec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", c.tradesPath, i+2, err)
		}
		res = append(res, t)
	}
	return res, nil
}

func (c *CSV) decodeTrade(rec []string) (microcap.Trade, error) {
	t := microcap.Trade{Ticker: rec[1]}
	var err error
	if t.Date, err = date.Parse(rec[0]); err != nil {
		return t, err
	}
	if t.Reason, t.Memo, err = parseReason(rec[8]); err != nil {
		return t, err
	}
	shares, price := rec[4], rec[5]
	if t.IsBuy() {
		shares, price = rec[2], rec[3]
	}
	if t.Shares, err = microcap.ParseQuantity(strings.TrimSpace(shares)); err != nil {
		return t, err
	}
	if t.Price, err = optMoney(price, c.currency); err != nil {
		return t, err
	}
	if t.CostBasis, err = optMoney(rec[6], c.currency); err != nil {
		return t, err
	}
	if t.RealizedPnL, err = optMoney(rec[7], c.currency); err != nil {
		return t, err
	}
	t.StopLoss, err = optMoney(rec[9], c.currency)
	return t, err
}

func encodeTrade(t microcap.Trade) []string {
	rec := []string{t.Date.String(), t.Ticker, "", "", "", "", money(t.CostBasis), money(t.RealizedPnL), t.Label(), ""}
	if t.IsBuy() {
		rec[2], rec[3], rec[9] = t.Shares.String(), money(t.Price), money(t.StopLoss)
	} else {
		rec[4], rec[5] = t.Shares.String(), money(t.Price)
	}
	return rec
}

// AppendTrades implements microcap.Store. Existing lines are never rewritten.
func (c *CSV) AppendTrades(ctx context.Context, trades ...microcap.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tradesPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.tradesPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		w.Write(tradesHeader)
	}
	for _, t := range trades {
		w.Write(encodeTrade(t))
	}
	w.Flush()
	return errors.Join(w.Error(), f.Close())
}
