package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/etnz/microcap"
	"github.com/etnz/microcap/date"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores the history and the trade log in a SQLite database.
type SQLite struct {
	db       *sql.DB
	currency string
}

// NewSQLite opens or creates the database at path.
func NewSQLite(path, currency string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema in %s: %w", path, err)
	}
	return &SQLite{db: db, currency: currency}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// scanner is a *sql.Row or *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func (s *SQLite) parse(dst *microcap.Money, v string) error {
	m, err := optMoney(v, s.currency)
	*dst = m
	return err
}

// History implements microcap.Store.
func (s *SQLite) History(ctx context.Context) (*microcap.History, error) {
	totals := make(map[string]microcap.Total)
	rows, err := s.db.QueryContext(ctx, `SELECT date, value, pnl, cash, equity FROM snapshot_totals`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var d, value, pnl, cash, equity string
		if err := rows.Scan(&d, &value, &pnl, &cash, &equity); err != nil {
			rows.Close()
			return nil, err
		}
		var t microcap.Total
		for _, f := range []struct {
			dst *microcap.Money
			v   string
		}{{&t.Value, value}, {&t.PnL, pnl}, {&t.Cash, cash}, {&t.Equity, equity}} {
			if err := s.parse(f.dst, f.v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("total of %s: %w", d, err)
			}
		}
		totals[d] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snaps := make(map[string]*microcap.Snapshot, len(totals))
	for d, t := range totals {
		day, err := date.Parse(d)
		if err != nil {
			return nil, err
		}
		snaps[d] = &microcap.Snapshot{Date: day, Total: t}
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT date, ticker, shares, buy_price, cost_basis, stop_loss, priced, price, value, pnl, action
		FROM snapshot_rows ORDER BY date, pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		d, row, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		snap, ok := snaps[d]
		if !ok {
			return nil, fmt.Errorf("snapshot %s has rows but no total", d)
		}
		snap.Rows = append(snap.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	h := microcap.NewHistory()
	for _, snap := range snaps {
		h.Replace(*snap)
	}
	return h, nil
}

func (s *SQLite) scanRow(sc scanner) (string, microcap.Row, error) {
	var (
		d, shares, buy, cost, stop, action string
		price, value, pnl                  sql.NullString
		row                                microcap.Row
	)
	if err := sc.Scan(&d, &row.Ticker, &shares, &buy, &cost, &stop, &row.Priced, &price, &value, &pnl, &action); err != nil {
		return "", row, err
	}
	var err error
	if row.Shares, err = microcap.ParseQuantity(shares); err != nil {
		return d, row, err
	}
	if row.Action, err = microcap.ParseAction(action); err != nil {
		return d, row, err
	}
	for _, f := range []struct {
		dst *microcap.Money
		v   string
	}{{&row.BuyPrice, buy}, {&row.CostBasis, cost}, {&row.StopLoss, stop}} {
		if err := s.parse(f.dst, f.v); err != nil {
			return d, row, err
		}
	}
	if !row.Priced {
		return d, row, nil
	}
	for _, f := range []struct {
		dst *microcap.Money
		v   sql.NullString
	}{{&row.Price, price}, {&row.Value, value}, {&row.PnL, pnl}} {
		if err := s.parse(f.dst, f.v.String); err != nil {
			return d, row, err
		}
	}
	return d, row, nil
}

func nullMoney(priced bool, m microcap.Money) sql.NullString {
	return sql.NullString{String: money(m), Valid: priced}
}

// ReplaceSnapshot implements microcap.Store. Rows of s.Date are deleted and
// inserted in a single transaction.
func (s *SQLite) ReplaceSnapshot(ctx context.Context, snap microcap.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	d := snap.Date.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_rows WHERE date = ?`, d); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_totals WHERE date = ?`, d); err != nil {
		return err
	}
	for i, r := range snap.Rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_rows
			(date, pos, ticker, shares, buy_price, cost_basis, stop_loss, priced, price, value, pnl, action)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d, i, r.Ticker, r.Shares.String(), money(r.BuyPrice), money(r.CostBasis), money(r.StopLoss),
			r.Priced, nullMoney(r.Priced, r.Price), nullMoney(r.Priced, r.Value), nullMoney(r.Priced, r.PnL), string(r.Action),
		)
		if err != nil {
			return fmt.Errorf("cannot insert %s %s: %w", d, r.Ticker, err)
		}
	}
	t := snap.Total
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_totals (date, value, pnl, cash, equity) VALUES (?, ?, ?, ?, ?)`,
		d, money(t.Value), money(t.PnL), money(t.Cash), money(t.Equity),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Trades implements microcap.Store.
func (s *SQLite) Trades(ctx context.Context) ([]microcap.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ticker, reason, memo, shares, price, cost_basis, realized_pnl, stop_loss
		FROM trades ORDER BY trade_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []microcap.Trade
	for rows.Next() {
		var (
			t                                         microcap.Trade
			d, reason, shares, price, cost, pnl, stop string
		)
		if err := rows.Scan(&d, &t.Ticker, &reason, &t.Memo, &shares, &price, &cost, &pnl, &stop); err != nil {
			return nil, err
		}
		if t.Date, err = date.Parse(d); err != nil {
			return nil, err
		}
		if t.Reason, err = microcap.ParseReason(reason); err != nil {
			return nil, err
		}
		if t.Shares, err = microcap.ParseQuantity(shares); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			dst *microcap.Money
			v   string
		}{{&t.Price, price}, {&t.CostBasis, cost}, {&t.RealizedPnL, pnl}, {&t.StopLoss, stop}} {
			if err := s.parse(f.dst, f.v); err != nil {
				return nil, err
			}
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// AppendTrades implements microcap.Store.
func (s *SQLite) AppendTrades(ctx context.Context, trades ...microcap.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades
			(trade_id, date, ticker, reason, memo, shares, price, cost_basis, realized_pnl, stop_loss)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newID(), t.Date.String(), t.Ticker, t.Reason.String(), t.Memo, t.Shares.String(),
			money(t.Price), money(t.CostBasis), money(t.RealizedPnL), money(t.StopLoss),
		)
		if err != nil {
			return fmt.Errorf("cannot insert trade %s %s: %w", t.Reason, t.Ticker, err)
		}
	}
	return tx.Commit()
}
