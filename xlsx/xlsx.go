// Package xlsx exports the history, the trade log and the metrics to a
// spreadsheet.
package xlsx

import (
	"fmt"
	"io"
	"log"

	"github.com/etnz/microcap"
	"github.com/xuri/excelize/v2"
)

const (
	HistorySheet = "History"
	TradesSheet  = "Trades"
	MetricsSheet = "Metrics"
)

// Export writes a workbook with one sheet for the history, one for the trade
// log and one for the metrics. m may be nil when the metrics are not
// available yet.
func Export(w io.Writer, h *microcap.History, trades []microcap.Trade, m *microcap.Metrics) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("xlsx: cannot close workbook: %v", err)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
	})
	if err != nil {
		return err
	}

	// the default sheet becomes the history
	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return err
	}
	for _, s := range []string{TradesSheet, MetricsSheet} {
		if _, err := f.NewSheet(s); err != nil {
			return err
		}
	}

	if err := fillHistory(f, header, h); err != nil {
		return fmt.Errorf("history sheet: %w", err)
	}
	if err := fillTrades(f, header, trades); err != nil {
		return fmt.Errorf("trades sheet: %w", err)
	}
	if err := fillMetrics(f, header, m); err != nil {
		return fmt.Errorf("metrics sheet: %w", err)
	}
	return f.Write(w)
}

// setRow writes values on row (1-based) of sheet.
func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func setHeader(f *excelize.File, style int, sheet string, titles ...string) error {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// amount returns the float value of m, spreadsheets have no decimal type.
func amount(m microcap.Money) float64 { return m.AsFloat() }

func fillHistory(f *excelize.File, style int, h *microcap.History) error {
	err := setHeader(f, style, HistorySheet,
		"Date", "Ticker", "Shares", "Cost Basis", "Stop Loss", "Current Price",
		"Total Value", "PnL", "Action", "Cash Balance", "Total Equity")
	if err != nil {
		return err
	}
	row := 2
	for _, s := range h.Snapshots() {
		d := s.Date.String()
		for _, r := range s.Rows {
			values := []any{d, r.Ticker, r.Shares.AsFloat(), amount(r.CostBasis), amount(r.StopLoss), nil, nil, nil, string(r.Action)}
			if r.Priced {
				values[5], values[6], values[7] = amount(r.Price), amount(r.Value), amount(r.PnL)
			}
			if err := setRow(f, HistorySheet, row, values); err != nil {
				return err
			}
			row++
		}
		t := s.Total
		values := []any{d, "TOTAL", nil, nil, nil, nil, amount(t.Value), amount(t.PnL), nil, amount(t.Cash), amount(t.Equity)}
		if err := setRow(f, HistorySheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func fillTrades(f *excelize.File, style int, trades []microcap.Trade) error {
	err := setHeader(f, style, TradesSheet,
		"Date", "Ticker", "Reason", "Shares", "Price", "Cost Basis", "PnL", "Stop Loss", "Memo")
	if err != nil {
		return err
	}
	for i, t := range trades {
		values := []any{t.Date.String(), t.Ticker, t.Reason.String(), t.Shares.AsFloat(), amount(t.Price), amount(t.CostBasis), nil, nil, t.Memo}
		if t.IsBuy() {
			values[7] = amount(t.StopLoss)
		} else {
			values[6] = amount(t.RealizedPnL)
		}
		if err := setRow(f, TradesSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func fillMetrics(f *excelize.File, style int, m *microcap.Metrics) error {
	if err := setHeader(f, style, MetricsSheet, "Metric", "Value"); err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	ratio := func(r microcap.Ratio) any {
		if !r.Defined() {
			return r.String()
		}
		return r.Value
	}
	rows := [][]any{
		{"From", m.From.String()},
		{"To", m.To.String()},
		{"Trading Days", m.Days},
		{"Start Equity", amount(m.StartEquity)},
		{"End Equity", amount(m.EndEquity)},
		{"Total Return", m.TotalReturn},
		{"Risk-Free Return", m.RiskFreePeriod},
		{"Annualized Volatility", m.Volatility},
		{"Max Drawdown", m.MaxDrawdown},
		{"Max Drawdown Date", m.MaxDrawdownOn.String()},
		{"Sharpe Ratio", ratio(m.Sharpe)},
		{"Sortino Ratio", ratio(m.Sortino)},
	}
	for i, values := range rows {
		if err := setRow(f, MetricsSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}
