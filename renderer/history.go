package renderer

import (
	"bytes"
	"strconv"

	"github.com/etnz/microcap"
	md "github.com/nao1215/markdown"
)

// HistoryMarkdown renders the TOTAL rows of the last tail snapshots, all of
// them if tail is not positive.
func HistoryMarkdown(h *microcap.History, tail int) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Equity History")

	snaps := h.Snapshots()
	if tail > 0 && len(snaps) > tail {
		snaps = snaps[len(snaps)-tail:]
	}
	if len(snaps) == 0 {
		doc.PlainText("No snapshot yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Positions", "Value", "PnL", "Cash", "Equity"},
		Rows:   [][]string{},
	}
	for _, s := range snaps {
		held := 0
		for _, r := range s.Rows {
			if r.Action != microcap.StopLoss {
				held++
			}
		}
		table.Rows = append(table.Rows, []string{
			s.Date.String(),
			strconv.Itoa(held),
			s.Total.Value.String(),
			s.Total.PnL.SignedString(),
			s.Total.Cash.String(),
			md.Bold(s.Total.Equity.String()),
		})
	}
	doc.Table(table)
	return doc.String()
}

// TradesMarkdown renders the trade log.
func TradesMarkdown(trades []microcap.Trade) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Trade Log")
	if len(trades) == 0 {
		doc.PlainText("No trade yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Date", "Ticker", "Reason", "Shares", "Price", "Cost Basis", "PnL", "Memo"},
		Rows:   [][]string{},
	}
	for _, t := range trades {
		pnl := "-"
		if !t.IsBuy() {
			pnl = t.RealizedPnL.SignedString()
		}
		table.Rows = append(table.Rows, []string{
			t.Date.String(),
			t.Ticker,
			t.Reason.String(),
			t.Shares.String(),
			t.Price.String(),
			t.CostBasis.String(),
			pnl,
			t.Memo,
		})
	}
	doc.Table(table)
	return doc.String()
}
