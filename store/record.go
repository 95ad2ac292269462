// Package store persists the ledger history and the trade log, either as
// the two CSV record streams or in a SQLite database.
package store

import (
	"fmt"
	"strings"

	"github.com/etnz/microcap"
)

// History columns, one row per ticker per date plus one TOTAL row per date.
var historyHeader = []string{
	"Date", "Ticker", "Shares", "Cost Basis", "Stop Loss", "Current Price",
	"Total Value", "PnL", "Action", "Cash Balance", "Total Equity",
}

// Trade log columns. Stop Loss is only set on buys.
var tradesHeader = []string{
	"Date", "Ticker", "Shares Bought", "Buy Price", "Shares Sold", "Sell Price",
	"Cost Basis", "PnL", "Reason", "Stop Loss",
}

// TotalTicker is the ticker of the aggregate row of a date.
const TotalTicker = "TOTAL"

// money formats an amount for a record stream.
func money(m microcap.Money) string { return m.Plain() }

// optMoney parses an optional amount, empty is zero.
func optMoney(s, cur string) (microcap.Money, error) {
	if strings.TrimSpace(s) == "" {
		return microcap.M(0, cur), nil
	}
	return microcap.ParseMoney(strings.TrimSpace(s), cur)
}

// parseReason parses a trade log reason. Besides the codes written by this
// package it understands the free text reasons of hand-kept logs, like
// "MANUAL BUY - New position" or "AUTOMATED SELL - STOPLOSS TRIGGERED".
func parseReason(s string) (microcap.Reason, string, error) {
	if r, memo, err := microcap.ParseLabel(s); err == nil {
		return r, memo, nil
	}
	code, memo, _ := strings.Cut(s, " - ")
	memo = strings.TrimSpace(memo)
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "MANUAL BUY":
		return microcap.ManualBuy, memo, nil
	case "MANUAL SELL":
		return microcap.ManualSell, memo, nil
	case "AUTOMATED SELL":
		return microcap.StopLossSell, "", nil
	}
	return 0, "", fmt.Errorf("unknown trade reason %q", s)
}
