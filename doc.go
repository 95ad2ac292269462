// Package microcap tracks a small equity portfolio over daily trading
// sessions.
//
// The core functionalities include:
//   - Ledger: cash and open positions, mutated by buy and sell trades that are
//     validated before any change so a failed operation leaves the ledger
//     untouched. Every executed trade is appended to a TradeLog.
//   - Stop-loss monitor: a position is force-sold when its current price falls
//     to or below its stop-loss threshold.
//   - Daily snapshot: one row per held ticker plus a TOTAL row reconciling cash,
//     positions value and equity for a given date. Snapshots replace any
//     previous snapshot of the same date.
//   - Metrics engine: total return, annualized volatility, Sharpe and Sortino
//     ratios and maximum drawdown computed from the equity series of the
//     snapshot history, and from a benchmark index normalized to the same
//     initial cash.
//
// Market data, text generation and persistence are reached through the
// PriceFeed and Store interfaces; implementations live in the eodhd, analyst
// and store packages. Every operation takes an explicit date, there is no
// ambient "today".
package microcap
