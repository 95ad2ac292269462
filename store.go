package microcap

import "context"

// Store persists the ledger history and the trade log.
//
// Snapshots are replaced as a whole by date, trades are only appended.
type Store interface {
	// History returns every persisted snapshot.
	History(ctx context.Context) (*History, error)
	// ReplaceSnapshot stores s, replacing every row already stored for s.Date.
	ReplaceSnapshot(ctx context.Context, s Snapshot) error
	// Trades returns the trade log in execution order.
	Trades(ctx context.Context) ([]Trade, error)
	// AppendTrades appends trades at the end of the trade log.
	AppendTrades(ctx context.Context, trades ...Trade) error
	Close() error
}
