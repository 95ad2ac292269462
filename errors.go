package microcap

import (
	"errors"
	"fmt"

	"github.com/etnz/microcap/date"
)

// ErrInvalidOrder is returned for orders with missing or out-of-range fields.
var ErrInvalidOrder = errors.New("invalid order")

// ErrNotConfirmed is returned when a manual order is executed without confirmation.
var ErrNotConfirmed = errors.New("order not confirmed")

// InsufficientCashError is returned when a buy costs more than the available cash.
type InsufficientCashError struct {
	Ticker    string
	Required  Money
	Available Money
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("cannot buy %s: it costs %v but only %v is available", e.Ticker, e.Required, e.Available)
}

// DuplicatePositionError is returned when buying a ticker that is already held.
type DuplicatePositionError struct {
	Ticker string
}

func (e *DuplicatePositionError) Error() string {
	return fmt.Sprintf("position %s is already open", e.Ticker)
}

// UnknownTickerError is returned when selling a ticker that is not held.
type UnknownTickerError struct {
	Ticker string
}

func (e *UnknownTickerError) Error() string {
	return fmt.Sprintf("could not find %s in portfolio", e.Ticker)
}

// OversellError is returned when selling more shares than held.
type OversellError struct {
	Ticker    string
	Requested Quantity
	Held      Quantity
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("cannot sell %v of %s, position is only %v", e.Requested, e.Ticker, e.Held)
}

// NoDataError is returned when the price feed has nothing for a ticker on a date.
type NoDataError struct {
	Ticker string
	On     date.Date
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data for %s on %v", e.Ticker, e.On)
}

// DegenerateSeriesError is returned when a metric is undefined for an equity series.
type DegenerateSeriesError struct {
	Metric string
	Reason string
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("%s is undefined: %s", e.Metric, e.Reason)
}

// ProviderUnavailableError is returned when a price feed or a text generation
// provider cannot be reached or fails.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
