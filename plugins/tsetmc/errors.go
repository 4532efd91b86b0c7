package tsetmc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCached means the symbol has not been returned by a search in this process
	ErrNotCached = errors.New("symbol not found in cache")
	// ErrNoData means upstream answered but without the expected payload
	ErrNoData = errors.New("no data returned by upstream")
	// ErrRequestFailed wraps transport level failures
	ErrRequestFailed = errors.New("request to upstream failed")
	// ErrInvalidResponse wraps bodies that are not valid JSON
	ErrInvalidResponse = errors.New("invalid upstream response")
)

// StatusError is returned when upstream answers with a non-200 status
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch data: status %d", e.StatusCode)
}
