package api

import (
	"fmt"
)

// Error is a structured backend rejection: the user-facing message the
// backend sent, and for stock conflicts the revised purchasable ceiling.
type Error struct {
	StatusCode int
	Message    string
	Stock      *int32
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend rejected request with status code=%d", e.StatusCode)
}

// StockCeiling reports the revised stock ceiling carried by err, if any.
func StockCeiling(err error) (int32, bool) {
	apiErr, ok := AsError(err)
	if !ok || apiErr.Stock == nil {
		return 0, false
	}
	return *apiErr.Stock, true
}
