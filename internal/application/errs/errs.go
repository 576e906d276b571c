package errs

import (
	"fmt"

	"github.com/sitepilot/crm-backend/internal/application/consts"
)

type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidStateError carries the order's current status so callers can react
// to it, e.g. tell apart "already generating" from "not paid yet".
type InvalidStateError struct {
	OrderID   uint64
	Current   consts.OrderStatus
	Requested consts.OrderStatus
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("order %d: illegal transition %s -> %s", e.OrderID, e.Current, e.Requested)
}

type RetryableError struct {
	Err error
}

func (e RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", e.Err)
}
