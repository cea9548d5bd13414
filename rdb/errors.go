package rdb

import (
	"fmt"
	"github.com/go-errors/errors"
)

type PolicyNotFoundError struct {
	ChanId ChanId
}

func (err PolicyNotFoundError) Error() string {
	return fmt.Sprintf("No routing policy found for channel %v", err.ChanId)
}

type TemporaryChannelFailureError struct {
	ChanId  ChanId
	AmtMsat int64
}

func (err TemporaryChannelFailureError) Error() string {
	return fmt.Sprintf("Temporary channel failure occurred for channel %v", err.ChanId)
}

type FeeInsufficientError struct {
	ChanId ChanId
}

func (err FeeInsufficientError) Error() string {
	return fmt.Sprintf("Insufficient fee for channel %v", err.ChanId)
}

type ExpiryTooSoonError struct {
	ChanId ChanId
}

func (err ExpiryTooSoonError) Error() string {
	return fmt.Sprintf("Expiry too soon for channel %v", err.ChanId)
}

// InvoiceAlreadyPaidError is reported when a payment hash was settled by
// an earlier attempt.
var InvoiceAlreadyPaidError = errors.New("Invoice is already paid")
