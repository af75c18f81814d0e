package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrInvalidBalanceType = errors.New("invalid balance type")
var ErrWalletNotFound = errors.New("wallet not found")
var ErrTransferNotFound = errors.New("transfer not found")
var ErrEntryNotFound = errors.New("ledger entry not found")
var ErrInvalidAmount = errors.New("invalid amount")
var ErrDuplicateWallet = errors.New("duplicate wallet")
var ErrBatchSizeExceeded = errors.New("batch size exceeded")
var ErrInvalidStatusTransition = errors.New("invalid transfer status transition")
var ErrWalletNotEmpty = errors.New("wallet balance must be zero")
var ErrConcurrentUpdate = errors.New("wallet was modified concurrently")
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// BatchItemError ties a per-item failure to its position in the batch.
type BatchItemError struct {
	Index int
	Err   error
}

func (e BatchItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e BatchItemError) Unwrap() error {
	return e.Err
}

// BatchOperationError aggregates every per-item failure of one batch run.
type BatchOperationError struct {
	Items []BatchItemError
}

func (e *BatchOperationError) Error() string {
	if len(e.Items) == 0 {
		return "batch operation failed"
	}
	msgs := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		msgs = append(msgs, item.Error())
	}
	return "batch operation failed: " + strings.Join(msgs, "; ")
}
