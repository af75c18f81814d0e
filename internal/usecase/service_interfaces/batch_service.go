package service_interfaces

import (
	"context"

	"github.com/walletmesh/multiwallet/internal/domain"
)

type BatchService interface {
	// Execute runs the ordered operations under the requested mode. In
	// all-or-nothing mode the returned error is a *BatchOperationError
	// when any item failed; in partial-success mode item errors are
	// reported only through the result.
	Execute(ctx context.Context, ops []domain.BatchOperation, mode domain.BatchMode) (domain.BatchResult, error)
}
