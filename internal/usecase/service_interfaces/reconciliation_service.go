package service_interfaces

import (
	"context"

	"github.com/walletmesh/multiwallet/internal/domain"
)

type ReconciliationService interface {
	// ValidateIntegrity recomputes every bucket from the ledger history
	// and reports discrepancies. It never mutates state.
	ValidateIntegrity(ctx context.Context, walletID string) (domain.IntegrityReport, error)
	// Reconcile repairs stored balances from history inside one atomic
	// scope. Running it twice without new entries is a no-op the second
	// time.
	Reconcile(ctx context.Context, walletID string) (domain.ReconcileResult, error)
	ReconcileAll(ctx context.Context, walletIDs []string) ([]domain.ReconcileResult, error)
	// DetectAnomalies scores recent activity and returns advisory
	// findings without mutating state.
	DetectAnomalies(ctx context.Context, walletID string) ([]domain.Anomaly, error)
}
