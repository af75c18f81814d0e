package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/events"
	"github.com/walletmesh/multiwallet/internal/logger"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
)

// Verify that ReconciliationService implements the service_interfaces.ReconciliationService interface
var _ service_interfaces.ReconciliationService = (*ReconciliationService)(nil)

// reconcileTolerance absorbs sub-precision noise when comparing stored
// buckets against recomputed values.
var reconcileTolerance = decimal.New(1, -domain.AmountPrecision)

// reconcileConcurrency caps the parallel wallet repairs in ReconcileAll.
const reconcileConcurrency = 8

// ReconciliationService recomputes bucket balances from the ledger
// history and repairs wallets that have drifted from it. The ledger is
// the source of truth; stored bucket values are treated as a cache.
type ReconciliationService struct {
	walletRepo repo_interfaces.WalletRepository
	entryRepo  repo_interfaces.EntryRepository
	uow        repo_interfaces.UnitOfWork
	cfg        config.Config
	sink       events.Sink
}

func NewReconciliationService(
	walletRepo repo_interfaces.WalletRepository,
	entryRepo repo_interfaces.EntryRepository,
	uow repo_interfaces.UnitOfWork,
	cfg config.Config,
	sink events.Sink,
) *ReconciliationService {
	return &ReconciliationService{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		uow:        uow,
		cfg:        cfg,
		sink:       sink,
	}
}

func (s *ReconciliationService) ValidateIntegrity(ctx context.Context, walletID string) (domain.IntegrityReport, error) {
	wallet, err := s.walletRepo.Get(ctx, walletID)
	if err != nil {
		return domain.IntegrityReport{}, err
	}

	computed, err := s.computeBuckets(ctx, walletID)
	if err != nil {
		return domain.IntegrityReport{}, err
	}

	report := domain.IntegrityReport{
		WalletID:  walletID,
		Valid:     true,
		CheckedAt: time.Now().UTC(),
	}

	for _, bucket := range domain.BalanceTypes() {
		stored, err := wallet.BalanceFor(bucket)
		if err != nil {
			return domain.IntegrityReport{}, err
		}
		want := computed[bucket]

		diff := stored.Sub(want)
		if diff.Abs().GreaterThan(reconcileTolerance) {
			report.Issues = append(report.Issues, domain.IntegrityIssue{
				Bucket:     bucket,
				Stored:     stored,
				Computed:   want,
				Difference: diff,
				Reason:     "stored balance diverges from ledger history",
			})
		}
		if stored.IsNegative() {
			report.Issues = append(report.Issues, domain.IntegrityIssue{
				Bucket:     bucket,
				Stored:     stored,
				Computed:   want,
				Difference: diff,
				Reason:     "stored balance is negative",
			})
		}
	}

	report.Valid = len(report.Issues) == 0
	return report, nil
}

func (s *ReconciliationService) Reconcile(ctx context.Context, walletID string) (domain.ReconcileResult, error) {
	report, err := s.ValidateIntegrity(ctx, walletID)
	if err != nil {
		return domain.ReconcileResult{}, err
	}

	result := domain.ReconcileResult{WalletID: walletID}
	if report.Valid {
		return result, nil
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
		if err != nil {
			return err
		}

		// Recompute under the lock so entries written since the
		// preliminary check are included.
		computed, err := s.computeBuckets(ctx, walletID)
		if err != nil {
			return err
		}

		for _, bucket := range domain.BalanceTypes() {
			stored, err := wallet.BalanceFor(bucket)
			if err != nil {
				return err
			}
			want := computed[bucket]
			if want.IsNegative() {
				// History that nets below zero is clamped; the
				// discrepancy stays visible in the ledger itself.
				want = decimal.Zero
			}
			if stored.Sub(want).Abs().LessThanOrEqual(reconcileTolerance) {
				continue
			}

			if err := wallet.SetBucket(bucket, want); err != nil {
				return err
			}
			result.Changes = append(result.Changes, domain.BucketCorrection{
				Bucket:   bucket,
				OldValue: stored,
				NewValue: want,
			})
		}

		if len(result.Changes) == 0 {
			return nil
		}

		_, err = s.walletRepo.Save(ctx, wallet)
		return err
	})
	if err != nil {
		logger.Error("reconciliation service repair failed", err, logger.Fields{
			"walletId": walletID,
		})
		return domain.ReconcileResult{}, err
	}

	result.Repaired = len(result.Changes) > 0
	if result.Repaired {
		logger.Info("reconciliation service repaired wallet", logger.Fields{
			"walletId": walletID,
			"changes":  len(result.Changes),
		})
	}
	return result, nil
}

func (s *ReconciliationService) ReconcileAll(ctx context.Context, walletIDs []string) ([]domain.ReconcileResult, error) {
	results := make([]domain.ReconcileResult, len(walletIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)

	for i, id := range walletIDs {
		i, id := i, id
		g.Go(func() error {
			result, err := s.Reconcile(ctx, id)
			if err != nil {
				return fmt.Errorf("wallet %s: %w", id, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *ReconciliationService) DetectAnomalies(ctx context.Context, walletID string) ([]domain.Anomaly, error) {
	since := time.Now().UTC().Add(-s.cfg.AnomalyWindow)
	entries, err := s.entryRepo.ListByWalletSince(ctx, walletID, since)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var anomalies []domain.Anomaly

	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}
	average := total.Div(decimal.NewFromInt(int64(len(entries))))
	threshold := average.Mul(s.cfg.AnomalyAmountMultiplier)

	if len(entries) > 1 {
		for _, entry := range entries {
			if entry.Amount.GreaterThan(threshold) {
				anomalies = append(anomalies, domain.Anomaly{
					WalletID: walletID,
					EntryID:  entry.ID,
					Severity: domain.SeverityMedium,
					Reason: fmt.Sprintf("amount %s exceeds %s times the recent average %s",
						entry.Amount, s.cfg.AnomalyAmountMultiplier, average),
					Amount: entry.Amount,
				})
			}
		}
	}

	if s.cfg.AnomalyMaxOperations > 0 && len(entries) > s.cfg.AnomalyMaxOperations {
		anomalies = append(anomalies, domain.Anomaly{
			WalletID: walletID,
			Severity: domain.SeverityHigh,
			Reason: fmt.Sprintf("%d operations within %s, limit is %d",
				len(entries), s.cfg.AnomalyWindow, s.cfg.AnomalyMaxOperations),
		})
	}

	for _, anomaly := range anomalies {
		events.Publish(ctx, s.sink, events.SuspiciousActivity{
			WalletID:   anomaly.WalletID,
			EntryID:    anomaly.EntryID,
			Severity:   anomaly.Severity,
			Reason:     anomaly.Reason,
			OccurredAt: time.Now().UTC(),
		})
	}

	return anomalies, nil
}

// computeBuckets folds the full non-deleted entry history into per-bucket
// totals.
func (s *ReconciliationService) computeBuckets(ctx context.Context, walletID string) (map[domain.BalanceType]decimal.Decimal, error) {
	entries, err := s.entryRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}

	computed := make(map[domain.BalanceType]decimal.Decimal, len(domain.BalanceTypes()))
	for _, bucket := range domain.BalanceTypes() {
		computed[bucket] = decimal.Zero
	}
	for _, entry := range entries {
		computed[entry.Bucket] = computed[entry.Bucket].Add(entry.SignedAmount())
	}
	return computed, nil
}
