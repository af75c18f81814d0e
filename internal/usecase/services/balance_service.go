package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/events"
	"github.com/walletmesh/multiwallet/internal/logger"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
)

// Verify that BalanceService implements the service_interfaces.BalanceService interface
var _ service_interfaces.BalanceService = (*BalanceService)(nil)

// Operation markers written to entry meta by the derived operations.
const (
	opMoveToPending  = "moved_to_pending"
	opConfirmPending = "confirmed_pending"
	opCancelPending  = "canceled_pending"
	opFreeze         = "frozen"
	opUnfreeze       = "unfrozen"
	opAddTrial       = "added_trial"
	opConvertTrial   = "converted_trial"
)

// BalanceService is the balance mutator. Every primitive operation runs
// inside one atomic scope: lock the wallet row, adjust the bucket,
// append the matching ledger entry, persist the wallet. Notifications
// are published only after the scope commits.
type BalanceService struct {
	walletRepo repo_interfaces.WalletRepository
	entryRepo  repo_interfaces.EntryRepository
	uow        repo_interfaces.UnitOfWork
	cfg        config.Config
	sink       events.Sink
}

func NewBalanceService(
	walletRepo repo_interfaces.WalletRepository,
	entryRepo repo_interfaces.EntryRepository,
	uow repo_interfaces.UnitOfWork,
	cfg config.Config,
	sink events.Sink,
) *BalanceService {
	return &BalanceService{
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		uow:        uow,
		cfg:        cfg,
		sink:       sink,
	}
}

func (s *BalanceService) Credit(ctx context.Context, walletID string, amount decimal.Decimal, bucket domain.BalanceType, meta map[string]string) (domain.LedgerEntry, error) {
	return s.mutate(ctx, walletID, domain.EntryCredit, amount, bucket, meta, "credit")
}

func (s *BalanceService) Debit(ctx context.Context, walletID string, amount decimal.Decimal, bucket domain.BalanceType, meta map[string]string) (domain.LedgerEntry, error) {
	return s.mutate(ctx, walletID, domain.EntryDebit, amount, bucket, meta, "debit")
}

func (s *BalanceService) MoveToPending(ctx context.Context, walletID string, amount decimal.Decimal) error {
	_, err := s.pairMove(ctx, walletID, domain.BalanceAvailable, domain.BalancePending, amount, opMoveToPending, false)
	return err
}

func (s *BalanceService) ConfirmPending(ctx context.Context, walletID string, amount decimal.Decimal) (bool, error) {
	return s.pairMove(ctx, walletID, domain.BalancePending, domain.BalanceAvailable, amount, opConfirmPending, true)
}

func (s *BalanceService) CancelPending(ctx context.Context, walletID string, amount decimal.Decimal) error {
	_, err := s.pairMove(ctx, walletID, domain.BalancePending, domain.BalanceAvailable, amount, opCancelPending, false)
	return err
}

func (s *BalanceService) Freeze(ctx context.Context, walletID string, amount decimal.Decimal) error {
	if _, err := s.pairMove(ctx, walletID, domain.BalanceAvailable, domain.BalanceFrozen, amount, opFreeze, false); err != nil {
		return err
	}
	events.Publish(ctx, s.sink, events.WalletFrozen{
		WalletID:   walletID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *BalanceService) Unfreeze(ctx context.Context, walletID string, amount decimal.Decimal) error {
	if _, err := s.pairMove(ctx, walletID, domain.BalanceFrozen, domain.BalanceAvailable, amount, opUnfreeze, false); err != nil {
		return err
	}
	events.Publish(ctx, s.sink, events.WalletUnfrozen{
		WalletID:   walletID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *BalanceService) AddTrialBalance(ctx context.Context, walletID string, amount decimal.Decimal) (domain.LedgerEntry, error) {
	return s.mutate(ctx, walletID, domain.EntryCredit, amount, domain.BalanceTrial, map[string]string{
		domain.MetaOperation: opAddTrial,
	}, opAddTrial)
}

func (s *BalanceService) ConvertTrialToAvailable(ctx context.Context, walletID string, amount decimal.Decimal) (bool, error) {
	return s.pairMove(ctx, walletID, domain.BalanceTrial, domain.BalanceAvailable, amount, opConvertTrial, true)
}

// mutate performs a single credit or debit as one atomic scope.
func (s *BalanceService) mutate(ctx context.Context, walletID string, entryType domain.EntryType, amount decimal.Decimal, bucket domain.BalanceType, meta map[string]string, reason string) (domain.LedgerEntry, error) {
	if err := s.validateAmount(amount); err != nil {
		return domain.LedgerEntry{}, err
	}
	if !bucket.Valid() {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %q", domain.ErrInvalidBalanceType, bucket)
	}

	var (
		entry   domain.LedgerEntry
		changed events.BalanceChanged
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
		if err != nil {
			return err
		}

		oldValue, err := wallet.BalanceFor(bucket)
		if err != nil {
			return err
		}

		if entryType == domain.EntryDebit {
			err = wallet.DebitBucket(bucket, amount)
		} else {
			err = wallet.CreditBucket(bucket, amount)
		}
		if err != nil {
			return err
		}

		entry, err = s.entryRepo.Create(ctx, domain.LedgerEntry{
			ID:        uuid.NewString(),
			WalletID:  wallet.ID,
			Payer:     wallet.Holder,
			Type:      entryType,
			Amount:    amount,
			Bucket:    bucket,
			Confirmed: true,
			Meta:      meta,
		})
		if err != nil {
			return err
		}

		if _, err := s.walletRepo.Save(ctx, wallet); err != nil {
			return err
		}

		newValue, _ := wallet.BalanceFor(bucket)
		changed = events.BalanceChanged{
			WalletID:   wallet.ID,
			Bucket:     bucket,
			OldValue:   oldValue,
			NewValue:   newValue,
			Delta:      newValue.Sub(oldValue),
			Reason:     reason,
			OccurredAt: time.Now().UTC(),
		}

		return nil
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	events.Publish(ctx, s.sink, changed)

	return entry, nil
}

// pairMove debits one bucket and credits another as a single logical
// unit. With tolerateShortfall the move degrades to a (false, nil) no-op
// when the source bucket cannot cover the amount.
func (s *BalanceService) pairMove(ctx context.Context, walletID string, from, to domain.BalanceType, amount decimal.Decimal, operation string, tolerateShortfall bool) (bool, error) {
	if err := s.validateAmount(amount); err != nil {
		return false, err
	}

	var (
		moved   bool
		emitted []events.Event
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, walletID)
		if err != nil {
			return err
		}

		sourceValue, err := wallet.BalanceFor(from)
		if err != nil {
			return err
		}
		if sourceValue.LessThan(amount) && tolerateShortfall {
			return nil
		}

		destValue, err := wallet.BalanceFor(to)
		if err != nil {
			return err
		}

		if err := wallet.DebitBucket(from, amount); err != nil {
			return err
		}
		if err := wallet.CreditBucket(to, amount); err != nil {
			return err
		}

		meta := map[string]string{domain.MetaOperation: operation}
		for _, leg := range []struct {
			entryType domain.EntryType
			bucket    domain.BalanceType
		}{
			{domain.EntryDebit, from},
			{domain.EntryCredit, to},
		} {
			if _, err := s.entryRepo.Create(ctx, domain.LedgerEntry{
				ID:        uuid.NewString(),
				WalletID:  wallet.ID,
				Payer:     wallet.Holder,
				Type:      leg.entryType,
				Amount:    amount,
				Bucket:    leg.bucket,
				Confirmed: true,
				Meta:      meta,
			}); err != nil {
				return err
			}
		}

		if _, err := s.walletRepo.Save(ctx, wallet); err != nil {
			return err
		}

		now := time.Now().UTC()
		emitted = append(emitted,
			events.BalanceChanged{
				WalletID:   wallet.ID,
				Bucket:     from,
				OldValue:   sourceValue,
				NewValue:   sourceValue.Sub(amount),
				Delta:      amount.Neg(),
				Reason:     operation,
				OccurredAt: now,
			},
			events.BalanceChanged{
				WalletID:   wallet.ID,
				Bucket:     to,
				OldValue:   destValue,
				NewValue:   destValue.Add(amount),
				Delta:      amount,
				Reason:     operation,
				OccurredAt: now,
			},
		)

		moved = true
		return nil
	})
	if err != nil {
		logger.Error("balance service pair move failed", err, logger.Fields{
			"walletId":  walletID,
			"operation": operation,
		})
		return false, err
	}

	for _, event := range emitted {
		events.Publish(ctx, s.sink, event)
	}

	return moved, nil
}

func (s *BalanceService) validateAmount(amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}
	if amount.LessThan(s.cfg.MinTransactionAmount) {
		return fmt.Errorf("%w: amount %s is below the configured minimum %s",
			domain.ErrInvalidAmount, amount, s.cfg.MinTransactionAmount)
	}
	if s.cfg.MaxTransactionAmount.IsPositive() && amount.GreaterThan(s.cfg.MaxTransactionAmount) {
		return fmt.Errorf("%w: amount %s exceeds the configured maximum %s",
			domain.ErrInvalidAmount, amount, s.cfg.MaxTransactionAmount)
	}
	return nil
}
