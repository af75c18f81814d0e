package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/events"
	"github.com/walletmesh/multiwallet/internal/logger"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
)

// Verify that BatchService implements the service_interfaces.BatchService interface
var _ service_interfaces.BatchService = (*BatchService)(nil)

// BatchService executes an ordered list of operations against the other
// services, either atomically or with per-item isolation.
type BatchService struct {
	wallets   service_interfaces.WalletService
	balances  service_interfaces.BalanceService
	transfers service_interfaces.TransferService
	uow       repo_interfaces.UnitOfWork
	cfg       config.Config
	sink      events.Sink
}

func NewBatchService(
	wallets service_interfaces.WalletService,
	balances service_interfaces.BalanceService,
	transfers service_interfaces.TransferService,
	uow repo_interfaces.UnitOfWork,
	cfg config.Config,
	sink events.Sink,
) *BatchService {
	return &BatchService{
		wallets:   wallets,
		balances:  balances,
		transfers: transfers,
		uow:       uow,
		cfg:       cfg,
		sink:      sink,
	}
}

func (s *BatchService) Execute(ctx context.Context, ops []domain.BatchOperation, mode domain.BatchMode) (domain.BatchResult, error) {
	if !mode.Valid() {
		return domain.BatchResult{}, fmt.Errorf("unknown batch mode %q", mode)
	}
	if s.cfg.BatchSizeLimit > 0 && len(ops) > s.cfg.BatchSizeLimit {
		return domain.BatchResult{}, fmt.Errorf("%w: %d operations, limit is %d",
			domain.ErrBatchSizeExceeded, len(ops), s.cfg.BatchSizeLimit)
	}

	logger.Info("batch service execute", logger.Fields{
		"total": len(ops),
		"mode":  mode,
	})
	events.Publish(ctx, s.sink, events.BatchStarted{
		Total:      len(ops),
		Mode:       string(mode),
		OccurredAt: time.Now().UTC(),
	})

	result := domain.BatchResult{
		Total: len(ops),
		Mode:  mode,
	}

	var err error
	switch mode {
	case domain.BatchAllOrNothing:
		err = s.executeAtomic(ctx, ops, &result)
	case domain.BatchPartialSuccess:
		s.executeIndependent(ctx, ops, &result)
	}

	result.SuccessfulCount = len(result.Results)
	result.FailedCount = len(result.Errors)
	result.Success = len(result.Errors) == 0

	if result.Success {
		events.Publish(ctx, s.sink, events.BatchCompleted{
			Total:      result.Total,
			Mode:       string(mode),
			OccurredAt: time.Now().UTC(),
		})
	} else {
		events.Publish(ctx, s.sink, events.BatchFailed{
			Total:       result.Total,
			FailedCount: result.FailedCount,
			Mode:        string(mode),
			OccurredAt:  time.Now().UTC(),
		})
	}

	return result, err
}

// executeAtomic runs every item inside one unit of work. The first
// failure aborts the scope, so mutations from earlier items never
// become visible.
func (s *BatchService) executeAtomic(ctx context.Context, ops []domain.BatchOperation, result *domain.BatchResult) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		for i, op := range ops {
			ref, err := s.dispatch(ctx, op)
			if err != nil {
				return &domain.BatchItemError{Index: i, Err: err}
			}
			result.Results = append(result.Results, domain.BatchItemResult{
				Index: i,
				Kind:  op.Kind,
				Ref:   ref,
			})
		}
		return nil
	})
	if err == nil {
		return nil
	}

	// Nothing committed; the partial results list is meaningless now.
	result.Results = nil

	var itemErr *domain.BatchItemError
	if !errors.As(err, &itemErr) {
		itemErr = &domain.BatchItemError{Index: -1, Err: err}
	}
	result.Errors = append(result.Errors, *itemErr)

	logger.Error("batch service atomic run aborted", err, logger.Fields{
		"failedIndex": itemErr.Index,
	})
	return &domain.BatchOperationError{Items: []domain.BatchItemError{*itemErr}}
}

// executeIndependent commits each item on its own; failures are recorded
// and the run continues with the next item.
func (s *BatchService) executeIndependent(ctx context.Context, ops []domain.BatchOperation, result *domain.BatchResult) {
	for i, op := range ops {
		ref, err := s.dispatch(ctx, op)
		if err != nil {
			result.Errors = append(result.Errors, domain.BatchItemError{Index: i, Err: err})
			continue
		}
		result.Results = append(result.Results, domain.BatchItemResult{
			Index: i,
			Kind:  op.Kind,
			Ref:   ref,
		})
	}
}

func (s *BatchService) dispatch(ctx context.Context, op domain.BatchOperation) (string, error) {
	if err := op.Validate(); err != nil {
		return "", err
	}

	bucket := op.Bucket
	if bucket == "" {
		bucket = domain.BalanceAvailable
	}

	switch op.Kind {
	case domain.OpCredit:
		entry, err := s.balances.Credit(ctx, op.WalletID, op.Amount, bucket, op.Meta)
		if err != nil {
			return "", err
		}
		return entry.ID, nil

	case domain.OpDebit:
		entry, err := s.balances.Debit(ctx, op.WalletID, op.Amount, bucket, op.Meta)
		if err != nil {
			return "", err
		}
		return entry.ID, nil

	case domain.OpBalanceUpdate:
		if op.Amount.IsNegative() {
			entry, err := s.balances.Debit(ctx, op.WalletID, op.Amount.Neg(), bucket, op.Meta)
			if err != nil {
				return "", err
			}
			return entry.ID, nil
		}
		entry, err := s.balances.Credit(ctx, op.WalletID, op.Amount, bucket, op.Meta)
		if err != nil {
			return "", err
		}
		return entry.ID, nil

	case domain.OpValidatedTransaction:
		if op.EntryType == domain.EntryDebit {
			entry, err := s.balances.Debit(ctx, op.WalletID, op.Amount, bucket, op.Meta)
			if err != nil {
				return "", err
			}
			return entry.ID, nil
		}
		entry, err := s.balances.Credit(ctx, op.WalletID, op.Amount, bucket, op.Meta)
		if err != nil {
			return "", err
		}
		return entry.ID, nil

	case domain.OpFreeze:
		return "", s.balances.Freeze(ctx, op.WalletID, op.Amount)

	case domain.OpUnfreeze:
		return "", s.balances.Unfreeze(ctx, op.WalletID, op.Amount)

	case domain.OpTransfer:
		transfer, err := s.transfers.Transfer(ctx, op.FromWalletID, op.ToWalletID, op.Amount, domain.TransferOptions{
			Fee:      op.Fee,
			Discount: op.Discount,
			Meta:     op.Meta,
		})
		if err != nil {
			return "", err
		}
		return transfer.ID, nil

	case domain.OpCreateWallet:
		wallet, err := s.wallets.Create(ctx, service_interfaces.CreateWalletParams{
			Holder:   op.Holder,
			Currency: op.Currency,
			Name:     op.Name,
			Meta:     op.Meta,
		})
		if err != nil {
			return "", err
		}
		return wallet.ID, nil

	default:
		return "", fmt.Errorf("unknown batch operation kind %q", op.Kind)
	}
}
