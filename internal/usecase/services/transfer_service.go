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

// Verify that TransferService implements the service_interfaces.TransferService interface
var _ service_interfaces.TransferService = (*TransferService)(nil)

// TransferService coordinates a paired withdraw + deposit across two
// wallets. Funds move when a transfer is created with an executing
// status (paid or confirmed) and, for transfers created pending, at the
// later transition into confirmed; those are two separate code paths.
type TransferService struct {
	walletRepo   repo_interfaces.WalletRepository
	entryRepo    repo_interfaces.EntryRepository
	transferRepo repo_interfaces.TransferRepository
	uow          repo_interfaces.UnitOfWork
	rates        service_interfaces.RateService
	cfg          config.Config
	sink         events.Sink
}

func NewTransferService(
	walletRepo repo_interfaces.WalletRepository,
	entryRepo repo_interfaces.EntryRepository,
	transferRepo repo_interfaces.TransferRepository,
	uow repo_interfaces.UnitOfWork,
	rates service_interfaces.RateService,
	cfg config.Config,
	sink events.Sink,
) *TransferService {
	return &TransferService{
		walletRepo:   walletRepo,
		entryRepo:    entryRepo,
		transferRepo: transferRepo,
		uow:          uow,
		rates:        rates,
		cfg:          cfg,
		sink:         sink,
	}
}

func (s *TransferService) Transfer(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, opts domain.TransferOptions) (domain.Transfer, error) {
	logger.Info("transfer service transfer request", logger.Fields{
		"fromWalletId": fromWalletID,
		"toWalletId":   toWalletID,
		"amount":       amount,
		"status":       opts.Status,
	})

	opts = normalizeTransferOptions(opts)

	if err := s.validateTransferInput(fromWalletID, toWalletID, amount, opts); err != nil {
		return domain.Transfer{}, err
	}

	totalDeduction := amount.Add(opts.Fee).Sub(opts.Discount)
	if totalDeduction.IsNegative() {
		return domain.Transfer{}, fmt.Errorf("%w: discount %s exceeds amount plus fee", domain.ErrInvalidAmount, opts.Discount)
	}

	var transfer domain.Transfer

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		from, to, err := s.lockPair(ctx, fromWalletID, toWalletID)
		if err != nil {
			return err
		}

		fromBalance, err := from.BalanceFor(opts.FromBucket)
		if err != nil {
			return err
		}
		if fromBalance.LessThan(totalDeduction) {
			return fmt.Errorf("%w: %s balance %s is below %s",
				domain.ErrInsufficientFunds, opts.FromBucket, fromBalance, totalDeduction)
		}

		convertedAmount := amount
		if from.Currency != to.Currency {
			convertedAmount, err = s.rates.Convert(ctx, amount, from.Currency, to.Currency)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		transfer = domain.Transfer{
			ID:              uuid.NewString(),
			From:            from.Holder,
			To:              to.Holder,
			FromWalletID:    from.ID,
			ToWalletID:      to.ID,
			Status:          opts.Status,
			StatusChangedAt: now,
			Amount:          amount,
			Fee:             opts.Fee,
			Discount:        opts.Discount,
			FromBucket:      opts.FromBucket,
			ToBucket:        opts.ToBucket,
		}

		if statusExecutes(opts.Status) {
			if err := s.executeMovement(ctx, &transfer, &from, &to, totalDeduction, convertedAmount, opts.Meta); err != nil {
				return err
			}
		}

		transfer, err = s.transferRepo.Create(ctx, transfer)
		return err
	})
	if err != nil {
		logger.Error("transfer service transfer failed", err, logger.Fields{
			"fromWalletId": fromWalletID,
			"toWalletId":   toWalletID,
		})
		return domain.Transfer{}, err
	}

	events.Publish(ctx, s.sink, events.TransferStatusChanged{
		TransferID: transfer.ID,
		NewStatus:  transfer.Status,
		OccurredAt: time.Now().UTC(),
	})

	logger.Info("transfer service transfer success", logger.Fields{
		"transferId": transfer.ID,
		"status":     transfer.Status,
	})

	return transfer, nil
}

func (s *TransferService) BatchTransfer(ctx context.Context, fromWalletID string, recipients []service_interfaces.TransferRecipient) ([]domain.Transfer, error) {
	completed := make([]domain.Transfer, 0, len(recipients))

	for i, recipient := range recipients {
		transfer, err := s.Transfer(ctx, fromWalletID, recipient.ToWalletID, recipient.Amount, recipient.Options)
		if err != nil {
			return completed, fmt.Errorf("recipient %d: %w", i, err)
		}
		completed = append(completed, transfer)
	}

	return completed, nil
}

func (s *TransferService) Get(ctx context.Context, transferID string) (domain.Transfer, error) {
	return s.transferRepo.Get(ctx, transferID)
}

// MarkAsPaid transitions pending -> paid. No funds move.
func (s *TransferService) MarkAsPaid(ctx context.Context, transferID string) (domain.Transfer, error) {
	return s.transition(ctx, transferID, domain.TransferStatusPaid)
}

// MarkAsConfirmed transitions pending/paid -> confirmed. If the transfer
// has not moved funds yet (created pending), the deferred movement is
// executed here, inside the same scope as the status change.
func (s *TransferService) MarkAsConfirmed(ctx context.Context, transferID string) (domain.Transfer, error) {
	return s.transition(ctx, transferID, domain.TransferStatusConfirmed)
}

// MarkAsRejected moves any non-terminal transfer to rejected. When funds
// have already moved, compensating reversal entries restore both wallets
// instead of raising an error.
func (s *TransferService) MarkAsRejected(ctx context.Context, transferID string) (domain.Transfer, error) {
	return s.transition(ctx, transferID, domain.TransferStatusRejected)
}

func (s *TransferService) transition(ctx context.Context, transferID string, next domain.TransferStatus) (domain.Transfer, error) {
	var (
		transfer  domain.Transfer
		oldStatus domain.TransferStatus
	)

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		transfer, err = s.transferRepo.Get(ctx, transferID)
		if err != nil {
			return err
		}

		oldStatus = transfer.Status
		if !transfer.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, transfer.Status, next)
		}

		switch {
		case next == domain.TransferStatusConfirmed && !transfer.Executed():
			if err := s.executeDeferred(ctx, &transfer); err != nil {
				return err
			}
		case next == domain.TransferStatusRejected && transfer.Executed():
			if err := s.reverse(ctx, &transfer); err != nil {
				return err
			}
		}

		transfer.Status = next
		transfer.StatusChangedAt = time.Now().UTC()
		transfer, err = s.transferRepo.Save(ctx, transfer)
		return err
	})
	if err != nil {
		logger.Error("transfer service transition failed", err, logger.Fields{
			"transferId": transferID,
			"target":     next,
		})
		return domain.Transfer{}, err
	}

	events.Publish(ctx, s.sink, events.TransferStatusChanged{
		TransferID: transfer.ID,
		OldStatus:  oldStatus,
		NewStatus:  transfer.Status,
		OccurredAt: time.Now().UTC(),
	})

	return transfer, nil
}

// executeDeferred performs the fund movement for a transfer that was
// created pending and is now being confirmed.
func (s *TransferService) executeDeferred(ctx context.Context, transfer *domain.Transfer) error {
	from, to, err := s.lockPair(ctx, transfer.FromWalletID, transfer.ToWalletID)
	if err != nil {
		return err
	}

	totalDeduction := transfer.Amount.Add(transfer.Fee).Sub(transfer.Discount)

	fromBalance, err := from.BalanceFor(transfer.FromBucket)
	if err != nil {
		return err
	}
	if fromBalance.LessThan(totalDeduction) {
		return fmt.Errorf("%w: %s balance %s is below %s",
			domain.ErrInsufficientFunds, transfer.FromBucket, fromBalance, totalDeduction)
	}

	convertedAmount := transfer.Amount
	if from.Currency != to.Currency {
		convertedAmount, err = s.rates.Convert(ctx, transfer.Amount, from.Currency, to.Currency)
		if err != nil {
			return err
		}
	}

	return s.executeMovement(ctx, transfer, &from, &to, totalDeduction, convertedAmount, nil)
}

// executeMovement debits the source and credits the destination,
// recording the withdraw and deposit entries on the transfer. Wallets
// must already be locked.
func (s *TransferService) executeMovement(ctx context.Context, transfer *domain.Transfer, from, to *domain.Wallet, totalDeduction, convertedAmount decimal.Decimal, meta map[string]string) error {
	entryMeta := map[string]string{domain.MetaTransferID: transfer.ID}
	for k, v := range meta {
		entryMeta[k] = v
	}

	if err := from.DebitBucket(transfer.FromBucket, totalDeduction); err != nil {
		return err
	}
	withdraw, err := s.entryRepo.Create(ctx, domain.LedgerEntry{
		ID:        uuid.NewString(),
		WalletID:  from.ID,
		Payer:     to.Holder,
		Type:      domain.EntryDebit,
		Amount:    totalDeduction,
		Bucket:    transfer.FromBucket,
		Confirmed: true,
		Meta:      entryMeta,
	})
	if err != nil {
		return err
	}
	if _, err := s.walletRepo.Save(ctx, *from); err != nil {
		return err
	}

	if err := to.CreditBucket(transfer.ToBucket, convertedAmount); err != nil {
		return err
	}
	deposit, err := s.entryRepo.Create(ctx, domain.LedgerEntry{
		ID:        uuid.NewString(),
		WalletID:  to.ID,
		Payer:     from.Holder,
		Type:      domain.EntryCredit,
		Amount:    convertedAmount,
		Bucket:    transfer.ToBucket,
		Confirmed: true,
		Meta:      entryMeta,
	})
	if err != nil {
		return err
	}
	if _, err := s.walletRepo.Save(ctx, *to); err != nil {
		return err
	}

	transfer.WithdrawEntryID = &withdraw.ID
	transfer.DepositEntryID = &deposit.ID
	return nil
}

// reverse appends compensating entries for an executed transfer: the
// withdraw amount is credited back to the source, the deposit amount
// debited back from the destination. The original entries stay in the
// ledger untouched.
func (s *TransferService) reverse(ctx context.Context, transfer *domain.Transfer) error {
	withdraw, err := s.entryRepo.Get(ctx, *transfer.WithdrawEntryID)
	if err != nil {
		return err
	}
	deposit, err := s.entryRepo.Get(ctx, *transfer.DepositEntryID)
	if err != nil {
		return err
	}

	from, to, err := s.lockPair(ctx, transfer.FromWalletID, transfer.ToWalletID)
	if err != nil {
		return err
	}

	if err := from.CreditBucket(withdraw.Bucket, withdraw.Amount); err != nil {
		return err
	}
	if _, err := s.entryRepo.Create(ctx, domain.LedgerEntry{
		ID:        uuid.NewString(),
		WalletID:  from.ID,
		Payer:     to.Holder,
		Type:      domain.EntryCredit,
		Amount:    withdraw.Amount,
		Bucket:    withdraw.Bucket,
		Confirmed: true,
		Meta: map[string]string{
			domain.MetaTransferID: transfer.ID,
			domain.MetaReversalOf: withdraw.ID,
		},
	}); err != nil {
		return err
	}
	if _, err := s.walletRepo.Save(ctx, from); err != nil {
		return err
	}

	if err := to.DebitBucket(deposit.Bucket, deposit.Amount); err != nil {
		return err
	}
	if _, err := s.entryRepo.Create(ctx, domain.LedgerEntry{
		ID:        uuid.NewString(),
		WalletID:  to.ID,
		Payer:     from.Holder,
		Type:      domain.EntryDebit,
		Amount:    deposit.Amount,
		Bucket:    deposit.Bucket,
		Confirmed: true,
		Meta: map[string]string{
			domain.MetaTransferID: transfer.ID,
			domain.MetaReversalOf: deposit.ID,
		},
	}); err != nil {
		return err
	}
	if _, err := s.walletRepo.Save(ctx, to); err != nil {
		return err
	}

	return nil
}

// lockPair locks both wallet rows in a consistent id order so two
// opposing transfers cannot deadlock, then returns them in the
// requested order.
func (s *TransferService) lockPair(ctx context.Context, fromID, toID string) (domain.Wallet, domain.Wallet, error) {
	firstID, secondID := fromID, toID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.walletRepo.GetForUpdate(ctx, firstID)
	if err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}
	second, err := s.walletRepo.GetForUpdate(ctx, secondID)
	if err != nil {
		return domain.Wallet{}, domain.Wallet{}, err
	}

	if firstID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

func (s *TransferService) validateTransferInput(fromWalletID, toWalletID string, amount decimal.Decimal, opts domain.TransferOptions) error {
	if fromWalletID == toWalletID {
		return fmt.Errorf("source and destination wallets cannot be the same")
	}
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
	if opts.Fee.IsNegative() || opts.Discount.IsNegative() {
		return fmt.Errorf("%w: fee and discount cannot be negative", domain.ErrInvalidAmount)
	}
	if !opts.FromBucket.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidBalanceType, opts.FromBucket)
	}
	if !opts.ToBucket.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidBalanceType, opts.ToBucket)
	}
	switch opts.Status {
	case domain.TransferStatusPending, domain.TransferStatusPaid, domain.TransferStatusConfirmed:
		return nil
	default:
		return fmt.Errorf("%w: transfer cannot be created with status %q", domain.ErrInvalidStatusTransition, opts.Status)
	}
}

func normalizeTransferOptions(opts domain.TransferOptions) domain.TransferOptions {
	if opts.Status == "" {
		opts.Status = domain.TransferStatusConfirmed
	}
	if opts.FromBucket == "" {
		opts.FromBucket = domain.BalanceAvailable
	}
	if opts.ToBucket == "" {
		opts.ToBucket = domain.BalanceAvailable
	}
	return opts
}

func statusExecutes(status domain.TransferStatus) bool {
	return status == domain.TransferStatusPaid || status == domain.TransferStatusConfirmed
}
