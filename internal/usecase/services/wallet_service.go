package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/logger"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
)

// Verify that WalletService implements the service_interfaces.WalletService interface
var _ service_interfaces.WalletService = (*WalletService)(nil)

const defaultWalletSlug = "default"

type WalletService struct {
	walletRepo repo_interfaces.WalletRepository
	uow        repo_interfaces.UnitOfWork
	cfg        config.Config
}

func NewWalletService(
	walletRepo repo_interfaces.WalletRepository,
	uow repo_interfaces.UnitOfWork,
	cfg config.Config,
) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		uow:        uow,
		cfg:        cfg,
	}
}

func (s *WalletService) Create(ctx context.Context, params service_interfaces.CreateWalletParams) (domain.Wallet, error) {
	logger.Info("wallet service create request", logger.Fields{
		"holder":   params.Holder.String(),
		"currency": params.Currency,
		"name":     params.Name,
	})

	if err := params.Holder.Validate(); err != nil {
		return domain.Wallet{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if !s.cfg.Supports(currency) {
		return domain.Wallet{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, currency)
	}

	name := strings.TrimSpace(params.Name)
	slug := slugify(name)
	if slug == "" {
		slug = defaultWalletSlug
	}

	if s.cfg.EnforceUniqueness {
		_, err := s.walletRepo.FindBySlug(ctx, params.Holder, currency, slug)
		switch {
		case err == nil:
			return domain.Wallet{}, fmt.Errorf("%w: holder %s currency %s slug %s",
				domain.ErrDuplicateWallet, params.Holder, currency, slug)
		case !errors.Is(err, domain.ErrWalletNotFound):
			return domain.Wallet{}, fmt.Errorf("check wallet uniqueness: %w", err)
		}
	} else {
		// Uniqueness disabled: suffix the slug so the storage-level
		// index never trips.
		slug = slug + "-" + uuid.NewString()[:8]
	}

	wallet := domain.Wallet{
		ID:          uuid.NewString(),
		Holder:      params.Holder,
		Currency:    currency,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(params.Description),
		Meta:        params.Meta,
		Available:   decimal.Zero,
		Pending:     decimal.Zero,
		Frozen:      decimal.Zero,
		Trial:       decimal.Zero,
	}

	created, err := s.walletRepo.Create(ctx, wallet)
	if err != nil {
		logger.Error("wallet service create failed", err, logger.Fields{
			"holder":   params.Holder.String(),
			"currency": currency,
		})
		return domain.Wallet{}, err
	}

	logger.Info("wallet service create success", logger.Fields{
		"walletId": created.ID,
		"slug":     created.Slug,
	})

	return created, nil
}

func (s *WalletService) GetOrCreate(ctx context.Context, holder domain.HolderRef, currency string) (domain.Wallet, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	wallet, err := s.walletRepo.FindByHolderAndCurrency(ctx, holder, currency)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return domain.Wallet{}, err
	}

	return s.Create(ctx, service_interfaces.CreateWalletParams{
		Holder:   holder,
		Currency: currency,
	})
}

func (s *WalletService) Get(ctx context.Context, id string) (domain.Wallet, error) {
	return s.walletRepo.Get(ctx, id)
}

func (s *WalletService) FindBySlug(ctx context.Context, holder domain.HolderRef, currency, slug string) (domain.Wallet, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	return s.walletRepo.FindBySlug(ctx, holder, currency, strings.TrimSpace(slug))
}

func (s *WalletService) ListByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Wallet, error) {
	return s.walletRepo.ListByHolder(ctx, holder)
}

func (s *WalletService) TotalBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	wallet, err := s.walletRepo.Get(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return wallet.TotalBalance(), nil
}

func (s *WalletService) Delete(ctx context.Context, id string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context) error {
		wallet, err := s.walletRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !wallet.TotalBalance().IsZero() {
			return fmt.Errorf("%w: wallet %s holds %s", domain.ErrWalletNotEmpty, id, wallet.TotalBalance())
		}
		return s.walletRepo.SoftDelete(ctx, id)
	})
}

func slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
