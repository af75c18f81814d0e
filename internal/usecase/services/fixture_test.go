package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/memory"
	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/events"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
	"github.com/walletmesh/multiwallet/internal/usecase/services"
)

// captureSink records published events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *captureSink) Publish(_ context.Context, event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, event := range s.events {
		if event.EventKind() == kind {
			n++
		}
	}
	return n
}

func (s *captureSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventKind())
	}
	return out
}

type fixture struct {
	cfg   config.Config
	store *memory.Store
	sink  *captureSink

	walletRepo   *memory.WalletRepository
	entryRepo    *memory.EntryRepository
	transferRepo *memory.TransferRepository

	wallets   *services.WalletService
	balances  *services.BalanceService
	rates     *services.RateService
	transfers *services.TransferService
	batches   *services.BatchService
	recon     *services.ReconciliationService
}

func newFixture(cfg config.Config) *fixture {
	f := &fixture{
		cfg:   cfg,
		store: memory.NewStore(),
		sink:  &captureSink{},
	}

	f.walletRepo = memory.NewWalletRepository(f.store)
	f.entryRepo = memory.NewEntryRepository(f.store)
	f.transferRepo = memory.NewTransferRepository(f.store)
	uow := memory.NewUnitOfWork(f.store)

	f.wallets = services.NewWalletService(f.walletRepo, uow, cfg)
	f.balances = services.NewBalanceService(f.walletRepo, f.entryRepo, uow, cfg, f.sink)
	f.rates = services.NewRateService(cfg)
	f.transfers = services.NewTransferService(f.walletRepo, f.entryRepo, f.transferRepo, uow, f.rates, cfg, f.sink)
	f.batches = services.NewBatchService(f.wallets, f.balances, f.transfers, uow, cfg, f.sink)
	f.recon = services.NewReconciliationService(f.walletRepo, f.entryRepo, uow, cfg, f.sink)

	return f
}

func defaultFixture() *fixture {
	return newFixture(config.Default())
}

func (f *fixture) newWallet(t *testing.T, holderID, currency, name string) domain.Wallet {
	t.Helper()
	wallet, err := f.wallets.Create(context.Background(), service_interfaces.CreateWalletParams{
		Holder:   domain.NewHolderRef("user", holderID),
		Currency: currency,
		Name:     name,
	})
	require.NoError(t, err)
	return wallet
}

func (f *fixture) fund(t *testing.T, walletID string, amount decimal.Decimal) {
	t.Helper()
	_, err := f.balances.Credit(context.Background(), walletID, amount, domain.BalanceAvailable, nil)
	require.NoError(t, err)
}

func (f *fixture) wallet(t *testing.T, walletID string) domain.Wallet {
	t.Helper()
	wallet, err := f.wallets.Get(context.Background(), walletID)
	require.NoError(t, err)
	return wallet
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
