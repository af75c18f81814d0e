package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/repo_interfaces"
	"github.com/walletmesh/multiwallet/internal/domain"
)

var _ repo_interfaces.WalletRepository = (*WalletRepository)(nil)

type WalletRepository struct {
	store *Store
}

func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

func (r *WalletRepository) Create(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	err := r.store.locked(ctx, func() error {
		for _, existing := range r.store.wallets {
			if existing.Deleted() {
				continue
			}
			if existing.Holder == wallet.Holder &&
				existing.Currency == wallet.Currency &&
				existing.Slug == wallet.Slug {
				return fmt.Errorf("%w: holder %s currency %s slug %s",
					domain.ErrDuplicateWallet, wallet.Holder, wallet.Currency, wallet.Slug)
			}
		}

		now := r.store.now()
		wallet.CreatedAt = now
		wallet.UpdatedAt = now
		r.store.wallets[wallet.ID] = wallet
		return nil
	})
	if err != nil {
		return domain.Wallet{}, err
	}
	return wallet, nil
}

func (r *WalletRepository) Get(ctx context.Context, id string) (domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.store.locked(ctx, func() error {
		found, ok := r.store.wallets[id]
		if !ok || found.Deleted() {
			return fmt.Errorf("%w: %s", domain.ErrWalletNotFound, id)
		}
		wallet = cloneWallet(found)
		return nil
	})
	return wallet, err
}

// GetForUpdate is identical to Get here: the unit of work already holds
// the store-wide lock for the length of the scope.
func (r *WalletRepository) GetForUpdate(ctx context.Context, id string) (domain.Wallet, error) {
	return r.Get(ctx, id)
}

func (r *WalletRepository) FindByHolderAndCurrency(ctx context.Context, holder domain.HolderRef, currency string) (domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.store.locked(ctx, func() error {
		var (
			best  domain.Wallet
			found bool
		)
		for _, candidate := range r.store.wallets {
			if candidate.Deleted() || candidate.Holder != holder || candidate.Currency != currency {
				continue
			}
			if !found || candidate.CreatedAt.Before(best.CreatedAt) {
				best = candidate
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: holder %s currency %s", domain.ErrWalletNotFound, holder, currency)
		}
		wallet = cloneWallet(best)
		return nil
	})
	return wallet, err
}

func (r *WalletRepository) FindBySlug(ctx context.Context, holder domain.HolderRef, currency, slug string) (domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.store.locked(ctx, func() error {
		for _, candidate := range r.store.wallets {
			if candidate.Deleted() || candidate.Holder != holder ||
				candidate.Currency != currency || candidate.Slug != slug {
				continue
			}
			wallet = cloneWallet(candidate)
			return nil
		}
		return fmt.Errorf("%w: holder %s currency %s slug %s", domain.ErrWalletNotFound, holder, currency, slug)
	})
	return wallet, err
}

func (r *WalletRepository) ListByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	err := r.store.locked(ctx, func() error {
		for _, candidate := range r.store.wallets {
			if candidate.Deleted() || candidate.Holder != holder {
				continue
			}
			wallets = append(wallets, cloneWallet(candidate))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
	})
	return wallets, nil
}

func (r *WalletRepository) Save(ctx context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	err := r.store.locked(ctx, func() error {
		current, ok := r.store.wallets[wallet.ID]
		if !ok || current.Deleted() {
			return fmt.Errorf("%w: %s", domain.ErrWalletNotFound, wallet.ID)
		}
		if current.Version != wallet.Version {
			return fmt.Errorf("%w: wallet %s version %d", domain.ErrConcurrentUpdate, wallet.ID, wallet.Version)
		}

		wallet.Version++
		wallet.CreatedAt = current.CreatedAt
		wallet.UpdatedAt = r.store.now()
		r.store.wallets[wallet.ID] = cloneWallet(wallet)
		return nil
	})
	if err != nil {
		return domain.Wallet{}, err
	}
	return wallet, nil
}

func (r *WalletRepository) SoftDelete(ctx context.Context, id string) error {
	return r.store.locked(ctx, func() error {
		wallet, ok := r.store.wallets[id]
		if !ok || wallet.Deleted() {
			return fmt.Errorf("%w: %s", domain.ErrWalletNotFound, id)
		}
		now := r.store.now()
		wallet.DeletedAt = &now
		wallet.UpdatedAt = now
		r.store.wallets[id] = wallet
		return nil
	})
}

func cloneWallet(wallet domain.Wallet) domain.Wallet {
	out := wallet
	if wallet.Meta != nil {
		out.Meta = make(map[string]string, len(wallet.Meta))
		for k, v := range wallet.Meta {
			out.Meta[k] = v
		}
	}
	if wallet.DeletedAt != nil {
		deleted := *wallet.DeletedAt
		out.DeletedAt = &deleted
	}
	return out
}
