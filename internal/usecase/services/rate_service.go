package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/domain"
	"github.com/walletmesh/multiwallet/internal/usecase/service_interfaces"
)

// Verify that RateService implements the service_interfaces.RateService interface
var _ service_interfaces.RateService = (*RateService)(nil)

// RateService resolves exchange rates for cross-currency transfers. Any
// two currencies in the configured supported set convert 1:1 unless an
// explicit override rate has been registered with SetRate.
type RateService struct {
	cfg config.Config

	mu        sync.RWMutex
	overrides map[string]decimal.Decimal
}

func NewRateService(cfg config.Config) *RateService {
	return &RateService{
		cfg:       cfg,
		overrides: map[string]decimal.Decimal{},
	}
}

// SetRate registers an override rate for the from→to pair.
func (s *RateService) SetRate(from, to string, rate decimal.Decimal) error {
	fromCcy, toCcy, err := s.normalizePair(from, to)
	if err != nil {
		return err
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("rate must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[pairKey(fromCcy, toCcy)] = rate
	return nil
}

func (s *RateService) GetRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	fromCcy, toCcy, err := s.normalizePair(from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if fromCcy == toCcy {
		return decimal.NewFromInt(1), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if rate, ok := s.overrides[pairKey(fromCcy, toCcy)]; ok {
		return rate, nil
	}

	return decimal.NewFromInt(1), nil
}

func (s *RateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return amount.Mul(rate).Round(domain.AmountPrecision), nil
}

func (s *RateService) SupportsCurrency(code string) bool {
	return s.cfg.Supports(code)
}

func (s *RateService) normalizePair(from, to string) (string, string, error) {
	fromCcy := strings.ToUpper(strings.TrimSpace(from))
	toCcy := strings.ToUpper(strings.TrimSpace(to))

	if len(fromCcy) != 3 || len(toCcy) != 3 {
		return "", "", fmt.Errorf("currency codes must be 3 characters")
	}
	if !s.cfg.Supports(fromCcy) {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, fromCcy)
	}
	if !s.cfg.Supports(toCcy) {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, toCcy)
	}

	return fromCcy, toCcy, nil
}

func pairKey(from, to string) string {
	return from + "/" + to
}
