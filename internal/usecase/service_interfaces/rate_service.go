package service_interfaces

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateService is the injected exchange-rate capability. The default
// behavior is a 1:1 rate between any two supported currencies unless an
// explicit override has been registered.
type RateService interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
	SupportsCurrency(code string) bool
}
