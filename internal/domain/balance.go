package domain

import (
	"fmt"
	"strings"
)

// BalanceType identifies one of the four segregated balance buckets a
// wallet holds.
type BalanceType string

const (
	BalanceAvailable BalanceType = "AVAILABLE"
	BalancePending   BalanceType = "PENDING"
	BalanceFrozen    BalanceType = "FROZEN"
	BalanceTrial     BalanceType = "TRIAL"
)

// BalanceTypes lists every valid bucket in a stable order.
func BalanceTypes() []BalanceType {
	return []BalanceType{BalanceAvailable, BalancePending, BalanceFrozen, BalanceTrial}
}

// ParseBalanceType maps a raw bucket identifier to a BalanceType.
func ParseBalanceType(raw string) (BalanceType, error) {
	switch BalanceType(strings.ToUpper(strings.TrimSpace(raw))) {
	case BalanceAvailable:
		return BalanceAvailable, nil
	case BalancePending:
		return BalancePending, nil
	case BalanceFrozen:
		return BalanceFrozen, nil
	case BalanceTrial:
		return BalanceTrial, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBalanceType, raw)
	}
}

// Valid reports whether the balance type is one of the four known buckets.
func (b BalanceType) Valid() bool {
	switch b {
	case BalanceAvailable, BalancePending, BalanceFrozen, BalanceTrial:
		return true
	default:
		return false
	}
}
