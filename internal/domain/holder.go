package domain

import (
	"fmt"
	"strings"
)

// HolderRef is a tagged reference to the external entity that owns one or
// more wallets. Kind disambiguates owner namespaces (e.g. "user",
// "organization") so ids from different tables cannot collide.
type HolderRef struct {
	Kind string
	ID   string
}

func NewHolderRef(kind, id string) HolderRef {
	return HolderRef{
		Kind: strings.ToLower(strings.TrimSpace(kind)),
		ID:   strings.TrimSpace(id),
	}
}

func (h HolderRef) Validate() error {
	if strings.TrimSpace(h.Kind) == "" {
		return fmt.Errorf("holder kind is required")
	}
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("holder id is required")
	}
	return nil
}

func (h HolderRef) IsZero() bool {
	return h.Kind == "" && h.ID == ""
}

func (h HolderRef) String() string {
	return h.Kind + ":" + h.ID
}
