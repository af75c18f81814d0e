package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

// Meta keys carried on ledger entries produced by derived balance
// operations and transfer reversals.
const (
	MetaDescription = "description"
	MetaOperation   = "operation"
	MetaReversalOf  = "reversal_of"
	MetaTransferID  = "transfer_id"
)

// LedgerEntry is an immutable record of a single credit or debit against
// one bucket of one wallet. Amount and type never change after creation;
// only the confirmation flag and the soft-delete marker may be updated.
type LedgerEntry struct {
	ID        string
	WalletID  string
	Payer     HolderRef
	Type      EntryType
	Amount    decimal.Decimal
	Bucket    BalanceType
	Confirmed bool
	Meta      map[string]string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// SignedAmount returns the amount with its ledger sign: credits are
// positive, debits negative.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Type == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

func (e LedgerEntry) Deleted() bool {
	return e.DeletedAt != nil
}
