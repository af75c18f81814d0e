package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchMode selects the failure-handling semantics of a batch run.
type BatchMode string

const (
	// BatchAllOrNothing wraps the whole batch in one atomic scope; the
	// first item failure rolls back every prior mutation.
	BatchAllOrNothing BatchMode = "ALL_OR_NOTHING"
	// BatchPartialSuccess commits items independently; failures are
	// recorded and processing continues.
	BatchPartialSuccess BatchMode = "PARTIAL_SUCCESS"
)

func (m BatchMode) Valid() bool {
	return m == BatchAllOrNothing || m == BatchPartialSuccess
}

// OpKind is the closed set of operations a batch item can request.
type OpKind string

const (
	OpCredit       OpKind = "CREDIT"
	OpDebit        OpKind = "DEBIT"
	OpTransfer     OpKind = "TRANSFER"
	OpFreeze       OpKind = "FREEZE"
	OpUnfreeze     OpKind = "UNFREEZE"
	OpCreateWallet OpKind = "CREATE_WALLET"
	// OpBalanceUpdate credits or debits depending on the sign of Amount.
	OpBalanceUpdate OpKind = "BALANCE_UPDATE"
	// OpValidatedTransaction is the generic op whose EntryType field is
	// checked against the entry type enum before dispatch.
	OpValidatedTransaction OpKind = "VALIDATED_TRANSACTION"
)

// BatchOperation is one item of a batch. Which fields are required
// depends on Kind; the batch service validates them before dispatch.
type BatchOperation struct {
	Kind     OpKind
	WalletID string
	Amount   decimal.Decimal
	Bucket   BalanceType
	Meta     map[string]string

	// Transfer fields.
	FromWalletID string
	ToWalletID   string
	Fee          decimal.Decimal
	Discount     decimal.Decimal

	// Wallet-creation fields.
	Holder   HolderRef
	Currency string
	Name     string

	// Validated-transaction field.
	EntryType EntryType
}

// BatchItemResult records the outcome of one processed item. Ref carries
// the id of whatever the item produced (entry, transfer, or wallet).
type BatchItemResult struct {
	Index int
	Kind  OpKind
	Ref   string
}

// BatchResult aggregates the outcome of a batch run. Success is true
// only when Errors is empty.
type BatchResult struct {
	Success         bool
	Results         []BatchItemResult
	Errors          []BatchItemError
	Total           int
	SuccessfulCount int
	FailedCount     int
	Mode            BatchMode
}

// Validate checks the fields required for the item's kind.
func (op BatchOperation) Validate() error {
	switch op.Kind {
	case OpCredit, OpDebit, OpFreeze, OpUnfreeze:
		if op.WalletID == "" {
			return fmt.Errorf("%s: walletId is required", op.Kind)
		}
		if !op.Amount.IsPositive() {
			return fmt.Errorf("%w: %s requires a positive amount", ErrInvalidAmount, op.Kind)
		}
	case OpBalanceUpdate:
		if op.WalletID == "" {
			return fmt.Errorf("%s: walletId is required", op.Kind)
		}
		if op.Amount.IsZero() {
			return fmt.Errorf("%w: %s requires a non-zero amount", ErrInvalidAmount, op.Kind)
		}
	case OpTransfer:
		if op.FromWalletID == "" || op.ToWalletID == "" {
			return fmt.Errorf("%s: fromWalletId and toWalletId are required", op.Kind)
		}
		if !op.Amount.IsPositive() {
			return fmt.Errorf("%w: %s requires a positive amount", ErrInvalidAmount, op.Kind)
		}
	case OpCreateWallet:
		if err := op.Holder.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op.Kind, err)
		}
		if len(op.Currency) != 3 {
			return fmt.Errorf("%s: currency must be a 3-letter code", op.Kind)
		}
	case OpValidatedTransaction:
		if op.WalletID == "" {
			return fmt.Errorf("%s: walletId is required", op.Kind)
		}
		if op.EntryType != EntryCredit && op.EntryType != EntryDebit {
			return fmt.Errorf("%s: unknown entry type %q", op.Kind, op.EntryType)
		}
		if !op.Amount.IsPositive() {
			return fmt.Errorf("%w: %s requires a positive amount", ErrInvalidAmount, op.Kind)
		}
	default:
		return fmt.Errorf("unknown batch operation kind %q", op.Kind)
	}
	return nil
}
