package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntegrityIssue is one discrepancy between a stored bucket value and the
// value recomputed from the ledger history.
type IntegrityIssue struct {
	Bucket     BalanceType
	Stored     decimal.Decimal
	Computed   decimal.Decimal
	Difference decimal.Decimal
	Reason     string
}

// IntegrityReport is the outcome of a non-mutating integrity check.
type IntegrityReport struct {
	WalletID  string
	Valid     bool
	Issues    []IntegrityIssue
	CheckedAt time.Time
}

// BucketCorrection records one bucket repaired by reconciliation.
type BucketCorrection struct {
	Bucket   BalanceType
	OldValue decimal.Decimal
	NewValue decimal.Decimal
}

// ReconcileResult summarizes a reconciliation run. Repaired is false when
// the check found nothing to fix; Changes is empty in that case.
type ReconcileResult struct {
	WalletID string
	Repaired bool
	Changes  []BucketCorrection
}

// Anomaly severities.
const (
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Anomaly is one advisory finding from the activity scan. It never
// blocks processing.
type Anomaly struct {
	WalletID string
	EntryID  string
	Severity string
	Reason   string
	Amount   decimal.Decimal
}
