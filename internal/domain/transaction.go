package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionDraft is one candidate transaction extracted from a message by
// the model. Amounts are positive magnitudes; the direction travels in
// IsExpense. A draft is ephemeral and never persisted.
type TransactionDraft struct {
	Valid        bool            // false means "not a transaction" at this position
	AccountName  string          // free-text account name, resolved later
	Amount       decimal.Decimal // positive magnitude in major units
	PayeeName    string          // what was purchased or who was paid
	CategoryName string          // free-text category name, optional
	Notes        string          // additional context, optional
	IsExpense    bool            // true for outflow, false for income
}

// LedgerTransaction is a normalized, ledger-ready record. Amount is in signed
// minor units (negative = outflow). ImportedID is the idempotency key the
// ledger is expected to dedupe on: stable across retries of the same message
// and draft position.
type LedgerTransaction struct {
	Date       string `json:"date"` // ISO YYYY-MM-DD
	Amount     int64  `json:"amount"`
	PayeeName  string `json:"payee_name"`
	Notes      string `json:"notes"`
	Category   string `json:"category,omitempty"` // ledger category id, omitted when unresolved
	ImportedID string `json:"imported_id"`
}

// AddedTransaction is one successfully submitted transaction, kept for the
// cycle digest. Amount is the positive magnitude in major units.
type AddedTransaction struct {
	Amount       decimal.Decimal
	PayeeName    string
	CategoryName string // display name, empty when uncategorized
}

// SyncOutcome is what one sync cycle produced. It is built per cycle,
// consumed by the notifier, then discarded.
type SyncOutcome struct {
	ProcessedIDs []string // messages whose every draft succeeded
	Added        []AddedTransaction
}
