package syncer

import (
	"context"

	"github.com/dvloznov/budget-sync/internal/domain"
)

// MessageStore is the remote store of incoming messages. Rows are created
// externally; this system only reads pending rows and flips their synced
// flag.
type MessageStore interface {
	// FetchPending returns every message whose synced flag is false.
	FetchPending(ctx context.Context) ([]domain.PendingMessage, error)

	// MarkSynced flips the synced flag for the given ids in one batch call.
	// An empty id set is a no-op.
	MarkSynced(ctx context.Context, ids []string) error
}

// Ledger is the remote personal-finance ledger.
type Ledger interface {
	// ListAccounts returns the current accounts, order preserved.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// ListCategories returns the current categories, order preserved.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// InsertTransaction submits one normalized transaction. Failure is a
	// per-draft signal, not fatal to the cycle.
	InsertTransaction(ctx context.Context, accountID string, tx domain.LedgerTransaction) error
}

// Extractor turns a batch of messages into per-message draft lists. The
// result always has exactly one entry per input message, in input order, and
// extraction failure degrades to empty lists rather than an error.
type Extractor interface {
	ExtractBatch(ctx context.Context, msgs []domain.PendingMessage, accounts, categories []string) [][]domain.TransactionDraft
}

// Notifier emits the cycle digest. A failed send is reported as false and
// must not affect sync state.
type Notifier interface {
	Send(ctx context.Context, outcome domain.SyncOutcome) bool
}
