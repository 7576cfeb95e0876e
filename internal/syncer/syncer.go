// Package syncer runs the message-to-ledger sync cycle: fetch pending
// messages, extract transaction drafts in one batched model call, resolve
// names against the ledger, normalize, submit, mark fully-processed messages
// synced, and emit a digest.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/budget-sync/internal/domain"
	"github.com/dvloznov/budget-sync/internal/logger"
)

// Syncer orchestrates one sync cycle at a time over injected collaborators.
// It holds no state between cycles; reference lists are fetched fresh each
// run so ledger edits between runs are always visible.
type Syncer struct {
	store     MessageStore
	ledger    Ledger
	extractor Extractor
	notifier  Notifier
}

// New creates a Syncer over the given collaborators.
func New(store MessageStore, ledger Ledger, extractor Extractor, notifier Notifier) *Syncer {
	return &Syncer{
		store:     store,
		ledger:    ledger,
		extractor: extractor,
		notifier:  notifier,
	}
}

// RunCycle executes one full sync cycle. An error means the cycle aborted
// early and untouched messages remain pending for the next scheduled run;
// nothing here is fatal to the process.
func (s *Syncer) RunCycle(ctx context.Context) error {
	log := logger.FromContext(ctx).With().Str("cycle_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Msg("Sync cycle started")

	msgs, err := s.store.FetchPending(ctx)
	if err != nil {
		return fmt.Errorf("RunCycle: fetch pending: %w", err)
	}
	if len(msgs) == 0 {
		log.Info().Msg("No unsynced messages found")
		return nil
	}

	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("RunCycle: list accounts: %w", err)
	}
	categories, err := s.ledger.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("RunCycle: list categories: %w", err)
	}

	accountNames := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		accountNames = append(accountNames, acc.Name)
	}
	categoryNames := make([]string, 0, len(categories))
	for _, cat := range categories {
		categoryNames = append(categoryNames, cat.Name)
	}

	// One model call for the whole pending set.
	batches := s.extractor.ExtractBatch(ctx, msgs, accountNames, categoryNames)

	date := time.Now().UTC().Format("2006-01-02")

	var outcome domain.SyncOutcome
	for i, msg := range msgs {
		// The extractor contract guarantees one entry per message; treat a
		// short result as empty drafts rather than failing the cycle.
		var drafts []domain.TransactionDraft
		if i < len(batches) {
			drafts = batches[i]
		}

		added, fullyProcessed := s.processMessage(ctx, msg, drafts, accounts, categories, date)
		outcome.Added = append(outcome.Added, added...)
		if fullyProcessed {
			outcome.ProcessedIDs = append(outcome.ProcessedIDs, msg.ID)
		}
	}

	if err := s.store.MarkSynced(ctx, outcome.ProcessedIDs); err != nil {
		return fmt.Errorf("RunCycle: mark synced: %w", err)
	}

	if len(outcome.Added) > 0 {
		if !s.notifier.Send(ctx, outcome) {
			// Notification failure never affects sync state.
			log.Warn().Msg("Failed to send sync digest")
		}
	}

	log.Info().
		Int("messages", len(msgs)).
		Int("processed", len(outcome.ProcessedIDs)).
		Int("transactions", len(outcome.Added)).
		Msg("Sync cycle completed")
	return nil
}

// processMessage resolves, normalizes, and submits every draft of one
// message. Drafts are evaluated independently, but the message counts as
// fully processed only if all of them succeeded; a zero-draft message is
// fully processed. On retry, a draft at the same position reuses the same
// idempotency key, so partial resubmission is safe.
func (s *Syncer) processMessage(ctx context.Context, msg domain.PendingMessage, drafts []domain.TransactionDraft, accounts []domain.Account, categories []domain.Category, date string) ([]domain.AddedTransaction, bool) {
	log := logger.FromContext(ctx)

	if len(drafts) == 0 {
		log.Info().Str("message_id", msg.ID).Msg("Message yielded no transactions")
		return nil, true
	}

	var added []domain.AddedTransaction
	fullyProcessed := true

	for pos, draft := range drafts {
		account, ok := resolveAccount(accounts, draft.AccountName)
		if !ok {
			log.Warn().
				Str("message_id", msg.ID).
				Str("account_name", draft.AccountName).
				Msg("Account not found, draft not submitted")
			fullyProcessed = false
			continue
		}

		categoryID := ""
		if cat, ok := resolveCategory(categories, draft.CategoryName); ok {
			categoryID = cat.ID
		}

		tx := normalizeDraft(draft, msg.ID, pos, date, categoryID)
		if err := s.ledger.InsertTransaction(ctx, account.ID, tx); err != nil {
			log.Error().
				Err(err).
				Str("message_id", msg.ID).
				Str("imported_id", tx.ImportedID).
				Msg("Failed to insert ledger transaction")
			fullyProcessed = false
			continue
		}

		added = append(added, domain.AddedTransaction{
			Amount:       draft.Amount,
			PayeeName:    draft.PayeeName,
			CategoryName: draft.CategoryName,
		})
	}

	return added, fullyProcessed
}
