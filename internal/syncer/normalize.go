package syncer

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-sync/internal/domain"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// idempotencyKey derives the stable key for a draft from its source message
// and zero-based position within that message. Position 0 is the bare
// message id so single-draft messages keep the historical key shape. The key
// must be identical across retries so resubmission after a crash does not
// duplicate ledger rows.
func idempotencyKey(messageID string, position int) string {
	if position == 0 {
		return messageID
	}
	return messageID + "-" + strconv.Itoa(position)
}

// normalizeDraft converts a valid, resolved draft into a ledger-ready record.
// The amount becomes signed integer minor units (negated for expenses),
// notes never propagate as null, and the category field is present only when
// resolution succeeded.
func normalizeDraft(draft domain.TransactionDraft, messageID string, position int, date, categoryID string) domain.LedgerTransaction {
	amountMinor := draft.Amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
	if draft.IsExpense {
		amountMinor = -amountMinor
	}

	return domain.LedgerTransaction{
		Date:       date,
		Amount:     amountMinor,
		PayeeName:  draft.PayeeName,
		Notes:      draft.Notes,
		Category:   categoryID,
		ImportedID: idempotencyKey(messageID, position),
	}
}
