package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-sync/internal/domain"
	"github.com/dvloznov/budget-sync/internal/logger"
)

// repairBatch forces arbitrary decoded model output into exactly n draft
// lists. Wrong outer length is padded or truncated, non-list elements are
// wrapped or dropped, and malformed entries are discarded. The repair is
// deterministic so a retried batch repairs the same way.
func repairBatch(ctx context.Context, parsed interface{}, n int) [][]domain.TransactionDraft {
	log := logger.FromContext(ctx)

	outer, ok := parsed.([]interface{})
	if !ok {
		log.Warn().Str("type", fmt.Sprintf("%T", parsed)).Msg("Model output is not a list, dropping batch")
		return emptyBatch(n)
	}

	if len(outer) != n {
		log.Warn().Int("got", len(outer)).Int("want", n).Msg("Model returned wrong batch length, repairing")
		if len(outer) > n {
			outer = outer[:n]
		} else {
			padded := make([]interface{}, n)
			copy(padded, outer)
			for i := len(outer); i < n; i++ {
				padded[i] = []interface{}{}
			}
			outer = padded
		}
	}

	batch := make([][]domain.TransactionDraft, n)
	for i, entry := range outer {
		batch[i] = repairEntry(ctx, entry, i)
	}
	return batch
}

// repairEntry coerces one per-message entry into a draft list. A non-list
// scalar that looks like a single draft object is wrapped as a singleton;
// anything else becomes empty.
func repairEntry(ctx context.Context, entry interface{}, index int) []domain.TransactionDraft {
	log := logger.FromContext(ctx)

	var items []interface{}
	switch v := entry.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		items = []interface{}{v}
	case nil:
		return nil
	default:
		log.Warn().Int("message_index", index).Str("type", fmt.Sprintf("%T", entry)).Msg("Per-message entry is not a list, treating as empty")
		return nil
	}

	drafts := make([]domain.TransactionDraft, 0, len(items))
	for j, item := range items {
		draft, err := decodeDraft(item)
		if err != nil {
			log.Warn().Err(err).Int("message_index", index).Int("draft_index", j).Msg("Dropping malformed draft")
			continue
		}
		if !draft.Valid {
			// Model judged this position not to be a transaction.
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// decodeDraft converts one model transaction object into a TransactionDraft.
func decodeDraft(item interface{}) (domain.TransactionDraft, error) {
	var draft domain.TransactionDraft

	obj, ok := item.(map[string]interface{})
	if !ok {
		return draft, fmt.Errorf("decodeDraft: element is %T, want map[string]interface{}", item)
	}

	draft.Valid = getBoolField(obj, "valid")
	if !draft.Valid {
		return draft, nil
	}

	accountName, err := getStringField(obj, "account_name", true)
	if err != nil {
		return draft, fmt.Errorf("decodeDraft: %w", err)
	}
	payeeName, err := getStringField(obj, "payee_name", true)
	if err != nil {
		return draft, fmt.Errorf("decodeDraft: %w", err)
	}
	amount, err := getAmountField(obj, "amount")
	if err != nil {
		return draft, fmt.Errorf("decodeDraft: %w", err)
	}
	if !amount.IsPositive() {
		return draft, fmt.Errorf("decodeDraft: amount must be positive, got %s", amount)
	}

	categoryName, err := getOptionalStringField(obj, "category_name")
	if err != nil {
		return draft, fmt.Errorf("decodeDraft: %w", err)
	}
	notes, err := getOptionalStringField(obj, "notes")
	if err != nil {
		return draft, fmt.Errorf("decodeDraft: %w", err)
	}

	draft.AccountName = accountName
	draft.PayeeName = payeeName
	draft.Amount = amount
	if categoryName != nil {
		draft.CategoryName = *categoryName
	}
	if notes != nil {
		draft.Notes = *notes
	}
	// Treat a missing is_expense as spending, the common case.
	if v, present := obj["is_expense"]; present {
		b, ok := v.(bool)
		if !ok {
			return draft, fmt.Errorf("decodeDraft: field %q has type %T, want bool", "is_expense", v)
		}
		draft.IsExpense = b
	} else {
		draft.IsExpense = true
	}

	return draft, nil
}

func emptyBatch(n int) [][]domain.TransactionDraft {
	return make([][]domain.TransactionDraft, n)
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

// getAmountField reads a model amount, tolerating both JSON numbers and
// numeric strings.
func getAmountField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q is not a number: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

func getBoolField(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}
