package syncer

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-sync/internal/domain"
)

func TestIdempotencyKey(t *testing.T) {
	tests := []struct {
		name      string
		messageID string
		position  int
		want      string
	}{
		{"first draft uses bare message id", "m1", 0, "m1"},
		{"second draft appends position", "m1", 1, "m1-1"},
		{"later positions keep the scheme", "m1", 7, "m1-7"},
		{"uuid-shaped ids work the same", "550e8400-e29b-41d4-a716-446655440000", 1, "550e8400-e29b-41d4-a716-446655440000-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idempotencyKey(tt.messageID, tt.position)
			if got != tt.want {
				t.Errorf("idempotencyKey(%q, %d) = %q, want %q", tt.messageID, tt.position, got, tt.want)
			}
		})
	}
}

func TestNormalizeDraft_AmountSignAndScale(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		isExpense bool
		want      int64
	}{
		{"expense 10.50 becomes -1050", "10.50", true, -1050},
		{"income 5 becomes +500", "5", false, 500},
		{"sub-cent amounts round", "10.505", true, -1051},
		{"whole expense", "100", true, -10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := domain.TransactionDraft{
				Valid:       true,
				AccountName: "savings",
				Amount:      decimal.RequireFromString(tt.amount),
				PayeeName:   "payee",
				IsExpense:   tt.isExpense,
			}
			tx := normalizeDraft(d, "m1", 0, "2026-09-01", "")
			if tx.Amount != tt.want {
				t.Errorf("Amount = %d, want %d", tx.Amount, tt.want)
			}
		})
	}
}

func TestNormalizeDraft_Fields(t *testing.T) {
	d := domain.TransactionDraft{
		Valid:        true,
		AccountName:  "savings",
		Amount:       decimal.RequireFromString("12.34"),
		PayeeName:    "grocer",
		CategoryName: "Food",
		Notes:        "weekly shop",
		IsExpense:    true,
	}

	tx := normalizeDraft(d, "m9", 2, "2026-09-01", "cat-1")

	if tx.Date != "2026-09-01" {
		t.Errorf("Date = %q", tx.Date)
	}
	if tx.PayeeName != "grocer" {
		t.Errorf("PayeeName = %q", tx.PayeeName)
	}
	if tx.Notes != "weekly shop" {
		t.Errorf("Notes = %q", tx.Notes)
	}
	if tx.Category != "cat-1" {
		t.Errorf("Category = %q", tx.Category)
	}
	if tx.ImportedID != "m9-2" {
		t.Errorf("ImportedID = %q", tx.ImportedID)
	}
}

func TestNormalizeDraft_UnresolvedCategoryOmitted(t *testing.T) {
	d := domain.TransactionDraft{
		Valid:       true,
		AccountName: "savings",
		Amount:      decimal.NewFromInt(1),
		PayeeName:   "p",
		IsExpense:   true,
	}

	tx := normalizeDraft(d, "m1", 0, "2026-09-01", "")
	if tx.Category != "" {
		t.Errorf("Category = %q, want empty so json omits it", tx.Category)
	}
	if tx.Notes != "" {
		t.Errorf("Notes = %q, want empty string, never null", tx.Notes)
	}
}
