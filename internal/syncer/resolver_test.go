package syncer

import (
	"testing"

	"github.com/dvloznov/budget-sync/internal/domain"
)

func TestResolveAccount(t *testing.T) {
	accounts := []domain.Account{
		{ID: "a1", Name: "savings"},
		{ID: "a2", Name: "Credit Card"},
		{ID: "a3", Name: "SAVINGS"}, // duplicate name, different case
	}

	tests := []struct {
		name    string
		lookup  string
		wantID  string
		wantHit bool
	}{
		{"case-insensitive match", "Savings", "a1", true},
		{"exact match", "Credit Card", "a2", true},
		{"mixed case", "cReDiT cArD", "a2", true},
		{"first match wins on duplicates", "savings", "a1", true},
		{"no match", "Checking", "", false},
		{"no partial matching", "Credit", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, ok := resolveAccount(accounts, tt.lookup)
			if ok != tt.wantHit {
				t.Fatalf("resolveAccount(%q) hit = %v, want %v", tt.lookup, ok, tt.wantHit)
			}
			if acc.ID != tt.wantID {
				t.Errorf("resolveAccount(%q) id = %q, want %q", tt.lookup, acc.ID, tt.wantID)
			}
		})
	}
}

func TestResolveCategory(t *testing.T) {
	categories := []domain.Category{
		{ID: "c1", Name: "Food"},
		{ID: "c2", Name: "Transport"},
	}

	if cat, ok := resolveCategory(categories, "food"); !ok || cat.ID != "c1" {
		t.Errorf("resolveCategory(food) = %v, %v", cat, ok)
	}
	if _, ok := resolveCategory(categories, "Entertainment"); ok {
		t.Error("Expected no match for unknown category")
	}
	// Absent category is tolerated, not an error.
	if _, ok := resolveCategory(categories, ""); ok {
		t.Error("Expected no match for empty category name")
	}
}
