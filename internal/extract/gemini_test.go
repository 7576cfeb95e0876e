package extract

import (
	"strings"
	"testing"

	"github.com/dvloznov/budget-sync/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain array untouched",
			raw:  `[[{"valid": true}]]`,
			want: `[[{"valid": true}]]`,
		},
		{
			name: "json code fence stripped",
			raw:  "```json\n[[]]\n```",
			want: "[[]]",
		},
		{
			name: "bare code fence stripped",
			raw:  "```\n[[], []]\n```",
			want: "[[], []]",
		},
		{
			name: "prose around the array removed",
			raw:  "Here is the result:\n[[]]\nHope that helps!",
			want: "[[]]",
		},
		{
			name: "leading and trailing whitespace trimmed",
			raw:  "  \n [[]] \n ",
			want: "[[]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanModelJSON(tt.raw)
			if got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBuildBatchPrompt(t *testing.T) {
	msgs := []domain.PendingMessage{
		{ID: "m1", Text: "rm50 on food"},
		{ID: "m2", Text: "hello"},
	}
	accounts := []string{"savings", "Credit Card"}
	categories := []string{"Food"}

	prompt, err := buildBatchPrompt(msgs, accounts, categories)
	if err != nil {
		t.Fatalf("buildBatchPrompt failed: %v", err)
	}

	for _, want := range []string{
		`["rm50 on food","hello"]`,
		`["savings","Credit Card"]`,
		`["Food"]`,
		"one element per input message",
		"is_expense",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Message ids never reach the model; only the text does.
	if strings.Contains(prompt, "m1") {
		t.Error("prompt leaked message id")
	}
}
