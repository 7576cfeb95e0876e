// Package extract turns a batch of raw messages into per-message transaction
// drafts using Gemini. The model is unreliable in shape, so everything it
// returns goes through a deterministic repair layer; extraction never fails
// the cycle, it only degrades to zero drafts.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dvloznov/budget-sync/internal/domain"
	"github.com/dvloznov/budget-sync/internal/logger"
)

// GeminiExtractor extracts transaction drafts with a single batched Gemini
// call per cycle, regardless of message count.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates an extractor using the given API key and model.
// The injected http.Client carries the hard per-call timeout for model calls.
func NewGeminiExtractor(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// ExtractBatch returns one draft list per input message, preserving input
// order. It never returns an error: any model, encoding, or shape failure
// degrades to empty drafts for every message so the cycle can complete and
// retry next time.
func (e *GeminiExtractor) ExtractBatch(ctx context.Context, msgs []domain.PendingMessage, accounts, categories []string) [][]domain.TransactionDraft {
	log := logger.FromContext(ctx)

	prompt, err := buildBatchPrompt(msgs, accounts, categories)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build extraction prompt")
		return emptyBatch(len(msgs))
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		log.Error().Err(err).Msg("Extraction call failed")
		return emptyBatch(len(msgs))
	}

	rawText := resp.Text()
	if rawText == "" {
		log.Error().Msg("Empty response from model")
		return emptyBatch(len(msgs))
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		log.Error().Err(err).Str("raw", truncate(rawText, 500)).Msg("Model output is not valid JSON")
		return emptyBatch(len(msgs))
	}

	return repairBatch(ctx, parsed, len(msgs))
}

// buildBatchPrompt assembles the extraction instructions for one batch.
func buildBatchPrompt(msgs []domain.PendingMessage, accounts, categories []string) (string, error) {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}

	messagesJSON, err := json.Marshal(texts)
	if err != nil {
		return "", fmt.Errorf("buildBatchPrompt: marshal messages: %w", err)
	}
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return "", fmt.Errorf("buildBatchPrompt: marshal accounts: %w", err)
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return "", fmt.Errorf("buildBatchPrompt: marshal categories: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a budget assistant that parses natural language messages into transaction data.\n\n")
	b.WriteString("Today's date is: " + time.Now().UTC().Format("2006-01-02") + "\n\n")
	b.WriteString("Available accounts: " + string(accountsJSON) + "\n")
	b.WriteString("Available categories: " + string(categoriesJSON) + "\n\n")
	b.WriteString("You are given a JSON array of messages. For EACH message, extract ALL financial transactions it mentions.\n")
	b.WriteString("A single message may contain zero, one, or several transactions.\n\n")
	b.WriteString("Output a JSON array with EXACTLY one element per input message, in the same order.\n")
	b.WriteString("Each element is itself a JSON array of transaction objects. Use an empty array for messages\n")
	b.WriteString("that are not about financial transactions (greetings, commands, noise).\n\n")
	b.WriteString("Each transaction object must have these fields:\n")
	b.WriteString("- \"valid\": true\n")
	b.WriteString("- \"account_name\": the most appropriate account from the list (use your best judgment)\n")
	b.WriteString("- \"amount\": the amount as a positive number with currency symbols stripped (e.g. 10.50 for RM10.50)\n")
	b.WriteString("- \"payee_name\": what was purchased or who was paid\n")
	b.WriteString("- \"category_name\": the most appropriate category from the list, or null if unclear\n")
	b.WriteString("- \"notes\": any additional context from the message, or null\n")
	b.WriteString("- \"is_expense\": true if spending money, false if receiving money (income)\n\n")
	b.WriteString("Messages: " + string(messagesJSON) + "\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")

	return b.String(), nil
}

// cleanModelJSON strips Markdown fences and junk around the JSON array when
// the model ignores the output instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there's still junk around the JSON array, keep only from the first
	// '[' to the last ']'.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
