// Package ledger talks to the Actual Budget HTTP bridge. The bridge is
// expected to dedupe inserted transactions on imported_id; that enforcement
// happens server-side and is assumed, not verified here.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dvloznov/budget-sync/internal/domain"
	"github.com/dvloznov/budget-sync/internal/logger"
)

// ActualClient is the ledger client backed by the Actual Budget bridge.
type ActualClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewActualClient creates a ledger client for the given bridge URL.
func NewActualClient(baseURL string, httpClient *http.Client) *ActualClient {
	return &ActualClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type referenceRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListAccounts fetches all ledger accounts. Call order is preserved; name
// ties during resolution go to the first entry the bridge returned.
func (c *ActualClient) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var rows []referenceRow
	if err := c.getJSON(ctx, "/accounts", &rows); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, domain.Account{ID: row.ID, Name: row.Name})
	}

	log := logger.FromContext(ctx)
	log.Info().Int("count", len(accounts)).Msg("Fetched accounts from ledger")
	return accounts, nil
}

// ListCategories fetches all ledger categories, order preserved.
func (c *ActualClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []referenceRow
	if err := c.getJSON(ctx, "/categories", &rows); err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, domain.Category{ID: row.ID, Name: row.Name})
	}

	log := logger.FromContext(ctx)
	log.Info().Int("count", len(categories)).Msg("Fetched categories from ledger")
	return categories, nil
}

// insertRequest is the bridge's transaction-insertion payload.
type insertRequest struct {
	AccountID   string                   `json:"account_id"`
	Transaction domain.LedgerTransaction `json:"transaction"`
}

// InsertTransaction submits one normalized transaction to the given account.
// A failure here is a per-draft signal; the caller decides what it means for
// the parent message.
func (c *ActualClient) InsertTransaction(ctx context.Context, accountID string, tx domain.LedgerTransaction) error {
	body, err := json.Marshal(insertRequest{AccountID: accountID, Transaction: tx})
	if err != nil {
		return fmt.Errorf("InsertTransaction: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("InsertTransaction: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("InsertTransaction: unexpected status %d: %s", resp.StatusCode, respBody)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("imported_id", tx.ImportedID).
		Int64("amount", tx.Amount).
		Str("payee", tx.PayeeName).
		Msg("Inserted ledger transaction")
	return nil
}

func (c *ActualClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
