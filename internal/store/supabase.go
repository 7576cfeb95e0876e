package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dvloznov/budget-sync/internal/domain"
	"github.com/dvloznov/budget-sync/internal/logger"
)

// messagesTable is the Supabase table holding incoming messages.
const messagesTable = "transactions"

// SupabaseStore is the message-store client backed by the Supabase REST API.
// The injected http.Client carries the hard per-call timeout.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewSupabaseStore creates a message-store client for the given project URL
// and service-role key.
func NewSupabaseStore(baseURL, serviceKey string, httpClient *http.Client) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpClient,
	}
}

// messageRow mirrors the Supabase row shape.
type messageRow struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// FetchPending returns every message whose synced flag is false, in insertion
// order.
func (s *SupabaseStore) FetchPending(ctx context.Context) ([]domain.PendingMessage, error) {
	log := logger.FromContext(ctx)

	query := url.Values{}
	query.Set("select", "id,message")
	query.Set("synced", "eq.false")
	query.Set("order", "created_at.asc")

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, messagesTable, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchPending: build request: %w", err)
	}
	s.setAuthHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FetchPending: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("FetchPending: unexpected status %d: %s", resp.StatusCode, body)
	}

	var rows []messageRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("FetchPending: decode response: %w", err)
	}

	messages := make([]domain.PendingMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, domain.PendingMessage{ID: row.ID, Text: row.Message})
	}

	log.Info().Int("count", len(messages)).Msg("Fetched unsynced messages")
	return messages, nil
}

// MarkSynced flips the synced flag for the given message ids in one call.
// An empty id set is a no-op with no HTTP call.
func (s *SupabaseStore) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	query := url.Values{}
	query.Set("id", fmt.Sprintf("in.(%s)", strings.Join(ids, ",")))

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, messagesTable, query.Encode())
	body, err := json.Marshal(map[string]bool{"synced": true})
	if err != nil {
		return fmt.Errorf("MarkSynced: marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("MarkSynced: build request: %w", err)
	}
	s.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("MarkSynced: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("MarkSynced: unexpected status %d: %s", resp.StatusCode, respBody)
	}

	log.Info().Int("count", len(ids)).Msg("Marked messages as synced")
	return nil
}

func (s *SupabaseStore) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
}
