// Package notify formats and sends the per-cycle sync digest to Telegram.
// Sending is fire-and-forget: a failure is logged and swallowed, never an
// error, and never affects sync state.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-sync/internal/domain"
	"github.com/dvloznov/budget-sync/internal/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends digests through the Telegram Bot API.
type TelegramNotifier struct {
	apiBase    string
	botToken   string
	chatID     string
	httpClient *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot and chat.
func NewTelegramNotifier(botToken, chatID string, httpClient *http.Client) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase:    telegramAPIBase,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: httpClient,
	}
}

// Send formats and delivers the digest for one cycle. Returns false on any
// failure.
func (n *TelegramNotifier) Send(ctx context.Context, outcome domain.SyncOutcome) bool {
	if len(outcome.Added) == 0 {
		return true
	}
	return n.sendMessage(ctx, FormatDigest(outcome))
}

// FormatDigest renders the human-readable summary: header, one line per
// added transaction, then total amount and count.
func FormatDigest(outcome domain.SyncOutcome) string {
	total := decimal.Zero

	var b strings.Builder
	b.WriteString("✅ <b>Budget Sync Complete</b>\n\n")

	for _, tx := range outcome.Added {
		category := tx.CategoryName
		if category == "" {
			category = "Uncategorized"
		}
		b.WriteString(fmt.Sprintf("• <b>%s</b>: RM%s (%s)\n", tx.PayeeName, tx.Amount.StringFixed(2), category))
		total = total.Add(tx.Amount)
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("<b>Total:</b> RM%s\n", total.StringFixed(2)))
	b.WriteString(fmt.Sprintf("<b>Transactions:</b> %d", len(outcome.Added)))

	return b.String()
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) bool {
	log := logger.FromContext(ctx)

	payload := map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal Telegram payload")
		return false
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build Telegram request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send Telegram message")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("Telegram API returned non-success status")
		return false
	}

	log.Info().Str("chat_id", n.chatID).Msg("Sent Telegram digest")
	return true
}
