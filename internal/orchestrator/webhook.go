package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/reqflux/reqflux/internal/domain"
)

const webhookTimeout = 10 * time.Second

type webhookPayload struct {
	RequestID string         `json:"request_id"`
	Timestamp time.Time      `json:"timestamp"`
	Priority  string         `json:"priority"`
	Success   bool           `json:"success"`
	Duration  float64        `json:"duration"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// postWebhook delivers a terminal-outcome summary. Failures are logged
// and never reach the caller or the item's own callback (WebhookError
// disposition, §7).
func (o *Orchestrator) postWebhook(item *domain.QueueItem, result domain.Result) {
	if o.cfg.WebhookURL == "" {
		return
	}

	payload := webhookPayload{
		RequestID: result.ItemID,
		Timestamp: result.Timestamp,
		Priority:  result.Priority.String(),
		Success:   result.Success,
		Duration:  result.Duration.Seconds(),
		Metadata:  item.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		o.logger.Warn("webhook payload marshal failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		o.logger.Warn("webhook request build failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.webhookClient.Do(req)
	if err != nil {
		o.logger.Warn("webhook delivery failed", "item_id", result.ItemID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		o.logger.Warn("webhook delivery non-2xx", "status_code", resp.StatusCode)
	}
}
