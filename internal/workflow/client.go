// Package workflow sends structured escalation events to the downstream
// automation webhook. Fire and forget: a failed trigger is logged and never
// fed back into the crisis pipeline.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backend/internal/models"
)

// TriggerEvent is the payload POSTed to the crisis webhook.
type TriggerEvent struct {
	TriggerType   string           `json:"triggerType"`
	UserID        string           `json:"userId"`
	AlertID       string           `json:"alertId"`
	RiskLevel     models.RiskLevel `json:"riskLevel"`
	EvidenceTerms []string         `json:"evidenceTerms"`
	Timestamp     time.Time        `json:"timestamp"`
	Priority      string           `json:"priority"`
}

// NewCrisisEvent builds the trigger payload for an opened alert.
func NewCrisisEvent(alert *models.CrisisAlert) TriggerEvent {
	priority := "high"
	if alert.RiskLevel == models.RiskCrisis {
		priority = "critical"
	}
	return TriggerEvent{
		TriggerType:   "crisis_detected",
		UserID:        alert.UserID,
		AlertID:       alert.ID,
		RiskLevel:     alert.RiskLevel,
		EvidenceTerms: alert.TriggerEvidence,
		Timestamp:     alert.CreatedAt,
		Priority:      priority,
	}
}

// Client for the workflow trigger webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new workflow trigger client.
func NewClient(webhookURL string, logger *zap.Logger) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Trigger POSTs the event to the webhook. The request carries a fresh
// X-Request-ID so the receiver can deduplicate. Non-2xx is an error for the
// caller to log; it is never retried synchronously.
func (c *Client) Trigger(ctx context.Context, event TriggerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create workflow trigger request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to call workflow trigger webhook", zap.Error(err))
		return fmt.Errorf("failed to call workflow webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Workflow webhook returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("alert_id", event.AlertID))
		return fmt.Errorf("workflow webhook returned status: %d", resp.StatusCode)
	}

	c.logger.Info("Workflow trigger delivered",
		zap.String("alert_id", event.AlertID),
		zap.String("priority", event.Priority))
	return nil
}
