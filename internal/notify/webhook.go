package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/alanmeadows/playrun/internal/config"
	"github.com/alanmeadows/playrun/internal/recap"
)

// notifyHTTPClient is a dedicated HTTP client for notifications,
// isolated from http.DefaultClient to avoid global state mutation.
var notifyHTTPClient = &http.Client{Timeout: 15 * time.Second}

// NotificationEvent represents the type of event that triggers a notification.
type NotificationEvent string

const (
	EventRunSucceeded NotificationEvent = "run_succeeded"
	EventRunFailed    NotificationEvent = "run_failed"
)

// NotificationPayload carries details about a finished run.
type NotificationPayload struct {
	Event       NotificationEvent
	Environment string
	Playbook    string
	Status      string
	ExitStatus  int
	Check       bool
	Counters    recap.Counters
	ReportFile  string
}

// Notify sends a notification to the configured Teams webhook.
// Returns nil immediately if no webhook is configured or if the event is filtered out.
func Notify(ctx context.Context, cfg *config.NotificationsConfig, payload NotificationPayload) error {
	if cfg.TeamsWebhookURL == "" {
		return nil
	}

	// Event filtering: if Events is non-empty, only notify for listed events.
	if len(cfg.Events) > 0 && !slices.Contains(cfg.Events, string(payload.Event)) {
		slog.Debug("notification event filtered out", "event", string(payload.Event))
		return nil
	}

	body, err := json.Marshal(buildAdaptiveCard(payload))
	if err != nil {
		return fmt.Errorf("marshaling notification payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.TeamsWebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("sending notification", "event", string(payload.Event), "environment", payload.Environment)

	resp, err := notifyHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// buildAdaptiveCard constructs an Adaptive Card wrapped in the Power Automate envelope.
func buildAdaptiveCard(p NotificationPayload) map[string]any {
	headerText := "✅ Playbook succeeded"
	if p.Event == EventRunFailed {
		headerText = fmt.Sprintf("❌ Playbook failed (exit %d)", p.ExitStatus)
	}
	if p.Check {
		headerText += " [check mode]"
	}

	c := p.Counters
	facts := []map[string]any{
		{"title": "Environment", "value": p.Environment},
		{"title": "Playbook", "value": p.Playbook},
		{"title": "Status", "value": p.Status},
		{"title": "Tasks", "value": fmt.Sprintf("%d in %d plays", c.Tasks, c.Plays)},
		{"title": "Recap", "value": fmt.Sprintf("ok=%d changed=%d failed=%d unreachable=%d", c.OK, c.Changed, c.Failed, c.Unreachable)},
	}
	if p.ReportFile != "" {
		facts = append(facts, map[string]any{"title": "Report", "value": p.ReportFile})
	}

	cardBody := []map[string]any{
		{
			"type":   "TextBlock",
			"size":   "Medium",
			"weight": "Bolder",
			"text":   headerText,
		},
		{
			"type":  "FactSet",
			"facts": facts,
		},
	}
	if p.Event == EventRunFailed && (c.Failed > 0 || c.Unreachable > 0) {
		cardBody = append(cardBody, map[string]any{
			"type":   "TextBlock",
			"text":   fmt.Sprintf("⚠️ %d failed, %d unreachable", c.Failed, c.Unreachable),
			"color":  "Attention",
			"wrap":   true,
			"weight": "Bolder",
		})
	}

	card := map[string]any{
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"type":    "AdaptiveCard",
		"version": "1.4",
		"body":    cardBody,
	}

	// Wrap in Power Automate envelope.
	return map[string]any{
		"type": "message",
		"attachments": []map[string]any{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content":     card,
			},
		},
	}
}
