// Package campaign sends welcome messages to new leads through the external
// messaging campaign API. Every call is fire-and-forget: failures are logged,
// never propagated.
package campaign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"admissions_backend/platform/config"
	"admissions_backend/platform/logger"
)

const defaultHTTPTimeout = 10 * time.Second

// Client posts to the campaign webhook.
type Client struct {
	httpClient *http.Client
	cfg        config.CampaignConfig
	log        *logger.Logger
}

func New(cfg config.CampaignConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cfg:        cfg,
		log:        log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c.cfg.GetCampaignWebhookURL() != ""
}

type welcomePayload struct {
	Phone  string `json:"phone"`
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Grade  string `json:"grade"`
}

// SendWelcome posts the new lead's details to the campaign API. A non-2xx
// response counts as failure. The caller treats any error as a soft warning.
func (c *Client) SendWelcome(ctx context.Context, phone, parent, child, grade string) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(welcomePayload{
		Phone:  phone,
		Parent: parent,
		Child:  child,
		Grade:  grade,
	})
	if err != nil {
		return fmt.Errorf("marshal welcome payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GetCampaignWebhookURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build welcome request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := c.cfg.GetCampaignAPIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post welcome message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("campaign API returned status %d", resp.StatusCode)
	}
	return nil
}
