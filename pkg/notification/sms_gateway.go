package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GatewayConfig configures the HTTP SMS/voice gateway adapter.
type GatewayConfig struct {
	SMSBaseURL   string
	VoiceBaseURL string
	APIKey       string
	Timeout      time.Duration
}

// Gateway implements Sender and Caller against a simple JSON HTTP gateway.
// The http client is injectable for tests.
type Gateway struct {
	cfg GatewayConfig
	cli *http.Client
}

// NewGateway creates the adapter. cli may be nil for the default client.
func NewGateway(cfg GatewayConfig, cli *http.Client) *Gateway {
	if cli == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		cli = &http.Client{Timeout: timeout}
	}
	return &Gateway{cfg: cfg, cli: cli}
}

// SendSMS posts the message to the gateway's /send endpoint.
func (g *Gateway) SendSMS(ctx context.Context, phone, message string) error {
	if g.cfg.SMSBaseURL == "" {
		return fmt.Errorf("sms gateway not configured")
	}
	payload := map[string]string{"to": phone, "message": message}
	return g.post(ctx, g.cfg.SMSBaseURL+"/send", payload)
}

// PlaceCall posts a call request to the voice gateway.
func (g *Gateway) PlaceCall(ctx context.Context, phone string) error {
	if g.cfg.VoiceBaseURL == "" {
		return fmt.Errorf("voice gateway not configured")
	}
	return g.post(ctx, g.cfg.VoiceBaseURL+"/call", map[string]string{"to": phone})
}

// PlaceEmergencyCall dials an emergency short code through the voice gateway's
// priority endpoint.
func (g *Gateway) PlaceEmergencyCall(ctx context.Context, number string) error {
	if g.cfg.VoiceBaseURL == "" {
		return fmt.Errorf("voice gateway not configured")
	}
	return g.post(ctx, g.cfg.VoiceBaseURL+"/emergency-call", map[string]string{"to": number})
}

func (g *Gateway) post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.cli.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
