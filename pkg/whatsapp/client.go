// Package whatsapp is a thin client for the Twilio WhatsApp messaging
// API. Address formatting (default country code, transport prefix) is
// handled here, not by callers.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuidador-digital/backend/config"
	"github.com/sirupsen/logrus"
)

const defaultCountryCode = "55"

type SendResult struct {
	Delivered bool   `json:"delivered"`
	SID       string `json:"sid,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	enabled    bool
}

func NewClient(cfg *config.TwilioConfig) *Client {
	enabled := cfg.Enabled && cfg.AccountSID != "" && cfg.AuthToken != ""
	if !enabled {
		logrus.Warn("Twilio credentials not provided, whatsapp sends are disabled")
	}
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    "https://api.twilio.com/2010-04-01",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		enabled:    enabled,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Send delivers one text message. Failures never raise: the outcome is
// always reported in the result so one bad send cannot break a scan.
func (c *Client) Send(ctx context.Context, to, body string) *SendResult {
	if !c.Enabled() {
		logrus.Warnf("whatsapp send skipped (gateway not configured): to=%s", to)
		return &SendResult{Delivered: false, Error: "gateway not configured"}
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	params := url.Values{}
	params.Set("From", "whatsapp:"+c.from)
	params.Set("To", FormatAddress(to))
	params.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return &SendResult{Delivered: false, Error: err.Error()}
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("whatsapp send failed: %v", err)
		return &SendResult{Delivered: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SendResult{Delivered: false, Error: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.Errorf("twilio API error: %s: %s", resp.Status, string(data))
		return &SendResult{Delivered: false, Error: fmt.Sprintf("twilio API error: %s", resp.Status)}
	}

	var payload struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return &SendResult{Delivered: false, Error: err.Error()}
	}

	logrus.Infof("whatsapp message sent: sid=%s status=%s", payload.SID, payload.Status)
	return &SendResult{Delivered: true, SID: payload.SID, Status: payload.Status}
}

// Ping verifies the Twilio account is reachable, for health checks.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("gateway not configured")
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twilio API error: %s", resp.Status)
	}
	return nil
}

// FormatAddress turns a stored number into a Twilio WhatsApp address.
// Ten or eleven digits are assumed to be a local Brazilian number.
func FormatAddress(phone string) string {
	digits := OnlyDigits(phone)
	if len(digits) == 10 || len(digits) == 11 {
		return "whatsapp:+" + defaultCountryCode + digits
	}
	return "whatsapp:+" + digits
}

// NormalizeSender strips the transport prefix and the default country
// code from an inbound sender address, leaving the digits that patients
// are stored under.
func NormalizeSender(from string) string {
	s := strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:")
	s = strings.TrimPrefix(s, "+")
	digits := OnlyDigits(s)
	if len(digits) > 11 && strings.HasPrefix(digits, defaultCountryCode) {
		digits = digits[len(defaultCountryCode):]
	}
	return digits
}

func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
