package mailer

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Mailer sends transactional email through a Resend-compatible HTTP API.
// All callers treat send failures as advisory: the triggering operation is
// already committed, so errors are returned for logging and nothing else.
type Mailer struct {
	from       string
	adminEmail string
	enabled    bool
	client     *resty.Client
	logger     *zap.Logger
}

// New creates a mailer. With an empty API key the mailer is disabled and
// every send becomes a logged no-op, which keeps local development working
// without a provider account.
func New(apiKey, baseURL, from, adminEmail string, logger *zap.Logger) *Mailer {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &Mailer{
		from:       from,
		adminEmail: adminEmail,
		enabled:    apiKey != "",
		client:     resty.New().SetBaseURL(baseURL).SetAuthToken(apiKey),
		logger:     logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (m *Mailer) send(to, subject, html string) error {
	if !m.enabled {
		m.logger.Debug("mailer disabled, skipping send", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	var result sendResponse
	resp, err := m.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(sendRequest{From: m.from, To: []string{to}, Subject: subject, HTML: html}).
		SetResult(&result).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("mail send to %s failed: %w", to, err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail send to %s failed: %s (%s)", to, resp.Status(), result.Message)
	}
	return nil
}
