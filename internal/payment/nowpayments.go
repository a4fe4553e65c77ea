package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"streamvault/internal/pkg/httpclient"
)

// NOWPaymentsProcessor implements InvoiceProcessor against the NOWPayments
// API. Payment widgets embed its hosted invoices.
type NOWPaymentsProcessor struct {
	apiKey      string
	ipnCallback string
	client      *httpclient.Client
}

func NewNOWPaymentsProcessor(apiKey, ipnCallback string) *NOWPaymentsProcessor {
	return &NOWPaymentsProcessor{
		apiKey:      apiKey,
		ipnCallback: ipnCallback,
		client: httpclient.New().
			WithTimeout(30*time.Second).
			WithHeader("x-api-key", apiKey).
			WithHeader("Content-Type", "application/json"),
	}
}

func (n *NOWPaymentsProcessor) Name() string {
	return "nowpayments"
}

func (n *NOWPaymentsProcessor) CreateInvoice(ctx context.Context, description string) (*Invoice, error) {
	body := map[string]interface{}{
		"price_currency":    "usd",
		"order_description": description,
		"ipn_callback_url":  n.ipnCallback,
	}

	resp, err := n.client.Post("https://api.nowpayments.io/v1/invoice", body)
	if err != nil {
		return nil, fmt.Errorf("nowpayments create invoice failed: %w", err)
	}

	var result struct {
		ID         json.Number `json:"id"`
		InvoiceURL string      `json:"invoice_url"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("nowpayments parse error: %w", err)
	}
	if result.ID.String() == "" {
		return nil, fmt.Errorf("nowpayments returned no invoice id")
	}

	return &Invoice{
		ID:         result.ID.String(),
		InvoiceURL: result.InvoiceURL,
	}, nil
}

func (n *NOWPaymentsProcessor) InvoiceStatus(ctx context.Context, invoiceID string) (*Invoice, error) {
	resp, err := n.client.Get("https://api.nowpayments.io/v1/payment/" + invoiceID)
	if err != nil {
		return nil, fmt.Errorf("nowpayments status failed: %w", err)
	}

	var result struct {
		PaymentStatus string `json:"payment_status"`
		InvoiceURL    string `json:"invoice_url"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("nowpayments status parse error: %w", err)
	}

	return &Invoice{
		ID:         invoiceID,
		InvoiceURL: result.InvoiceURL,
		Status:     result.PaymentStatus,
	}, nil
}
