package payment

import "context"

// Invoice is a hosted crypto invoice at the external processor.
type Invoice struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
	Status     string `json:"status"`
}

// InvoiceProcessor is the external crypto payment processor behind payment
// widgets. Widgets embed the hosted invoice; the processor notifies us of
// payments through the IPN callback route.
type InvoiceProcessor interface {
	// Name returns the processor identifier.
	Name() string

	// CreateInvoice creates a reusable hosted invoice for a widget.
	CreateInvoice(ctx context.Context, description string) (*Invoice, error)

	// InvoiceStatus fetches the current status of an invoice.
	InvoiceStatus(ctx context.Context, invoiceID string) (*Invoice, error)
}
