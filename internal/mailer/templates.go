package mailer

import (
	"fmt"
	"strings"
	"time"

	"streamvault/internal/models"
)

// SendOrderConfirmation tells the buyer their order was received and is
// awaiting payment verification.
func (m *Mailer) SendOrderConfirmation(to string, order *models.Order, planName string) error {
	subject := fmt.Sprintf("Order %s received", shortNo(order.OrderNo))
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thanks for your order!</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> — %s, %d connection(s), %s.</p>",
		order.OrderNo, planName, order.Connections, order.Price)
	if order.PaymentMethodName != "" {
		fmt.Fprintf(&b, "<p>Payment method: %s</p>", order.PaymentMethodName)
	}
	b.WriteString("<p>We will verify your payment shortly. You will receive your access details by email once the order is approved.</p>")
	return m.send(to, subject, b.String())
}

// SendNewOrderAlert copies the admin alias on every new order.
func (m *Mailer) SendNewOrderAlert(order *models.Order, buyerEmail string) error {
	if m.adminEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("New order %s", shortNo(order.OrderNo))
	body := fmt.Sprintf(
		"<p>New order <strong>%s</strong> from %s.</p><p>Plan #%d, %d connection(s), %s via %s.</p>",
		order.OrderNo, buyerEmail, order.PlanID, order.Connections, order.Price, methodLabel(order))
	return m.send(m.adminEmail, subject, body)
}

// SendPaymentVerified tells the buyer their payment was approved.
func (m *Mailer) SendPaymentVerified(to string, order *models.Order) error {
	subject := fmt.Sprintf("Payment for order %s verified", shortNo(order.OrderNo))
	body := fmt.Sprintf(
		"<h2>Payment verified</h2><p>Your payment for order <strong>%s</strong> has been verified. Your access credentials will be delivered in a separate email.</p>",
		order.OrderNo)
	return m.send(to, subject, body)
}

// SendPaymentRejected tells the buyer why their payment was rejected.
func (m *Mailer) SendPaymentRejected(to string, order *models.Order, reason string) error {
	subject := fmt.Sprintf("Payment for order %s rejected", shortNo(order.OrderNo))
	body := fmt.Sprintf(
		"<h2>Payment rejected</h2><p>Your payment for order <strong>%s</strong> could not be verified.</p><p>Reason: %s</p><p>Reply to this email if you believe this is a mistake.</p>",
		order.OrderNo, reason)
	return m.send(to, subject, body)
}

// SendCredentialsDelivered delivers the access details for one connection
// slot. Only the fields germane to the credential type are included.
func (m *Mailer) SendCredentialsDelivered(to string, cred *models.IptvCredential) error {
	subject := fmt.Sprintf("Your IPTV access details (connection %d)", cred.ConnectionNumber)
	var b strings.Builder
	b.WriteString("<h2>Your access details</h2>")
	fmt.Fprintf(&b, "<p>Connection %d — %s</p><ul>", cred.ConnectionNumber, cred.CredentialType)

	if cred.CredentialType == models.CredentialTypeXtream || cred.CredentialType == models.CredentialTypeCombined {
		fmt.Fprintf(&b, "<li>Server: %s</li><li>Username: %s</li><li>Password: %s</li>",
			cred.ServerURL, cred.Username, cred.Password)
	}
	if cred.CredentialType == models.CredentialTypeM3U || cred.CredentialType == models.CredentialTypeCombined {
		fmt.Fprintf(&b, "<li>M3U URL: %s</li>", cred.M3UURL)
		if cred.EPGURL != "" {
			fmt.Fprintf(&b, "<li>EPG URL: %s</li>", cred.EPGURL)
		}
	}
	if cred.CredentialType == models.CredentialTypePortal || cred.CredentialType == models.CredentialTypeCombined {
		fmt.Fprintf(&b, "<li>Portal URL: %s</li><li>MAC address: %s</li>", cred.PortalURL, cred.MacAddress)
	}

	b.WriteString("</ul>")
	if cred.ExpiresAt != nil {
		fmt.Fprintf(&b, "<p>Valid until %s.</p>", cred.ExpiresAt.Format("2006-01-02"))
	}
	return m.send(to, subject, b.String())
}

// SendExpiryReminder warns the user a credential is about to expire.
func (m *Mailer) SendExpiryReminder(to string, cred *models.IptvCredential) error {
	if cred.ExpiresAt == nil {
		return nil
	}
	days := int(time.Until(*cred.ExpiresAt).Hours() / 24)
	subject := "Your IPTV access expires soon"
	body := fmt.Sprintf(
		"<p>Your access for connection %d expires on %s (%d day(s) left). Renew your plan to keep watching.</p>",
		cred.ConnectionNumber, cred.ExpiresAt.Format("2006-01-02"), days)
	return m.send(to, subject, body)
}

func shortNo(orderNo string) string {
	if len(orderNo) > 8 {
		return orderNo[:8]
	}
	return orderNo
}

func methodLabel(order *models.Order) string {
	if order.PaymentMethodName != "" {
		return order.PaymentMethodName
	}
	if order.PaymentWidgetID != nil {
		return "crypto widget"
	}
	return "unspecified"
}
