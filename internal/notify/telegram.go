package notify

import (
	"fmt"

	"github.com/go-resty/resty/v2"

	"streamvault/internal/models"
)

// TelegramNotifier pushes short staff alerts to the admin chat through the
// Telegram Bot API. Best effort: callers log failures and move on.
type TelegramNotifier struct {
	chatID string
	client *resty.Client
}

// NewTelegramNotifier creates a notifier, or nil when no token is
// configured so callers can skip it entirely.
func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	if token == "" || chatID == "" {
		return nil
	}
	return &TelegramNotifier{
		chatID: chatID,
		client: resty.New().SetBaseURL("https://api.telegram.org/bot" + token),
	}
}

// SendMessage sends a raw HTML-formatted message to the admin chat.
func (t *TelegramNotifier) SendMessage(text string) error {
	resp, err := t.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram sendMessage failed: %s", resp.Status())
	}
	return nil
}

// NewOrder announces a fresh order to the admin chat.
func (t *TelegramNotifier) NewOrder(order *models.Order, buyerEmail string) error {
	text := fmt.Sprintf(
		"🛒 <b>New order</b>\n\nOrder: %s\nBuyer: %s\nPlan: #%d\nConnections: %d\nPrice: %s",
		order.OrderNo, buyerEmail, order.PlanID, order.Connections, order.Price)
	return t.SendMessage(text)
}

// DailyReport pushes the end-of-day sales summary.
func (t *TelegramNotifier) DailyReport(created, verified int64) error {
	text := fmt.Sprintf(
		"📊 <b>Daily report</b>\n\nOrders created: %d\nOrders verified: %d",
		created, verified)
	return t.SendMessage(text)
}
