package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/foodorder/internal/logging"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     defaultTelegramAPI,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// WithAPIBase points the service at another Bot API host.
func (s *TelegramService) WithAPIBase(base string) *TelegramService {
	s.apiBase = strings.TrimRight(base, "/")
	return s
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	logger := logging.FromContext(ctx)
	if s.botToken == "" {
		logger.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn("telegram send failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Warn("telegram unexpected status", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		logging.FromContext(ctx).Debug("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID       uint
	OrderType     string
	Items         []OrderItemNotification
	TotalAmount   decimal.Decimal
	PaymentMethod string
	Status        string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// FormatPrice formats an amount with thousand separators and currency.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "VND"
	}
	str := amount.Round(0).Abs().String()

	var result strings.Builder
	if amount.Round(0).IsNegative() {
		result.WriteByte('-')
	}
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + currency
}

// NotifyNewOrder tells the admin chat about a confirmed order.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.Name,
			item.Quantity,
			FormatPrice(item.Price, ""),
			FormatPrice(itemTotal, ""),
		))
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER #%d</b>
<b>🚚 Type:</b> %s
<b>📦 Items:</b>
%s
<b>💰 Total:</b> %s
<b>💳 Payment:</b> %s
<b>📍 Status:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderID,
		order.OrderType,
		itemsList.String(),
		FormatPrice(order.TotalAmount, ""),
		order.PaymentMethod,
		order.Status,
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// PaymentSuccessNotification contains payment success data.
type PaymentSuccessNotification struct {
	OrderID        uint
	GatewayTransID string
	Amount         decimal.Decimal
}

// NotifyPaymentSuccess sends notification about successful payment.
func (s *TelegramService) NotifyPaymentSuccess(ctx context.Context, payment PaymentSuccessNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>✅ PAYMENT RECEIVED</b>
<b>📋 Order:</b> #%d
<b>🔖 MoMo transaction:</b> %s
<b>💰 Amount:</b> %s
<b>💳 Method:</b> MoMo
━━━━━━━━━━━━━━━━━━`,
		payment.OrderID,
		payment.GatewayTransID,
		FormatPrice(payment.Amount, ""),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// notifyAsync runs a notification off the request path, detached from its cancellation.
func (s *TelegramService) notifyAsync(ctx context.Context, what string, send func(context.Context) error) {
	if s == nil {
		return
	}
	logger := logging.FromContext(ctx)
	go func() {
		bg := logging.ContextWithLogger(context.Background(), logger)
		if err := send(bg); err != nil {
			logger.Warn("telegram notification failed", zap.String("notification", what), zap.Error(err))
		}
	}()
}
