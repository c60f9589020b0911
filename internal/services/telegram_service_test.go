package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "0 VND"},
		{"999", "999 VND"},
		{"1000", "1,000 VND"},
		{"125000.4", "125,000 VND"},
		{"1234567", "1,234,567 VND"},
		{"-45000", "-45,000 VND"},
	}
	for _, tt := range tests {
		if got := FormatPrice(dec(tt.amount), ""); got != tt.want {
			t.Errorf("FormatPrice(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestNotifyNewOrderPostsToAdminChat(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "-100").WithAPIBase(srv.URL)
	err := tg.NotifyNewOrder(context.Background(), OrderNotification{
		OrderID:       12,
		OrderType:     "Pickup",
		PaymentMethod: "COD",
		Status:        "Confirmed",
		TotalAmount:   dec("90000"),
		Items:         []OrderItemNotification{{Name: "product:1", Quantity: 2, Price: dec("45000")}},
	})
	if err != nil {
		t.Fatalf("NotifyNewOrder() error = %v", err)
	}

	if path != "/bottoken/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if got.ChatID != "-100" || got.ParseMode != "HTML" {
		t.Errorf("message = %+v", got)
	}
	if !strings.Contains(got.Text, "#12") || !strings.Contains(got.Text, "90,000 VND") {
		t.Errorf("text = %q", got.Text)
	}
}

func TestTelegramSkipsWhenUnconfigured(t *testing.T) {
	tg := NewTelegramService("", "").WithAPIBase("http://127.0.0.1:1")
	if err := tg.NotifyPaymentSuccess(context.Background(), PaymentSuccessNotification{OrderID: 1}); err != nil {
		t.Fatalf("NotifyPaymentSuccess() error = %v, want nil", err)
	}
	if err := tg.SendMessage(context.Background(), "1", "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v, want nil", err)
	}
}

func TestTelegramNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "-100").WithAPIBase(srv.URL)
	if err := tg.SendToAdmin(context.Background(), "hello"); err == nil {
		t.Fatal("SendToAdmin() error = nil, want status error")
	}
}
