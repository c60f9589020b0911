package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newMomoAgainst(t *testing.T, handler http.HandlerFunc) (*MomoService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewMomoService(MomoConfig{
		Endpoint:    srv.URL,
		PartnerCode: "MOMOTEST",
		AccessKey:   "access",
		SecretKey:   "secret",
		RedirectURL: "https://shop.example/return",
		IPNURL:      "https://api.shop.example/api/payments/momo/ipn",
	}, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, srv
}

func TestCreatePaymentSignsRequest(t *testing.T) {
	var got momoCreateRequest
	svc, _ := newMomoAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(momoCreateResponse{
			ResultCode: 0,
			PayURL:     "https://test-payment.momo.vn/pay/abc",
			Deeplink:   "momo://app?abc",
		})
	})

	res, err := svc.CreatePayment(context.Background(), PaymentRequest{OrderID: 42, Amount: dec("125000.00")})
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	if got.OrderID != "42_1700000000000" {
		t.Errorf("orderId = %q, want 42_1700000000000", got.OrderID)
	}
	if got.Amount != 125000 {
		t.Errorf("amount = %d, want 125000", got.Amount)
	}
	if got.RequestType != "captureWallet" || got.RequestID == "" {
		t.Errorf("requestType/requestId = %q/%q", got.RequestType, got.RequestID)
	}
	if id, err := DecodeOrderID(got.ExtraData); err != nil || id != 42 {
		t.Errorf("DecodeOrderID(extraData) = %d, %v; want 42", id, err)
	}

	want := svc.sign(createSignatureData("access", got))
	if got.Signature != want {
		t.Errorf("signature = %s, want %s", got.Signature, want)
	}
	if !strings.HasPrefix(createSignatureData("access", got), "accessKey=access&amount=125000&extraData=") {
		t.Errorf("signature data not in alphabetical field order: %s", createSignatureData("access", got))
	}

	if res.PayURL != "https://test-payment.momo.vn/pay/abc" || res.GatewayOrderID != got.OrderID || res.RequestID != got.RequestID {
		t.Errorf("CreatePayment() = %+v", res)
	}
}

func TestCreatePaymentGatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantRaw string
	}{
		{name: "http error", status: http.StatusInternalServerError, body: "upstream down", wantRaw: "upstream down"},
		{name: "result code", status: http.StatusOK, body: `{"resultCode":1001,"message":"insufficient balance"}`, wantRaw: "insufficient balance"},
		{name: "bad json", status: http.StatusOK, body: "<html>", wantRaw: "<html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newMomoAgainst(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.CreatePayment(context.Background(), PaymentRequest{OrderID: 1, Amount: dec("1000")})
			if KindOf(err) != KindGateway {
				t.Fatalf("CreatePayment() error = %v, want gateway error", err)
			}
			if !strings.Contains(err.Error(), tt.wantRaw) {
				t.Errorf("error %q does not carry raw body %q", err.Error(), tt.wantRaw)
			}
		})
	}
}

func TestCreatePaymentUnconfigured(t *testing.T) {
	svc := NewMomoService(MomoConfig{Endpoint: "http://momo.invalid"}, nil)
	if _, err := svc.CreatePayment(context.Background(), PaymentRequest{OrderID: 1, Amount: dec("1")}); KindOf(err) != KindGateway {
		t.Fatalf("CreatePayment() error = %v, want gateway error", err)
	}
}

func TestVerifyCallback(t *testing.T) {
	svc := testMomo()
	signed := svc.SignCallback(MomoCallback{
		PartnerCode:  "MOMOTEST",
		OrderID:      "42_1700000000000",
		RequestID:    "req",
		Amount:       125000,
		TransID:      2147483647,
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1700000000999,
		ExtraData:    EncodeOrderID(42),
	})

	if err := svc.VerifyCallback(signed); err != nil {
		t.Fatalf("VerifyCallback(signed) error = %v", err)
	}

	upper := signed
	upper.Signature = strings.ToUpper(signed.Signature)
	if err := svc.VerifyCallback(upper); err != nil {
		t.Errorf("VerifyCallback(uppercase) error = %v, want nil", err)
	}

	tampered := []func(*MomoCallback){
		func(cb *MomoCallback) { cb.Amount++ },
		func(cb *MomoCallback) { cb.ResultCode = 1006 },
		func(cb *MomoCallback) { cb.ExtraData = EncodeOrderID(43) },
		func(cb *MomoCallback) { cb.TransID = 1 },
		func(cb *MomoCallback) { cb.Signature = "" },
	}
	for i, mutate := range tampered {
		cb := signed
		mutate(&cb)
		if err := svc.VerifyCallback(cb); KindOf(err) != KindSignature {
			t.Errorf("tamper %d: VerifyCallback() error = %v, want signature error", i, err)
		}
	}

	other := NewMomoService(MomoConfig{AccessKey: "access", SecretKey: "other"}, nil)
	if err := other.VerifyCallback(signed); KindOf(err) != KindSignature {
		t.Errorf("VerifyCallback(other secret) error = %v, want signature error", err)
	}
}

func TestDecodeOrderID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint
		wantErr bool
	}{
		{in: EncodeOrderID(1), want: 1},
		{in: EncodeOrderID(987654), want: 987654},
		{in: "not base64!", wantErr: true},
		{in: "YWJj", wantErr: true}, // "abc"
		{in: "MA==", wantErr: true}, // "0"
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := DecodeOrderID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("DecodeOrderID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DecodeOrderID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
