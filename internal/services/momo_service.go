package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/example/foodorder/internal/logging"
	"github.com/example/foodorder/internal/metrics"
)

// MomoConfig carries the merchant credentials and endpoints of the MoMo wallet.
type MomoConfig struct {
	Endpoint    string
	PartnerCode string
	AccessKey   string
	SecretKey   string
	RedirectURL string
	IPNURL      string
	RequestType string
	Lang        string
	Timeout     time.Duration
}

// MomoService talks to the MoMo payment gateway.
type MomoService struct {
	cfg     MomoConfig
	client  *http.Client
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewMomoService(cfg MomoConfig, m *metrics.Metrics) *MomoService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Lang == "" {
		cfg.Lang = "vi"
	}
	if cfg.RequestType == "" {
		cfg.RequestType = "captureWallet"
	}
	return &MomoService{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		now:     time.Now,
	}
}

// PaymentRequest asks the gateway to open a wallet payment for an order.
type PaymentRequest struct {
	OrderID   uint
	Amount    decimal.Decimal
	OrderInfo string
}

// PaymentResult holds what the customer needs to complete the payment.
type PaymentResult struct {
	GatewayOrderID string
	RequestID      string
	PayURL         string
	Deeplink       string
	QRCodeURL      string
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink"`
	QRCodeURL    string `json:"qrCodeUrl"`
}

// MomoCallback is the instant payment notification MoMo posts after a payment attempt.
type MomoCallback struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// TransIDString formats the gateway transaction id.
func (cb MomoCallback) TransIDString() string {
	if cb.TransID == 0 {
		return ""
	}
	return strconv.FormatInt(cb.TransID, 10)
}

// CreatePayment registers a payment with MoMo and returns the pay URL.
func (s *MomoService) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	ctx, span := tracer.Start(ctx, "MomoService.CreatePayment")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", int64(req.OrderID)))

	started := s.now()
	res, err := s.createPayment(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.GatewayRequest("momo", outcome, time.Since(started).Seconds())
	return res, err
}

func (s *MomoService) createPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if s.cfg.SecretKey == "" || s.cfg.PartnerCode == "" {
		return nil, gatewayError("wallet payments are not configured", nil)
	}

	orderID := strconv.FormatUint(uint64(req.OrderID), 10)
	info := req.OrderInfo
	if info == "" {
		info = "Payment for order " + orderID
	}
	payload := momoCreateRequest{
		PartnerCode: s.cfg.PartnerCode,
		RequestID:   uuid.NewString(),
		Amount:      req.Amount.Round(0).IntPart(),
		OrderID:     fmt.Sprintf("%s_%d", orderID, s.now().UnixMilli()),
		OrderInfo:   info,
		RedirectURL: s.cfg.RedirectURL,
		IPNURL:      s.cfg.IPNURL,
		RequestType: s.cfg.RequestType,
		ExtraData:   EncodeOrderID(req.OrderID),
		Lang:        s.cfg.Lang,
	}
	payload.Signature = s.sign(createSignatureData(s.cfg.AccessKey, payload))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal MoMo create payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create MoMo request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, gatewayError("payment gateway unavailable", fmt.Errorf("execute MoMo request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gatewayError("payment gateway unavailable", fmt.Errorf("read MoMo response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gatewayError("payment gateway rejected the request",
			fmt.Errorf("MoMo create failed: status %d, body: %s", resp.StatusCode, string(respBody)))
	}

	var out momoCreateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, gatewayError("payment gateway returned an invalid response",
			fmt.Errorf("unmarshal MoMo response: %w, body: %s", err, string(respBody)))
	}
	if out.ResultCode != 0 {
		return nil, gatewayError("payment gateway rejected the request",
			fmt.Errorf("MoMo resultCode %d (%s), body: %s", out.ResultCode, out.Message, string(respBody)))
	}

	logging.FromContext(ctx).Info("momo payment created",
		zap.Uint("order_id", req.OrderID),
		zap.String("gateway_order_id", payload.OrderID),
		zap.String("request_id", payload.RequestID),
	)

	return &PaymentResult{
		GatewayOrderID: payload.OrderID,
		RequestID:      payload.RequestID,
		PayURL:         out.PayURL,
		Deeplink:       out.Deeplink,
		QRCodeURL:      out.QRCodeURL,
	}, nil
}

// VerifyCallback checks the HMAC signature of an IPN.
func (s *MomoService) VerifyCallback(cb MomoCallback) error {
	if s.cfg.SecretKey == "" {
		return signatureError("invalid signature")
	}
	expected := s.sign(callbackSignatureData(s.cfg.AccessKey, cb))
	got := strings.ToLower(strings.TrimSpace(cb.Signature))
	if !hmac.Equal([]byte(expected), []byte(got)) {
		return signatureError("invalid signature")
	}
	return nil
}

// SignCallback fills in the signature MoMo would send for cb.
func (s *MomoService) SignCallback(cb MomoCallback) MomoCallback {
	cb.Signature = s.sign(callbackSignatureData(s.cfg.AccessKey, cb))
	return cb
}

func (s *MomoService) sign(data string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SecretKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func createSignatureData(accessKey string, p momoCreateRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		accessKey, p.Amount, p.ExtraData, p.IPNURL, p.OrderID, p.OrderInfo, p.PartnerCode, p.RedirectURL, p.RequestID, p.RequestType,
	)
}

func callbackSignatureData(accessKey string, cb MomoCallback) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		accessKey, cb.Amount, cb.ExtraData, cb.Message, cb.OrderID, cb.OrderInfo, cb.OrderType, cb.PartnerCode, cb.PayType, cb.RequestID, cb.ResponseTime, cb.ResultCode, cb.TransID,
	)
}

// EncodeOrderID packs an internal order id into the gateway's extraData field.
func EncodeOrderID(orderID uint) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(orderID), 10)))
}

// DecodeOrderID reverses EncodeOrderID.
func DecodeOrderID(extraData string) (uint, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(extraData))
	if err != nil {
		return 0, &Error{Kind: KindValidation, Message: "invalid extraData", Err: err}
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, &Error{Kind: KindValidation, Message: "invalid extraData", Err: err}
	}
	return uint(id), nil
}
