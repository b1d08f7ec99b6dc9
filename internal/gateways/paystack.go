package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Paystack talks to the Paystack REST API. Amounts are converted to kobo
// on the way out and back to the major unit on the way in.
type Paystack struct {
	secretKey   string
	baseURL     string
	callbackURL string
	currency    string
	client      *http.Client
}

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Currency    string
}

func NewPaystack(cfg PaystackConfig) *Paystack {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "NGN"
	}
	return &Paystack{
		secretKey:   cfg.SecretKey,
		baseURL:     baseURL,
		callbackURL: cfg.CallbackURL,
		currency:    currency,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *Paystack) Name() string {
	return "paystack"
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	metadata := map[string]interface{}{
		"custom_fields": []map[string]interface{}{
			{
				"display_name":  "Booking Reference",
				"variable_name": "booking_reference",
				"value":         req.Metadata["bookingReference"],
			},
		},
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	payload := map[string]interface{}{
		"email":        req.Email,
		"amount":       toMinorUnits(req.Amount),
		"reference":    req.Reference,
		"currency":     p.currency,
		"callback_url": p.callbackURL,
		"metadata":     metadata,
	}

	var resp paystackInitResponse
	if err := p.post(ctx, "/transaction/initialize", payload, &resp); err != nil {
		log.Printf("Paystack initialize error: %v", err)
		return InitializeResult{Success: false, Message: "Payment initialization failed"}, err
	}

	if !resp.Status {
		return InitializeResult{Success: false, Message: resp.Message}, nil
	}

	return InitializeResult{
		Success:          true,
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
		Reference:        resp.Data.Reference,
	}, nil
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string          `json:"status"`
		Amount          int64           `json:"amount"`
		Reference       string          `json:"reference"`
		GatewayResponse string          `json:"gateway_response"`
		PaidAt          string          `json:"paid_at"`
	} `json:"data"`
}

func (p *Paystack) VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error) {
	var resp paystackVerifyResponse
	raw, err := p.get(ctx, "/transaction/verify/"+reference, &resp)
	if err != nil {
		log.Printf("Paystack verify error: %v", err)
		return VerifyResult{Success: false, Message: "Payment verification failed"}, err
	}

	if !resp.Status {
		return VerifyResult{Success: false, Message: resp.Message}, nil
	}

	return VerifyResult{
		Success:         true,
		Status:          resp.Data.Status,
		Amount:          fromMinorUnits(resp.Data.Amount),
		Reference:       resp.Data.Reference,
		GatewayResponse: resp.Data.GatewayResponse,
		PaidAt:          parseGatewayTime(resp.Data.PaidAt),
		RawData:         raw,
	}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA512 hex digest Paystack sends
// in x-paystack-signature over the raw request body.
func (p *Paystack) VerifyWebhookSignature(signature string, body []byte) bool {
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

type paystackWebhookBody struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		PaidAt    string          `json:"paid_at"`
	} `json:"data"`
}

func (p *Paystack) ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var wb paystackWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return WebhookEvent{}, fmt.Errorf("invalid webhook payload: %w", err)
	}

	return WebhookEvent{
		Event:     wb.Event,
		Reference: wb.Data.Reference,
		Status:    wb.Data.Status,
		PaidAt:    parseGatewayTime(wb.Data.PaidAt),
		RawData:   body,
	}, nil
}

func (p *Paystack) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *Paystack) get(ctx context.Context, path string, out interface{}) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return raw, json.Unmarshal(raw, out)
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

func parseGatewayTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
