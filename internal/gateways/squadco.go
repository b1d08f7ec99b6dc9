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
)

// SquadCo talks to the Squad payment API. Its status vocabulary and webhook
// envelope differ from Paystack's and are normalized here.
type SquadCo struct {
	secretKey   string
	baseURL     string
	callbackURL string
	currency    string
	client      *http.Client
}

type SquadCoConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Currency    string
}

func NewSquadCo(cfg SquadCoConfig) *SquadCo {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://sandbox-api-d.squadco.com"
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "NGN"
	}
	return &SquadCo{
		secretKey:   cfg.SecretKey,
		baseURL:     baseURL,
		callbackURL: cfg.CallbackURL,
		currency:    currency,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SquadCo) Name() string {
	return "squadco"
}

type squadcoInitResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL            string `json:"checkout_url"`
		TransactionRef         string `json:"transaction_ref"`
		MerchantTransactionRef string `json:"merchant_transaction_ref"`
	} `json:"data"`
}

func (s *SquadCo) InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	payload := map[string]interface{}{
		"email":           req.Email,
		"amount":          toMinorUnits(req.Amount),
		"initiate_type":   "inline",
		"transaction_ref": req.Reference,
		"currency":        s.currency,
		"callback_url":    s.callbackURL,
		"customer_name":   req.CustomerName,
		"metadata":        req.Metadata,
	}

	var resp squadcoInitResponse
	if err := s.post(ctx, "/transaction/initiate", payload, &resp); err != nil {
		log.Printf("SquadCo initialize error: %v", err)
		return InitializeResult{Success: false, Message: "Payment initialization failed"}, err
	}

	if !resp.Success && resp.Status != 200 {
		return InitializeResult{Success: false, Message: resp.Message}, nil
	}

	reference := resp.Data.TransactionRef
	if reference == "" {
		reference = req.Reference
	}

	return InitializeResult{
		Success:                true,
		AuthorizationURL:       resp.Data.CheckoutURL,
		Reference:              reference,
		MerchantTransactionRef: resp.Data.MerchantTransactionRef,
	}, nil
}

type squadcoVerifyResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TransactionStatus   string `json:"transaction_status"`
		TransactionAmount   int64  `json:"transaction_amount"`
		TransactionRef      string `json:"transaction_ref"`
		GatewayResponse     string `json:"gateway_response"`
		TransactionDatetime string `json:"transaction_datetime"`
	} `json:"data"`
}

func (s *SquadCo) VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error) {
	var resp squadcoVerifyResponse
	raw, err := s.get(ctx, "/transaction/verify/"+reference, &resp)
	if err != nil {
		log.Printf("SquadCo verify error: %v", err)
		return VerifyResult{Success: false, Message: "Payment verification failed"}, err
	}

	if !resp.Success && resp.Status != 200 {
		return VerifyResult{Success: false, Message: resp.Message}, nil
	}

	gatewayResponse := resp.Data.GatewayResponse
	if gatewayResponse == "" {
		gatewayResponse = resp.Data.TransactionStatus
	}

	return VerifyResult{
		Success:         true,
		Status:          normalizeSquadcoStatus(resp.Data.TransactionStatus),
		Amount:          fromMinorUnits(resp.Data.TransactionAmount),
		Reference:       resp.Data.TransactionRef,
		GatewayResponse: gatewayResponse,
		PaidAt:          parseGatewayTime(resp.Data.TransactionDatetime),
		RawData:         raw,
	}, nil
}

// VerifyWebhookSignature checks Squad's HMAC-SHA512 digest. Squad sends the
// hex digest uppercased, so the comparison is case-insensitive.
func (s *SquadCo) VerifyWebhookSignature(signature string, body []byte) bool {
	mac := hmac.New(sha512.New, []byte(s.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

type squadcoWebhookPayload struct {
	TransactionStatus   string `json:"transaction_status"`
	TransactionRef      string `json:"transaction_ref"`
	TransactionDatetime string `json:"transaction_datetime"`
}

type squadcoWebhookBody struct {
	Body *squadcoWebhookPayload `json:"Body"`
	squadcoWebhookPayload
}

func (s *SquadCo) ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var wb squadcoWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return WebhookEvent{}, fmt.Errorf("invalid webhook payload: %w", err)
	}

	payload := wb.squadcoWebhookPayload
	if wb.Body != nil {
		payload = *wb.Body
	}

	status := normalizeSquadcoStatus(payload.TransactionStatus)
	event := EventUnknown
	switch status {
	case StatusSuccess:
		event = EventChargeSuccess
	case StatusFailed:
		event = EventChargeFailed
	}

	return WebhookEvent{
		Event:     event,
		Reference: payload.TransactionRef,
		Status:    status,
		PaidAt:    parseGatewayTime(payload.TransactionDatetime),
		RawData:   body,
	}, nil
}

func normalizeSquadcoStatus(status string) string {
	switch strings.ToLower(status) {
	case "success":
		return StatusSuccess
	case "failed":
		return StatusFailed
	case "abandoned":
		return StatusAbandoned
	default:
		return StatusPending
	}
}

func (s *SquadCo) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *SquadCo) get(ctx context.Context, path string, out interface{}) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
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
