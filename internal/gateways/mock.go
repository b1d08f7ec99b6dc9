package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
)

// Mock is an in-memory gateway used by tests and the mock-success endpoint.
// Results are configurable per instance; call counts are recorded.
type Mock struct {
	GatewayName string
	Secret      string

	InitResult   InitializeResult
	InitErr      error
	VerifyResult VerifyResult
	VerifyErr    error

	mu          sync.Mutex
	InitCalls   int
	VerifyCalls int
}

func NewMock() *Mock {
	return &Mock{
		GatewayName: "mock",
		InitResult: InitializeResult{
			Success:          true,
			AuthorizationURL: "https://checkout.example.test/session",
			AccessCode:       "mock_access",
		},
		VerifyResult: VerifyResult{Success: true, Status: StatusPending},
	}
}

func (m *Mock) Name() string {
	if m.GatewayName == "" {
		return "mock"
	}
	return m.GatewayName
}

func (m *Mock) InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	m.mu.Lock()
	m.InitCalls++
	m.mu.Unlock()
	res := m.InitResult
	if res.Reference == "" {
		res.Reference = req.Reference
	}
	return res, m.InitErr
}

func (m *Mock) VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error) {
	m.mu.Lock()
	m.VerifyCalls++
	m.mu.Unlock()
	res := m.VerifyResult
	if res.Reference == "" {
		res.Reference = reference
	}
	return res, m.VerifyErr
}

func (m *Mock) VerifyWebhookSignature(signature string, body []byte) bool {
	mac := hmac.New(sha512.New, []byte(m.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

// Sign computes the signature VerifyWebhookSignature expects; test helper.
func (m *Mock) Sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(m.Secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type mockWebhookBody struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	PaidAt    string `json:"paidAt"`
}

func (m *Mock) ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var wb mockWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return WebhookEvent{}, err
	}
	return WebhookEvent{
		Event:     wb.Event,
		Reference: wb.Reference,
		Status:    wb.Status,
		PaidAt:    parseGatewayTime(wb.PaidAt),
		RawData:   body,
	}, nil
}
