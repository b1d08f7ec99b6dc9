package gateways

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Normalized transaction states shared by all gateways.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusPending   = "pending"
	StatusAbandoned = "abandoned"
)

// Normalized webhook event names.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
	EventUnknown       = "unknown"
)

type InitializeRequest struct {
	Email        string
	Amount       decimal.Decimal
	Reference    string
	CustomerName string
	Metadata     map[string]interface{}
}

type InitializeResult struct {
	Success                bool
	AuthorizationURL       string
	AccessCode             string
	MerchantTransactionRef string
	Reference              string
	Message                string
}

type VerifyResult struct {
	Success         bool
	Status          string
	Amount          decimal.Decimal
	Reference       string
	GatewayResponse string
	PaidAt          *time.Time
	Message         string
	RawData         json.RawMessage
}

type WebhookEvent struct {
	Event     string
	Reference string
	Status    string
	PaidAt    *time.Time
	RawData   json.RawMessage
}

// Gateway is the contract every payment processor integration implements.
// Amount units and status vocabularies are normalized behind this boundary.
type Gateway interface {
	Name() string
	InitializeTransaction(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error)
	VerifyWebhookSignature(signature string, body []byte) bool
	ParseWebhookEvent(body []byte) (WebhookEvent, error)
}

// Registry maps gateway identifiers to implementations so callers never
// branch on gateway name strings.
type Registry struct {
	gateways    map[string]Gateway
	defaultName string
}

func NewRegistry(defaultName string, gws ...Gateway) *Registry {
	r := &Registry{
		gateways:    make(map[string]Gateway, len(gws)),
		defaultName: defaultName,
	}
	for _, g := range gws {
		r.gateways[g.Name()] = g
	}
	return r
}

func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.gateways[name]
	return g, ok
}

// Resolve returns the gateway for name, falling back to the default for
// unknown or empty names.
func (r *Registry) Resolve(name string) Gateway {
	if g, ok := r.gateways[name]; ok {
		return g
	}
	return r.gateways[r.defaultName]
}
