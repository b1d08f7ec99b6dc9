package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusInitiated  PaymentStatus = "initiated"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusAbandoned  PaymentStatus = "abandoned"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// BookingPayment records one payment attempt. A booking may accumulate
// several attempts across retries and gateway switches; at most one may
// ever reach successful.
type BookingPayment struct {
	gorm.Model
	BookingID            uint            `json:"bookingId" gorm:"not null;index"`
	Amount               decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Gateway              string          `json:"gateway" gorm:"size:50;not null"`
	PaymentStatus        PaymentStatus   `json:"paymentStatus" gorm:"size:20;not null;default:initiated;index"`
	TransactionReference string          `json:"transactionReference" gorm:"size:100;unique;not null"`
	GatewayReference     string          `json:"gatewayReference" gorm:"size:150"`
	GatewayResponse      string          `json:"-" gorm:"type:text"`
	Notes                string          `json:"notes" gorm:"type:text"`
	// WebhookProcessedAt is the idempotency marker. It is stamped by
	// whichever path (webhook, verify, callback) settles the attempt first.
	WebhookProcessedAt *time.Time `json:"webhookProcessedAt"`
	PaidAt             *time.Time `json:"paidAt"`
}

// Payment is the admin-facing ledger row written once per confirmed booking.
type Payment struct {
	gorm.Model
	BookingReference string          `json:"bookingReference" gorm:"size:20;not null;index"`
	GuestName        string          `json:"guestName" gorm:"size:150"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status           string          `json:"status" gorm:"size:20;not null"`
}

// PaymentToken maps an opaque 64-character token to a booking so public
// payment links never carry the internal booking id.
type PaymentToken struct {
	gorm.Model
	Token     string     `json:"-" gorm:"size:64;unique;not null"`
	BookingID uint       `json:"bookingId" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time `json:"usedAt"`
}
