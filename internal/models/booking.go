package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

type BoardType string

const (
	BoardTypeFull BoardType = "fullBoard"
	BoardTypeHalf BoardType = "halfBoard"
)

type Booking struct {
	gorm.Model
	BookingReference string          `json:"bookingReference" gorm:"size:20;unique;not null"`
	GuestDirectoryID uint            `json:"guestDirectoryId" gorm:"not null;index"`
	GuestDirectory   *GuestDirectory `json:"guestDirectory,omitempty"`
	PodID            uint            `json:"podId" gorm:"not null;index"`
	Pod              *Pod            `json:"pod,omitempty"`
	CheckIn          time.Time       `json:"checkIn" gorm:"type:date;not null"`
	CheckOut         time.Time       `json:"checkOut" gorm:"type:date;not null"`
	TotalPrice       decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	DiscountID       *uint           `json:"discountId"`
	VoucherID        *uint           `json:"voucherId"`
	BookingStatus    BookingStatus   `json:"bookingStatus" gorm:"size:20;not null;default:pending;index"`
	BoardType        BoardType       `json:"boardType" gorm:"size:20;not null;default:fullBoard"`
	PopUpBeds        int             `json:"popUpBeds" gorm:"default:0"`
	ExpiresAt        *time.Time      `json:"expiresAt"`
	Guests           []BookingGuest  `json:"guests,omitempty" gorm:"foreignKey:BookingID"`
	Extras           []BookingExtra  `json:"extras,omitempty" gorm:"foreignKey:BookingID"`
	Payments         []BookingPayment `json:"payments,omitempty" gorm:"foreignKey:BookingID"`
	Logs             []BookingLog    `json:"logs,omitempty" gorm:"foreignKey:BookingID"`
}

// Nights returns the length of stay; the checkout day is not occupied.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

type BookingGuest struct {
	gorm.Model
	BookingID uint `json:"bookingId" gorm:"not null;index"`
	Adults    int  `json:"adults" gorm:"default:0"`
	Children  int  `json:"children" gorm:"default:0"`
	Toddlers  int  `json:"toddlers" gorm:"default:0"`
	Infants   int  `json:"infants" gorm:"default:0"`
}

type BookingExtra struct {
	gorm.Model
	BookingID  uint            `json:"bookingId" gorm:"not null;index"`
	ExtraID    uint            `json:"extraId" gorm:"not null"`
	Extra      *Extra          `json:"extra,omitempty"`
	Quantity   int             `json:"quantity" gorm:"default:1"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
}

// BookingLog is an append-only audit trail. Business logic only writes it.
type BookingLog struct {
	gorm.Model
	BookingID uint   `json:"bookingId" gorm:"not null;index"`
	Action    string `json:"action" gorm:"type:text;not null"`
	OldStatus string `json:"oldStatus" gorm:"size:20"`
	NewStatus string `json:"newStatus" gorm:"size:20"`
}
