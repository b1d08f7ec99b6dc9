package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type Discount struct {
	gorm.Model
	Code          string          `json:"code" gorm:"size:50;unique;not null"`
	Type          DiscountType    `json:"type" gorm:"size:20;not null"`
	Value         decimal.Decimal `json:"value" gorm:"type:decimal(12,2);not null"`
	StartDate     *time.Time      `json:"startDate" gorm:"type:date"`
	EndDate       *time.Time      `json:"endDate" gorm:"type:date"`
	MinimumNights int             `json:"minimumNights" gorm:"default:1"`
	MaxUses       int             `json:"maxUses" gorm:"default:0"`
	UsedCount     int             `json:"usedCount" gorm:"default:0"`
}

type Voucher struct {
	gorm.Model
	Code      string          `json:"code" gorm:"size:50;unique;not null"`
	Value     decimal.Decimal `json:"value" gorm:"type:decimal(12,2);not null"`
	ValidFrom *time.Time      `json:"validFrom" gorm:"type:date"`
	ValidTo   *time.Time      `json:"validTo" gorm:"type:date"`
	MaxUses   int             `json:"maxUses" gorm:"default:0"`
	UsedCount int             `json:"usedCount" gorm:"default:0"`
}
