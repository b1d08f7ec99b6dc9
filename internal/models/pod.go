package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Pod struct {
	gorm.Model
	PodName        string          `json:"podName" gorm:"size:100;not null"`
	Description    string          `json:"description" gorm:"type:text"`
	Rules          string          `json:"rules" gorm:"type:text"`
	Amenities      string          `json:"amenities" gorm:"type:text"` // comma-separated list
	BaseAdultPrice decimal.Decimal `json:"baseAdultPrice" gorm:"type:decimal(12,2);not null"`
	MaxAdults      int             `json:"maxAdults" gorm:"default:2"`
	MaxChildren    int             `json:"maxChildren" gorm:"default:0"`
	MaxToddlers    int             `json:"maxToddlers" gorm:"default:0"`
	MaxInfants     int             `json:"maxInfants" gorm:"default:2"`
	IsActive       bool            `json:"isActive" gorm:"default:true"`
	Images         []PodImage      `json:"images" gorm:"foreignKey:PodID"`
	PriceRules     []PodPriceRule  `json:"priceRules" gorm:"foreignKey:PodID"`
}

type PodImage struct {
	gorm.Model
	PodID    uint   `json:"podId" gorm:"not null;index"`
	ImageURL string `json:"imageUrl" gorm:"type:text;not null"`
	Caption  string `json:"caption" gorm:"size:255"`
}

// PodPriceRule expresses a guest category's rate as a percentage of the
// pod's adult rate.
type PodPriceRule struct {
	gorm.Model
	PodID           uint            `json:"podId" gorm:"not null;index"`
	GuestType       string          `json:"guestType" gorm:"size:20;not null"` // child, toddler, infant
	PricePercentage decimal.Decimal `json:"pricePercentage" gorm:"type:decimal(5,2);not null"`
}
