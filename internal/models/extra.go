package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Extra struct {
	gorm.Model
	Name        string          `json:"name" gorm:"size:150;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Category    string          `json:"category" gorm:"size:100"`
	ImageURL    string          `json:"imageUrl" gorm:"type:text"`
}
