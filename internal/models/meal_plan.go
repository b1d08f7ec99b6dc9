package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MealPlan struct {
	gorm.Model
	BoardType BoardType       `json:"boardType" gorm:"size:20;unique;not null"`
	Title     string          `json:"title" gorm:"size:100;not null"`
	Subtitle  string          `json:"subtitle" gorm:"type:text"`
	Items     []string        `json:"items" gorm:"serializer:json;type:text"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	IsActive  bool            `json:"isActive" gorm:"default:true"`
}
