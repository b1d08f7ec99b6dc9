package models

import (
	"time"

	"gorm.io/gorm"
)

// GuestDirectory holds one contact record per guest email. Booking creation
// upserts into it so repeat guests keep a single directory entry.
type GuestDirectory struct {
	gorm.Model
	FullName             string     `json:"fullName" gorm:"size:150;not null"`
	Email                string     `json:"email" gorm:"size:150;unique;not null"`
	Phone                string     `json:"phone" gorm:"size:50"`
	Gender               string     `json:"gender" gorm:"size:20"`
	DateOfBirth          *time.Time `json:"dateOfBirth" gorm:"type:date"`
	IdentificationType   string     `json:"identificationType" gorm:"size:50"`
	IdentificationNumber string     `json:"identificationNumber" gorm:"size:100"`
	Instructions         string     `json:"instructions" gorm:"type:text"`
}

func (GuestDirectory) TableName() string {
	return "guest_directories"
}
