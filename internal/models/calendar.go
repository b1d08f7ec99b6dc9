package models

import (
	"time"
)

type CalendarStatus string

const (
	CalendarStatusAvailable CalendarStatus = "available"
	CalendarStatusBooked    CalendarStatus = "booked"
	CalendarStatusBlocked   CalendarStatus = "blocked"
)

// CalendarAvailability holds one row per occupied (pod, date). The unique
// index makes the hold insert the exclusivity mechanism: a conflicting
// insert fails and aborts the booking instead of silently double-booking.
// No DeletedAt here: releasing a hold must be a hard delete or the unique
// index would keep the date blocked.
type CalendarAvailability struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	PodID     uint           `json:"podId" gorm:"not null;uniqueIndex:idx_pod_date"`
	Date      time.Time      `json:"date" gorm:"type:date;not null;uniqueIndex:idx_pod_date"`
	Status    CalendarStatus `json:"status" gorm:"size:20;not null;default:available"`
	BookingID *uint          `json:"bookingId" gorm:"index"`
}

func (CalendarAvailability) TableName() string {
	return "calendar_availabilities"
}
