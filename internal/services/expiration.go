package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lakecrest/podstay-backend/internal/models"
	"gorm.io/gorm"
)

const DefaultExpirationMinutes = 30

// BookingExpirationService expires unpaid bookings and releases their
// calendar holds. It is driven two ways: a periodic sweep from main and a
// lazy per-booking check before any payment operation. Both converge on the
// same transition and are safe to run concurrently.
type BookingExpirationService struct {
	db *gorm.DB
}

func NewBookingExpirationService(db *gorm.DB) *BookingExpirationService {
	return &BookingExpirationService{db: db}
}

// ExpireOldBookings transitions every pending booking whose expiry has
// passed. Returns the number of bookings expired.
func (s *BookingExpirationService) ExpireOldBookings() (int, error) {
	var expired []models.Booking
	if err := s.db.
		Where("booking_status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			models.BookingStatusPending, time.Now()).
		Find(&expired).Error; err != nil {
		return 0, err
	}

	count := 0
	for i := range expired {
		if err := s.ExpireBooking(&expired[i]); err != nil {
			log.Printf("Failed to expire booking %s: %v", expired[i].BookingReference, err)
			continue
		}
		count++
	}

	if count > 0 {
		log.Printf("Expired %d pending bookings", count)
	}
	return count, nil
}

// ExpireBooking marks one booking expired and frees its dates. The guarded
// update makes concurrent expiry attempts converge: only one caller flips
// the status, the rest see zero rows affected and do nothing.
func (s *BookingExpirationService) ExpireBooking(booking *models.Booking) error {
	res := s.db.Model(&models.Booking{}).
		Where("id = ? AND booking_status = ?", booking.ID, models.BookingStatusPending).
		Update("booking_status", models.BookingStatusExpired)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	booking.BookingStatus = models.BookingStatusExpired

	if err := s.db.Where("booking_id = ?", booking.ID).
		Delete(&models.CalendarAvailability{}).Error; err != nil {
		return err
	}

	// The freed dates must not linger in the availability cache
	if err := InvalidateAvailabilityCache(context.Background()); err != nil {
		log.Printf("Failed to invalidate availability cache after expiring %s: %v", booking.BookingReference, err)
	}

	logEntry := models.BookingLog{
		BookingID: booking.ID,
		Action:    "Booking expired due to non-payment",
		OldStatus: string(models.BookingStatusPending),
		NewStatus: string(models.BookingStatusExpired),
	}
	if err := s.db.Create(&logEntry).Error; err != nil {
		return err
	}

	log.Printf("Booking %s expired", booking.BookingReference)
	return nil
}

// CheckAndExpireBooking is the lazy check run before payment operations so
// a stale pending booking is never paid against. Returns the booking in its
// current (possibly just-expired) state, or nil if it does not exist.
func (s *BookingExpirationService) CheckAndExpireBooking(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Preload("GuestDirectory").First(&booking, bookingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	if booking.BookingStatus == models.BookingStatusPending &&
		booking.ExpiresAt != nil && booking.ExpiresAt.Before(time.Now()) {
		if err := s.ExpireBooking(&booking); err != nil {
			return nil, err
		}
		if err := s.db.Preload("GuestDirectory").First(&booking, bookingID).Error; err != nil {
			return nil, err
		}
	}

	return &booking, nil
}

// ExtendExpiration pushes a booking's expiry out to allow a payment retry.
// Only valid from pending or failed state.
func (s *BookingExpirationService) ExtendExpiration(bookingID uint, minutes int) (*models.Booking, error) {
	if minutes <= 0 {
		minutes = DefaultExpirationMinutes
	}

	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		return nil, err
	}

	if booking.BookingStatus != models.BookingStatusPending &&
		booking.BookingStatus != models.BookingStatusFailed {
		return nil, fmt.Errorf("cannot extend expiration for %s booking", booking.BookingStatus)
	}

	// A failed booking returns to pending when its window is extended;
	// failed is a retry waypoint, not a terminal state.
	newExpiration := time.Now().Add(time.Duration(minutes) * time.Minute)
	updates := map[string]interface{}{"expires_at": newExpiration}
	if booking.BookingStatus == models.BookingStatusFailed {
		updates["booking_status"] = models.BookingStatusPending
	}
	if err := s.db.Model(&booking).Updates(updates).Error; err != nil {
		return nil, err
	}
	if booking.BookingStatus == models.BookingStatusFailed {
		booking.BookingStatus = models.BookingStatusPending
	}
	booking.ExpiresAt = &newExpiration

	log.Printf("Extended expiration for booking %s to %s", booking.BookingReference, newExpiration)
	return &booking, nil
}
