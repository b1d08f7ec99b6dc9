package database

import (
	"github.com/lakecrest/podstay-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Pod{},
		&models.PodImage{},
		&models.PodPriceRule{},
		&models.MealPlan{},
		&models.Extra{},
		&models.Discount{},
		&models.Voucher{},
		&models.GuestDirectory{},
		&models.Booking{},
		&models.BookingGuest{},
		&models.BookingExtra{},
		&models.BookingLog{},
		&models.CalendarAvailability{},
		&models.BookingPayment{},
		&models.Payment{},
		&models.PaymentToken{},
	)
	if err != nil {
		return err
	}

	// The unique index on (pod_id, date) is what makes double booking
	// impossible at the database level. AutoMigrate creates it from the
	// model tags, but older deployments may predate the tag.
	if !db.Migrator().HasIndex(&models.CalendarAvailability{}, "idx_pod_date") {
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_pod_date ON calendar_availabilities (pod_id, date)`).Error; err != nil {
			return err
		}
	}

	// Older payment rows predate the idempotency marker
	if db.Migrator().HasTable(&models.BookingPayment{}) {
		if !db.Migrator().HasColumn(&models.BookingPayment{}, "webhook_processed_at") {
			if err := db.Exec(`ALTER TABLE booking_payments ADD COLUMN IF NOT EXISTS webhook_processed_at timestamptz`).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
