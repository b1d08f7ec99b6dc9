package services

import (
	"testing"
	"time"

	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
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
	))

	return db
}

func seedPendingBooking(t *testing.T, db *gorm.DB, expiresAt time.Time) *models.Booking {
	t.Helper()

	guest := models.GuestDirectory{
		FullName: "Ada Obi",
		Email:    utils.GenerateBookingReference("guest") + "@example.test",
	}
	require.NoError(t, db.Create(&guest).Error)

	pod := models.Pod{
		PodName:        "Lakeside Pod",
		BaseAdultPrice: decimal.NewFromInt(250000),
		MaxAdults:      2,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&pod).Error)

	checkIn := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	booking := models.Booking{
		BookingReference: utils.GenerateBookingReference("LUF"),
		GuestDirectoryID: guest.ID,
		PodID:            pod.ID,
		CheckIn:          checkIn,
		CheckOut:         checkIn.AddDate(0, 0, 2),
		TotalPrice:       decimal.NewFromInt(500000),
		BookingStatus:    models.BookingStatusPending,
		BoardType:        models.BoardTypeFull,
		ExpiresAt:        &expiresAt,
	}
	require.NoError(t, db.Create(&booking).Error)

	for d := booking.CheckIn; d.Before(booking.CheckOut); d = d.AddDate(0, 0, 1) {
		hold := models.CalendarAvailability{
			PodID:     pod.ID,
			Date:      d,
			Status:    models.CalendarStatusBooked,
			BookingID: &booking.ID,
		}
		require.NoError(t, db.Create(&hold).Error)
	}

	booking.GuestDirectory = &guest
	return &booking
}

func seedInitiatedPayment(t *testing.T, db *gorm.DB, booking *models.Booking, gateway string) *models.BookingPayment {
	t.Helper()

	payment := models.BookingPayment{
		BookingID:            booking.ID,
		Amount:               booking.TotalPrice,
		Gateway:              gateway,
		PaymentStatus:        models.PaymentStatusInitiated,
		TransactionReference: utils.GenerateTransactionReference(gateway),
	}
	require.NoError(t, db.Create(&payment).Error)
	return &payment
}
