package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetDashboardSummary returns the headline numbers for the admin dashboard
func GetDashboardSummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var totalBookings, pendingBookings, confirmedBookings int64
		db.Model(&models.Booking{}).Count(&totalBookings)
		db.Model(&models.Booking{}).Where("booking_status = ?", models.BookingStatusPending).Count(&pendingBookings)
		db.Model(&models.Booking{}).Where("booking_status = ?", models.BookingStatusConfirmed).Count(&confirmedBookings)

		var revenue decimal.NullDecimal
		if err := db.Model(&models.Payment{}).Select("SUM(amount)").Scan(&revenue).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to compute revenue"})
			return
		}
		total := decimal.Zero
		if revenue.Valid {
			total = revenue.Decimal
		}

		var upcoming []models.Booking
		if err := db.Preload("GuestDirectory").Preload("Pod").
			Where("booking_status = ? AND check_in >= ?", models.BookingStatusConfirmed, time.Now()).
			Order("check_in").Limit(10).Find(&upcoming).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch upcoming bookings"})
			return
		}

		c.JSON(200, gin.H{
			"totalBookings":     totalBookings,
			"pendingBookings":   pendingBookings,
			"confirmedBookings": confirmedBookings,
			"totalRevenue":      total,
			"upcomingBookings":  upcoming,
		})
	}
}

// GetPayments lists the admin payment ledger
func GetPayments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payments []models.Payment
		if err := db.Order("created_at DESC").Find(&payments).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch payments"})
			return
		}

		c.JSON(200, payments)
	}
}

// GetGuestDirectory lists guest contact records
func GetGuestDirectory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var guests []models.GuestDirectory
		if err := db.Order("full_name").Find(&guests).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch guest directory"})
			return
		}

		c.JSON(200, guests)
	}
}

// GetBookingLogs returns the audit trail for one booking
func GetBookingLogs(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")

		var booking models.Booking
		if err := db.First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		var logs []models.BookingLog
		if err := db.Where("booking_id = ?", booking.ID).Order("created_at").Find(&logs).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch booking logs"})
			return
		}

		c.JSON(200, logs)
	}
}
