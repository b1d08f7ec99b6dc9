package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/internal/services"
	"gorm.io/gorm"
)

// BookingStatusSocket upgrades the connection and subscribes the client to
// live status updates for one booking reference. The payment page uses this
// to learn the webhook outcome without polling.
func BookingStatusSocket(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Param("reference")

		var booking models.Booking
		if err := db.Where("booking_reference = ?", reference).First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, booking.BookingReference)
	}
}
