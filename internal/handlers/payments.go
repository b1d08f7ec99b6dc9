package handlers

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/gateways"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/internal/services"
	"github.com/lakecrest/podstay-backend/pkg/utils"
	"gorm.io/gorm"
)

// loadBookingForPayment fetches a booking with the guest contact attached,
// which every notification path needs.
func loadBookingForPayment(db *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := db.Preload("GuestDirectory").First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// applyVerifyResult routes a gateway verification outcome into the
// reconciler. Shared by the polling, callback and webhook paths.
func applyVerifyResult(reconciler *services.PaymentReconciler, booking *models.Booking, payment *models.BookingPayment, result gateways.VerifyResult) error {
	switch result.Status {
	case gateways.StatusSuccess:
		_, err := reconciler.HandleSuccess(booking, payment, result)
		return err
	case gateways.StatusFailed:
		_, err := reconciler.HandleFailure(booking, payment, result)
		return err
	case gateways.StatusAbandoned:
		return reconciler.MarkAbandoned(payment, result)
	default:
		return nil
	}
}

// initializeForBooking runs the full payment-initialization flow for a
// booking and returns a status code plus response body. Both the direct
// initialize endpoints and the token path delegate here so the guards live
// in one place.
func initializeForBooking(ctx context.Context, db *gorm.DB, registry *gateways.Registry,
	expiration *services.BookingExpirationService, reconciler *services.PaymentReconciler,
	bookingID uint, gatewayName string) (int, gin.H) {

	booking, err := expiration.CheckAndExpireBooking(bookingID)
	if err != nil {
		return 500, gin.H{"error": "Failed to load booking: " + err.Error()}
	}
	if booking == nil {
		return 404, gin.H{"error": "Booking not found"}
	}

	switch booking.BookingStatus {
	case models.BookingStatusExpired:
		return 410, gin.H{"error": "Booking has expired"}
	case models.BookingStatusConfirmed:
		return 409, gin.H{"error": "Booking has already been paid"}
	case models.BookingStatusCancelled:
		return 409, gin.H{"error": "Booking has been cancelled"}
	}

	// Gateway-agnostic guard: a success on any gateway blocks every new
	// attempt, even with a different gateway parameter.
	var successCount int64
	if err := db.Model(&models.BookingPayment{}).
		Where("booking_id = ? AND payment_status = ?", booking.ID, models.PaymentStatusSuccessful).
		Count(&successCount).Error; err != nil {
		return 500, gin.H{"error": "Failed to check payment history"}
	}
	if successCount > 0 {
		return 409, gin.H{"error": "Booking has already been paid"}
	}

	gw := registry.Resolve(gatewayName)
	if gw == nil {
		return 400, gin.H{"error": "Unknown payment gateway"}
	}

	// Reload the guest contact for the gateway call
	booking, err = loadBookingForPayment(db, booking.ID)
	if err != nil {
		return 500, gin.H{"error": "Failed to load booking"}
	}

	var initiated []models.BookingPayment
	if err := db.Where("booking_id = ? AND payment_status = ?", booking.ID, models.PaymentStatusInitiated).
		Find(&initiated).Error; err != nil {
		return 500, gin.H{"error": "Failed to check payment attempts"}
	}

	for i := range initiated {
		attempt := &initiated[i]
		attemptGw, ok := registry.Get(attempt.Gateway)
		if !ok {
			continue
		}

		result, verr := attemptGw.VerifyTransaction(ctx, attempt.TransactionReference)
		if verr == nil && result.Status == gateways.StatusSuccess {
			if _, err := reconciler.HandleSuccess(booking, attempt, result); err != nil {
				log.Printf("Reconcile on re-verify failed for %s: %v", attempt.TransactionReference, err)
			}
			return 200, gin.H{
				"message":              "Payment already completed",
				"bookingReference":     booking.BookingReference,
				"bookingStatus":        models.BookingStatusConfirmed,
				"transactionReference": attempt.TransactionReference,
			}
		}

		if attempt.Gateway == gw.Name() {
			// Still pending on the same gateway: hand back the existing
			// checkout session instead of opening a second one.
			return 200, gin.H{
				"message":              "Payment already initialized",
				"transactionReference": attempt.TransactionReference,
				"authorizationUrl":     attempt.Notes,
			}
		}

		// User is switching gateways; retire the stale attempt
		if err := db.Model(attempt).Update("payment_status", models.PaymentStatusCancelled).Error; err != nil {
			return 500, gin.H{"error": "Failed to cancel previous payment attempt"}
		}
	}

	// A failed booking gets its hold extended and returns to pending
	if booking.BookingStatus == models.BookingStatusFailed {
		if _, err := expiration.ExtendExpiration(booking.ID, services.DefaultExpirationMinutes); err != nil {
			return 500, gin.H{"error": "Failed to extend booking expiration"}
		}
		booking.BookingStatus = models.BookingStatusPending
	}

	reference := utils.GenerateTransactionReference(strings.ToUpper(gw.Name()))

	email, name := "", "Guest"
	if booking.GuestDirectory != nil {
		email = booking.GuestDirectory.Email
		name = booking.GuestDirectory.FullName
	}

	initResult, err := gw.InitializeTransaction(ctx, gateways.InitializeRequest{
		Email:        email,
		Amount:       booking.TotalPrice,
		Reference:    reference,
		CustomerName: name,
		Metadata: map[string]interface{}{
			"bookingReference": booking.BookingReference,
		},
	})
	if err != nil {
		return 500, gin.H{"error": "Gateway error: " + err.Error()}
	}
	if !initResult.Success {
		return 500, gin.H{"error": "Gateway error: " + initResult.Message}
	}

	gatewayRef := initResult.AccessCode
	if gatewayRef == "" {
		gatewayRef = initResult.MerchantTransactionRef
	}

	payment := models.BookingPayment{
		BookingID:            booking.ID,
		Amount:               booking.TotalPrice,
		Gateway:              gw.Name(),
		PaymentStatus:        models.PaymentStatusInitiated,
		TransactionReference: reference,
		GatewayReference:     gatewayRef,
		Notes:                initResult.AuthorizationURL,
	}
	if err := db.Create(&payment).Error; err != nil {
		return 500, gin.H{"error": "Failed to record payment attempt"}
	}

	logEntry := models.BookingLog{
		BookingID: booking.ID,
		Action:    "Payment initialized via " + gw.Name(),
		OldStatus: string(booking.BookingStatus),
		NewStatus: string(booking.BookingStatus),
	}
	if err := db.Create(&logEntry).Error; err != nil {
		log.Printf("Failed to write booking log for %s: %v", booking.BookingReference, err)
	}

	return 200, gin.H{
		"authorizationUrl":     initResult.AuthorizationURL,
		"transactionReference": reference,
		"bookingReference":     booking.BookingReference,
		"gateway":              gw.Name(),
	}
}

// InitializePayment starts a checkout session for a booking reference
func InitializePayment(db *gorm.DB, registry *gateways.Registry,
	expiration *services.BookingExpirationService, reconciler *services.PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingReference string `json:"bookingReference" binding:"required"`
			Gateway          string `json:"gateway"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var booking models.Booking
		if err := db.Where("booking_reference = ?", input.BookingReference).First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		status, body := initializeForBooking(c.Request.Context(), db, registry, expiration, reconciler,
			booking.ID, input.Gateway)
		c.JSON(status, body)
	}
}

// InitializePaymentRedirect is the browser GET variant: it runs the same
// flow and 302s straight to the hosted checkout page.
func InitializePaymentRedirect(db *gorm.DB, registry *gateways.Registry,
	expiration *services.BookingExpirationService, reconciler *services.PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Param("reference")

		var booking models.Booking
		if err := db.Where("booking_reference = ?", reference).First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		status, body := initializeForBooking(c.Request.Context(), db, registry, expiration, reconciler,
			booking.ID, c.Query("gateway"))
		if status != 200 {
			c.JSON(status, body)
			return
		}
		if url, ok := body["authorizationUrl"].(string); ok && url != "" {
			c.Redirect(302, url)
			return
		}
		c.JSON(status, body)
	}
}

// PayWithToken resolves an opaque payment token and starts checkout. The
// token never exposes the booking id and has its own expiry, checked before
// any gateway call.
func PayWithToken(db *gorm.DB, registry *gateways.Registry,
	expiration *services.BookingExpirationService, reconciler *services.PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenValue := c.Param("token")

		var token models.PaymentToken
		if err := db.Where("token = ?", tokenValue).First(&token).Error; err != nil {
			c.JSON(404, gin.H{"error": "Payment link not found"})
			return
		}

		if time.Now().After(token.ExpiresAt) {
			c.JSON(410, gin.H{"error": "Payment link has expired"})
			return
		}

		// Record usage without locking the token: a pending or failed
		// booking can be retried through the same link.
		if token.UsedAt == nil {
			now := time.Now()
			if err := db.Model(&token).Update("used_at", now).Error; err != nil {
				log.Printf("Failed to mark payment token used: %v", err)
			}
		}

		status, body := initializeForBooking(c.Request.Context(), db, registry, expiration, reconciler,
			token.BookingID, c.Query("gateway"))
		if status != 200 {
			c.JSON(status, body)
			return
		}
		if url, ok := body["authorizationUrl"].(string); ok && url != "" {
			c.Redirect(302, url)
			return
		}
		c.JSON(status, body)
	}
}

// VerifyTransaction is the client-polling path: re-verify a reference with
// its gateway and return the current booking and payment state.
func VerifyTransaction(db *gorm.DB, registry *gateways.Registry,
	expiration *services.BookingExpirationService, reconciler *services.PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Param("reference")

		var payment models.BookingPayment
		if err := db.Where("transaction_reference = ?", reference).First(&payment).Error; err != nil {
			c.JSON(404, gin.H{"error": "Transaction not found"})
			return
		}

		if _, err := expiration.CheckAndExpireBooking(payment.BookingID); err != nil {
			c.JSON(500, gin.H{"error": "Failed to check booking"})
			return
		}

		booking, err := loadBookingForPayment(db, payment.BookingID)
		if err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		// Already settled: report state without another gateway round trip
		if payment.WebhookProcessedAt == nil {
			gw, ok := registry.Get(payment.Gateway)
			if !ok {
				c.JSON(500, gin.H{"error": "Unknown gateway on payment record"})
				return
			}

			result, verr := gw.VerifyTransaction(c.Request.Context(), reference)
			if verr != nil {
				c.JSON(500, gin.H{"error": "Gateway error: " + verr.Error()})
				return
			}
			if err := applyVerifyResult(reconciler, booking, &payment, result); err != nil {
				c.JSON(500, gin.H{"error": "Failed to reconcile payment"})
				return
			}
		}

		c.JSON(200, gin.H{
			"bookingReference": booking.BookingReference,
			"bookingStatus":    booking.BookingStatus,
			"paymentStatus":    payment.PaymentStatus,
			"paidAt":           payment.PaidAt,
		})
	}
}

// HandlePaymentCallback is the browser redirect landing. It applies the
// same reconciliation as verify so the user is not stranded when the
// webhook is delayed, but the webhook remains the authoritative path.
func HandlePaymentCallback(db *gorm.DB, registry *gateways.Registry,
	expiration *services.BookingExpirationService, reconciler *services.PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Query("reference")
		if reference == "" {
			reference = c.Query("trxref")
		}
		if reference == "" {
			c.JSON(400, gin.H{"error": "reference query parameter required"})
			return
		}

		var payment models.BookingPayment
		if err := db.Where("transaction_reference = ?", reference).First(&payment).Error; err != nil {
			c.JSON(404, gin.H{"error": "Transaction not found"})
			return
		}

		booking, err := loadBookingForPayment(db, payment.BookingID)
		if err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if payment.WebhookProcessedAt == nil {
			if gw, ok := registry.Get(payment.Gateway); ok {
				if result, verr := gw.VerifyTransaction(c.Request.Context(), reference); verr == nil {
					if err := applyVerifyResult(reconciler, booking, &payment, result); err != nil {
						log.Printf("Callback reconcile failed for %s: %v", reference, err)
					}
				}
			}
		}

		c.JSON(200, gin.H{
			"bookingReference": booking.BookingReference,
			"bookingStatus":    booking.BookingStatus,
			"paymentStatus":    payment.PaymentStatus,
		})
	}
}

// HandleWebhook processes an asynchronous gateway notification. The
// contract with the gateway is strict: bad signatures are rejected, but
// every internal failure still answers 200 so the gateway never enters a
// retry storm against us.
func HandleWebhook(db *gorm.DB, registry *gateways.Registry,
	reconciler *services.PaymentReconciler, gatewayName, signatureHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		gw, ok := registry.Get(gatewayName)
		if !ok {
			c.JSON(404, gin.H{"error": "Unknown gateway"})
			return
		}

		signature := c.GetHeader(signatureHeader)
		if signature == "" {
			c.JSON(400, gin.H{"error": "Missing signature header"})
			return
		}

		body, err := c.GetRawData()
		if err != nil {
			c.JSON(400, gin.H{"error": "Failed to read request body"})
			return
		}

		if !gw.VerifyWebhookSignature(signature, body) {
			c.JSON(401, gin.H{"error": "Invalid signature"})
			return
		}

		event, err := gw.ParseWebhookEvent(body)
		if err != nil {
			log.Printf("Failed to parse %s webhook: %v", gatewayName, err)
			c.JSON(200, gin.H{"status": "ignored"})
			return
		}

		var payment models.BookingPayment
		if err := db.Where("transaction_reference = ?", event.Reference).First(&payment).Error; err != nil {
			// Unknown reference: acknowledge so the gateway stops retrying
			c.JSON(200, gin.H{"status": "ignored"})
			return
		}

		// Idempotency gate: retried deliveries after the first settle are
		// acknowledged and dropped.
		if payment.WebhookProcessedAt != nil {
			c.JSON(200, gin.H{"status": "already processed"})
			return
		}

		booking, err := loadBookingForPayment(db, payment.BookingID)
		if err != nil {
			log.Printf("Webhook for %s: booking %d not found", event.Reference, payment.BookingID)
			c.JSON(200, gin.H{"status": "ignored"})
			return
		}

		result := gateways.VerifyResult{
			Status:    event.Status,
			Reference: event.Reference,
			PaidAt:    event.PaidAt,
			RawData:   event.RawData,
		}

		switch event.Event {
		case gateways.EventChargeSuccess:
			if payment.PaymentStatus != models.PaymentStatusSuccessful {
				result.Status = gateways.StatusSuccess
				if _, err := reconciler.HandleSuccess(booking, &payment, result); err != nil {
					log.Printf("Webhook success reconcile failed for %s: %v", event.Reference, err)
				}
			}
		case gateways.EventChargeFailed:
			if payment.PaymentStatus != models.PaymentStatusFailed {
				result.Status = gateways.StatusFailed
				if _, err := reconciler.HandleFailure(booking, &payment, result); err != nil {
					log.Printf("Webhook failure reconcile failed for %s: %v", event.Reference, err)
				}
			}
		default:
			log.Printf("Ignoring %s webhook event %q for %s", gatewayName, event.Event, event.Reference)
		}

		c.JSON(200, gin.H{"status": "ok"})
	}
}

// CheckBookingForPayment is the pre-flight the payment page calls before
// rendering gateway options.
func CheckBookingForPayment(db *gorm.DB, expiration *services.BookingExpirationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Param("reference")

		var booking models.Booking
		if err := db.Where("booking_reference = ?", reference).First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		checked, err := expiration.CheckAndExpireBooking(booking.ID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to check booking"})
			return
		}
		if checked != nil {
			booking = *checked
		}

		var payments []models.BookingPayment
		if err := db.Where("booking_id = ?", booking.ID).Order("created_at DESC").Find(&payments).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch payments"})
			return
		}

		c.JSON(200, gin.H{
			"bookingReference": booking.BookingReference,
			"bookingStatus":    booking.BookingStatus,
			"totalPrice":       booking.TotalPrice,
			"expiresAt":        booking.ExpiresAt,
			"payments":         payments,
		})
	}
}

// MockPaymentSuccess settles a payment without a gateway round trip.
// Disabled in production.
func MockPaymentSuccess(db *gorm.DB, reconciler *services.PaymentReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if os.Getenv("APP_ENV") == "production" {
			c.JSON(404, gin.H{"error": "Not found"})
			return
		}

		var input struct {
			TransactionReference string `json:"transactionReference" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var payment models.BookingPayment
		if err := db.Where("transaction_reference = ?", input.TransactionReference).First(&payment).Error; err != nil {
			c.JSON(404, gin.H{"error": "Transaction not found"})
			return
		}

		booking, err := loadBookingForPayment(db, payment.BookingID)
		if err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		now := time.Now()
		result := gateways.VerifyResult{
			Success:   true,
			Status:    gateways.StatusSuccess,
			Reference: payment.TransactionReference,
			PaidAt:    &now,
		}
		if _, err := reconciler.HandleSuccess(booking, &payment, result); err != nil {
			c.JSON(500, gin.H{"error": "Failed to settle payment"})
			return
		}

		c.JSON(200, gin.H{
			"bookingReference": booking.BookingReference,
			"bookingStatus":    booking.BookingStatus,
			"paymentStatus":    payment.PaymentStatus,
		})
	}
}
