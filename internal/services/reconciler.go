package services

import (
	"context"
	"log"
	"time"

	"github.com/lakecrest/podstay-backend/internal/gateways"
	"github.com/lakecrest/podstay-backend/internal/models"
	"gorm.io/gorm"
)

// PaymentReconciler applies the outcome of a gateway verification to the
// payment and booking records. The webhook handler, the polling verify
// endpoint and the browser callback all funnel into the same two methods,
// so the idempotency guard lives in exactly one place.
type PaymentReconciler struct {
	db     *gorm.DB
	mailer *Mailer
	hub    *Hub
}

func NewPaymentReconciler(db *gorm.DB, mailer *Mailer, hub *Hub) *PaymentReconciler {
	return &PaymentReconciler{db: db, mailer: mailer, hub: hub}
}

// HandleSuccess settles a payment attempt as successful and confirms the
// booking. The conditional update is the idempotency gate: of any number of
// concurrent callers only one claims the row, the rest are no-ops. Returns
// true when this call performed the transition.
func (r *PaymentReconciler) HandleSuccess(booking *models.Booking, payment *models.BookingPayment, result gateways.VerifyResult) (bool, error) {
	paidAt := time.Now()
	if result.PaidAt != nil {
		paidAt = *result.PaidAt
	}
	now := time.Now()

	res := r.db.Model(&models.BookingPayment{}).
		Where("id = ? AND webhook_processed_at IS NULL AND payment_status <> ?",
			payment.ID, models.PaymentStatusSuccessful).
		Updates(map[string]interface{}{
			"payment_status":       models.PaymentStatusSuccessful,
			"paid_at":              paidAt,
			"webhook_processed_at": now,
			"gateway_response":     string(result.RawData),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Another path already settled this attempt.
		return false, nil
	}
	payment.PaymentStatus = models.PaymentStatusSuccessful
	payment.PaidAt = &paidAt
	payment.WebhookProcessedAt = &now

	// Confirm the booking and make the calendar hold permanent.
	if err := r.db.Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]interface{}{
			"booking_status": models.BookingStatusConfirmed,
			"expires_at":     nil,
		}).Error; err != nil {
		return true, err
	}
	booking.BookingStatus = models.BookingStatusConfirmed
	booking.ExpiresAt = nil

	ledger := models.Payment{
		BookingReference: booking.BookingReference,
		GuestName:        guestName(booking),
		Amount:           booking.TotalPrice,
		Status:           "paid",
	}
	if err := r.db.Create(&ledger).Error; err != nil {
		return true, err
	}

	logEntry := models.BookingLog{
		BookingID: booking.ID,
		Action:    "Payment successful via " + payment.Gateway,
		OldStatus: string(models.BookingStatusPending),
		NewStatus: string(models.BookingStatusConfirmed),
	}
	if err := r.db.Create(&logEntry).Error; err != nil {
		return true, err
	}

	r.broadcast(booking, payment)

	r.notifyConfirmed(booking, payment)
	return true, nil
}

// HandleFailure settles a payment attempt as failed. The booking itself
// stays pending so the guest can retry on the same or another gateway
// without losing the calendar hold.
func (r *PaymentReconciler) HandleFailure(booking *models.Booking, payment *models.BookingPayment, result gateways.VerifyResult) (bool, error) {
	now := time.Now()

	res := r.db.Model(&models.BookingPayment{}).
		Where("id = ? AND webhook_processed_at IS NULL AND payment_status NOT IN ?",
			payment.ID, []models.PaymentStatus{models.PaymentStatusSuccessful, models.PaymentStatusFailed}).
		Updates(map[string]interface{}{
			"payment_status":       models.PaymentStatusFailed,
			"webhook_processed_at": now,
			"gateway_response":     string(result.RawData),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	payment.PaymentStatus = models.PaymentStatusFailed
	payment.WebhookProcessedAt = &now

	logEntry := models.BookingLog{
		BookingID: booking.ID,
		Action:    "Payment failed via " + payment.Gateway + " - booking remains pending for retry",
		OldStatus: string(booking.BookingStatus),
		NewStatus: string(booking.BookingStatus),
	}
	if err := r.db.Create(&logEntry).Error; err != nil {
		return true, err
	}

	r.broadcast(booking, payment)

	if r.mailer != nil && booking.GuestDirectory != nil {
		guest := booking.GuestDirectory
		retryURL := r.retryPaymentURL(booking)
		go func() {
			if err := r.mailer.SendPaymentFailed(booking, guest, retryURL); err != nil {
				log.Printf("Failed to send payment failed email for %s: %v", booking.BookingReference, err)
			}
		}()
	}

	return true, nil
}

// retryPaymentURL builds the link the payment-failed email points at. The
// booking's payment token keeps the internal id out of the URL; a booking
// without a token falls back to the reference-keyed check endpoint.
func (r *PaymentReconciler) retryPaymentURL(booking *models.Booking) string {
	base := ""
	if r.mailer != nil {
		base = r.mailer.baseURL
	}
	if base == "" {
		base = "http://localhost:8080"
	}

	var token models.PaymentToken
	if err := r.db.Where("booking_id = ?", booking.ID).
		Order("created_at DESC").First(&token).Error; err != nil {
		return base + "/api/payments/check/" + booking.BookingReference
	}
	return base + "/api/payments/token/" + token.Token
}

// MarkAbandoned records an abandoned checkout session. No idempotency stamp:
// an abandoned attempt may still be settled later by a delayed webhook.
func (r *PaymentReconciler) MarkAbandoned(payment *models.BookingPayment, result gateways.VerifyResult) error {
	res := r.db.Model(&models.BookingPayment{}).
		Where("id = ? AND payment_status = ?", payment.ID, models.PaymentStatusInitiated).
		Updates(map[string]interface{}{
			"payment_status":   models.PaymentStatusAbandoned,
			"gateway_response": string(result.RawData),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		payment.PaymentStatus = models.PaymentStatusAbandoned
	}
	return nil
}

// broadcast pushes the new state to connected websocket clients and onto
// the redis channel other instances subscribe to.
func (r *PaymentReconciler) broadcast(booking *models.Booking, payment *models.BookingPayment) {
	if r.hub != nil {
		r.hub.BroadcastBookingUpdate(booking.BookingReference,
			string(booking.BookingStatus), string(payment.PaymentStatus))
	}
	if err := PublishBookingUpdate(context.Background(), booking.BookingReference,
		string(booking.BookingStatus), string(payment.PaymentStatus)); err != nil {
		log.Printf("Failed to publish booking update for %s: %v", booking.BookingReference, err)
	}
}

func (r *PaymentReconciler) notifyConfirmed(booking *models.Booking, payment *models.BookingPayment) {
	if r.mailer == nil || booking.GuestDirectory == nil {
		return
	}
	guest := booking.GuestDirectory

	var pod models.Pod
	var podPtr *models.Pod
	if err := r.db.First(&pod, booking.PodID).Error; err == nil {
		podPtr = &pod
	}

	go func() {
		if err := r.mailer.SendBookingConfirmation(booking, guest, podPtr); err != nil {
			log.Printf("Failed to send booking confirmation email for %s: %v", booking.BookingReference, err)
		}
	}()
	go func() {
		if err := r.mailer.SendPaymentSuccess(booking, guest, payment); err != nil {
			log.Printf("Failed to send payment success email for %s: %v", booking.BookingReference, err)
		}
	}()
	go func() {
		if err := r.mailer.SendAdminBookingAlert(booking, guest, podPtr); err != nil {
			log.Printf("Failed to send admin booking alert for %s: %v", booking.BookingReference, err)
		}
	}()
}

func guestName(booking *models.Booking) string {
	if booking.GuestDirectory != nil {
		return booking.GuestDirectory.FullName
	}
	return "Guest"
}
