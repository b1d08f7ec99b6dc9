package services

import (
	"testing"
	"time"

	"github.com/lakecrest/podstay-backend/internal/gateways"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSuccessConfirmsBookingOnce(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, nil, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))
	payment := seedInitiatedPayment(t, db, booking, "paystack")

	paidAt := time.Now()
	result := gateways.VerifyResult{
		Success:   true,
		Status:    gateways.StatusSuccess,
		Reference: payment.TransactionReference,
		PaidAt:    &paidAt,
	}

	applied, err := reconciler.HandleSuccess(booking, payment, result)
	require.NoError(t, err)
	assert.True(t, applied)

	var reloadedBooking models.Booking
	require.NoError(t, db.First(&reloadedBooking, booking.ID).Error)
	assert.Equal(t, models.BookingStatusConfirmed, reloadedBooking.BookingStatus)
	assert.Nil(t, reloadedBooking.ExpiresAt, "expiry clears on confirmation")

	var reloadedPayment models.BookingPayment
	require.NoError(t, db.First(&reloadedPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusSuccessful, reloadedPayment.PaymentStatus)
	assert.NotNil(t, reloadedPayment.WebhookProcessedAt)
	assert.NotNil(t, reloadedPayment.PaidAt)

	// Calendar holds survive confirmation
	var holds int64
	db.Model(&models.CalendarAvailability{}).Where("booking_id = ?", booking.ID).Count(&holds)
	assert.Equal(t, int64(2), holds)

	var ledgerRows int64
	db.Model(&models.Payment{}).Where("booking_reference = ?", booking.BookingReference).Count(&ledgerRows)
	assert.Equal(t, int64(1), ledgerRows)
}

func TestHandleSuccessSecondDeliveryIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, nil, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))
	payment := seedInitiatedPayment(t, db, booking, "paystack")

	result := gateways.VerifyResult{Success: true, Status: gateways.StatusSuccess}

	applied, err := reconciler.HandleSuccess(booking, payment, result)
	require.NoError(t, err)
	assert.True(t, applied)

	// Retried delivery: reload the row the way a second webhook would
	var secondView models.BookingPayment
	require.NoError(t, db.First(&secondView, payment.ID).Error)

	applied, err = reconciler.HandleSuccess(booking, &secondView, result)
	require.NoError(t, err)
	assert.False(t, applied, "second delivery must lose the compare-and-set")

	// Exactly one ledger row and one success log
	var ledgerRows int64
	db.Model(&models.Payment{}).Where("booking_reference = ?", booking.BookingReference).Count(&ledgerRows)
	assert.Equal(t, int64(1), ledgerRows)
}

func TestHandleFailureLeavesBookingPending(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, nil, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))
	payment := seedInitiatedPayment(t, db, booking, "squadco")

	result := gateways.VerifyResult{Status: gateways.StatusFailed}

	applied, err := reconciler.HandleFailure(booking, payment, result)
	require.NoError(t, err)
	assert.True(t, applied)

	var reloadedBooking models.Booking
	require.NoError(t, db.First(&reloadedBooking, booking.ID).Error)
	assert.Equal(t, models.BookingStatusPending, reloadedBooking.BookingStatus,
		"failed payment must not fail the booking")

	var reloadedPayment models.BookingPayment
	require.NoError(t, db.First(&reloadedPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusFailed, reloadedPayment.PaymentStatus)
	assert.NotNil(t, reloadedPayment.WebhookProcessedAt)

	// Holds stay in place for the retry
	var holds int64
	db.Model(&models.CalendarAvailability{}).Where("booking_id = ?", booking.ID).Count(&holds)
	assert.Equal(t, int64(2), holds)
}

func TestHandleFailureAfterSuccessIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, nil, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))
	payment := seedInitiatedPayment(t, db, booking, "paystack")

	_, err := reconciler.HandleSuccess(booking, payment, gateways.VerifyResult{Status: gateways.StatusSuccess})
	require.NoError(t, err)

	var settled models.BookingPayment
	require.NoError(t, db.First(&settled, payment.ID).Error)

	applied, err := reconciler.HandleFailure(booking, &settled, gateways.VerifyResult{Status: gateways.StatusFailed})
	require.NoError(t, err)
	assert.False(t, applied)

	var reloaded models.BookingPayment
	require.NoError(t, db.First(&reloaded, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusSuccessful, reloaded.PaymentStatus)
}

func TestMarkAbandonedOnlyFromInitiated(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, nil, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))
	payment := seedInitiatedPayment(t, db, booking, "paystack")

	require.NoError(t, reconciler.MarkAbandoned(payment, gateways.VerifyResult{Status: gateways.StatusAbandoned}))
	assert.Equal(t, models.PaymentStatusAbandoned, payment.PaymentStatus)

	// A delayed webhook can still settle an abandoned attempt
	var reloaded models.BookingPayment
	require.NoError(t, db.First(&reloaded, payment.ID).Error)
	assert.Nil(t, reloaded.WebhookProcessedAt, "abandoned must not stamp the idempotency marker")
}

func TestRetryPaymentURLUsesBookingToken(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, &Mailer{baseURL: "https://book.example.test"}, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))
	token := models.PaymentToken{
		Token:     utils.GeneratePaymentToken(),
		BookingID: booking.ID,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, db.Create(&token).Error)

	url := reconciler.retryPaymentURL(booking)
	assert.Equal(t, "https://book.example.test/api/payments/token/"+token.Token, url,
		"retry link must resolve through the opaque token route")
}

func TestRetryPaymentURLFallsBackToCheckEndpoint(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewPaymentReconciler(db, nil, nil)

	booking := seedPendingBooking(t, db, time.Now().Add(30*time.Minute))

	url := reconciler.retryPaymentURL(booking)
	assert.Equal(t, "http://localhost:8080/api/payments/check/"+booking.BookingReference, url)
}

func TestPaymentFailedEmailLinksRetryURL(t *testing.T) {
	retry := "https://book.example.test/api/payments/token/deadbeef"
	body := paymentFailedBody("Ada Obi", "LUF-ABC123", retry)

	assert.Contains(t, body, `href="`+retry+`"`)
	assert.NotContains(t, body, "check-booking")
}
