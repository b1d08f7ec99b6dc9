package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func bookingRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.POST("/api/bookings", CreateBooking(db))
	r.POST("/api/bookings/find", FindBooking(db))
	r.POST("/api/availability/check", CheckAvailability(db))
	return r
}

func validBookingBody(podID uint) map[string]interface{} {
	return map[string]interface{}{
		"contact": map[string]interface{}{
			"fullName": "Ada Obi",
			"email":    "ada@example.test",
			"phone":    "+2348012345678",
		},
		"podId":    podID,
		"checkIn":  "2026-10-01",
		"checkOut": "2026-10-03",
		"guests":   map[string]interface{}{"adults": 2},
	}
}

func TestCreateBookingCreatesHoldsAndToken(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	r := bookingRouter(db)

	w := performJSON(r, "POST", "/api/bookings", validBookingBody(pod.ID), nil)
	require.Equal(t, 201, w.Code, w.Body.String())

	var resp struct {
		BookingReference string `json:"bookingReference"`
		PaymentURL       string `json:"paymentUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.BookingReference)
	assert.Contains(t, resp.PaymentURL, "/api/payments/token/")

	var booking models.Booking
	require.NoError(t, db.Where("booking_reference = ?", resp.BookingReference).First(&booking).Error)
	assert.Equal(t, models.BookingStatusPending, booking.BookingStatus)
	assert.NotNil(t, booking.ExpiresAt)
	assert.True(t, booking.TotalPrice.Equal(decimal.NewFromInt(500000)),
		"2 adults at 250000, got %s", booking.TotalPrice)

	// 2-night stay holds exactly 2 dates, checkout excluded
	var holds int64
	db.Model(&models.CalendarAvailability{}).Where("booking_id = ?", booking.ID).Count(&holds)
	assert.Equal(t, int64(2), holds)

	var token models.PaymentToken
	require.NoError(t, db.Where("booking_id = ?", booking.ID).First(&token).Error)
	assert.Len(t, token.Token, 64)

	var guest models.GuestDirectory
	require.NoError(t, db.Where("email = ?", "ada@example.test").First(&guest).Error)
	assert.Equal(t, guest.ID, booking.GuestDirectoryID)
}

func TestCreateBookingWithExtras(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	extra := models.Extra{Name: "Airport pickup", Price: decimal.NewFromInt(5000)}
	require.NoError(t, db.Create(&extra).Error)

	body := validBookingBody(pod.ID)
	body["extras"] = []map[string]interface{}{
		{"id": extra.ID, "quantity": 2},
		{"id": 9999, "quantity": 1}, // unknown id is skipped
	}

	w := performJSON(bookingRouter(db), "POST", "/api/bookings", body, nil)
	require.Equal(t, 201, w.Code, w.Body.String())

	var booking models.Booking
	require.NoError(t, db.Preload("Extras").Order("id DESC").First(&booking).Error)
	require.Len(t, booking.Extras, 1)
	assert.True(t, booking.Extras[0].TotalPrice.Equal(decimal.NewFromInt(10000)))
	assert.True(t, booking.TotalPrice.Equal(decimal.NewFromInt(510000)), "got %s", booking.TotalPrice)
}

func TestCreateBookingDateConflict(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	r := bookingRouter(db)

	w := performJSON(r, "POST", "/api/bookings", validBookingBody(pod.ID), nil)
	require.Equal(t, 201, w.Code)

	// Overlapping stay on the same pod must be rejected wholesale
	second := validBookingBody(pod.ID)
	second["checkIn"] = "2026-10-02"
	second["checkOut"] = "2026-10-04"
	w = performJSON(r, "POST", "/api/bookings", second, nil)
	assert.Equal(t, 409, w.Code, w.Body.String())

	var bookings int64
	db.Model(&models.Booking{}).Count(&bookings)
	assert.Equal(t, int64(1), bookings, "conflicting create must roll back entirely")

	// Back-to-back stay starting on the checkout day is fine
	third := validBookingBody(pod.ID)
	third["checkIn"] = "2026-10-03"
	third["checkOut"] = "2026-10-05"
	w = performJSON(r, "POST", "/api/bookings", third, nil)
	assert.Equal(t, 201, w.Code, w.Body.String())
}

func TestCreateBookingValidation(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	r := bookingRouter(db)

	body := validBookingBody(pod.ID)
	delete(body["contact"].(map[string]interface{}), "email")
	w := performJSON(r, "POST", "/api/bookings", body, nil)
	assert.Equal(t, 400, w.Code)

	body = validBookingBody(pod.ID)
	body["checkIn"] = "2026-10-05"
	body["checkOut"] = "2026-10-01"
	w = performJSON(r, "POST", "/api/bookings", body, nil)
	assert.Equal(t, 400, w.Code)

	body = validBookingBody(pod.ID)
	body["popUpBeds"] = -1
	w = performJSON(r, "POST", "/api/bookings", body, nil)
	assert.Equal(t, 400, w.Code, "negative pop-up beds must be rejected")
}

func TestCreateBookingUnknownPod(t *testing.T) {
	db := setupTestDB(t)
	r := bookingRouter(db)

	w := performJSON(r, "POST", "/api/bookings", validBookingBody(424242), nil)
	assert.Equal(t, 404, w.Code)
}

func TestFindBookingByReferenceAndName(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	r := bookingRouter(db)

	w := performJSON(r, "POST", "/api/bookings", validBookingBody(pod.ID), nil)
	require.Equal(t, 201, w.Code)
	var created struct {
		BookingReference string `json:"bookingReference"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Case-insensitive substring of the guest name
	w = performJSON(r, "POST", "/api/bookings/find", map[string]interface{}{
		"bookingReference": created.BookingReference,
		"lastName":         "obi",
	}, nil)
	assert.Equal(t, 200, w.Code, w.Body.String())

	w = performJSON(r, "POST", "/api/bookings/find", map[string]interface{}{
		"bookingReference": created.BookingReference,
		"lastName":         "nwosu",
	}, nil)
	assert.Equal(t, 404, w.Code)

	w = performJSON(r, "POST", "/api/bookings/find", map[string]interface{}{
		"bookingReference": "LUF-NOPE42",
		"lastName":         "obi",
	}, nil)
	assert.Equal(t, 404, w.Code)
}

func TestCheckAvailabilityExcludesHeldPod(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	r := bookingRouter(db)

	w := performJSON(r, "POST", "/api/bookings", validBookingBody(pod.ID), nil)
	require.Equal(t, 201, w.Code)

	w = performJSON(r, "POST", "/api/availability/check", map[string]interface{}{
		"checkIn":  "2026-10-01",
		"checkOut": "2026-10-03",
		"adults":   2,
	}, nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Results []PodAvailability `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Available)

	// A non-overlapping window is free again
	w = performJSON(r, "POST", "/api/availability/check", map[string]interface{}{
		"checkIn":  "2026-10-03",
		"checkOut": "2026-10-05",
		"adults":   2,
	}, nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Available)
}

func TestCheckAvailabilityCapacityLimits(t *testing.T) {
	db := setupTestDB(t)
	seedPod(t, db) // MaxAdults: 2
	r := bookingRouter(db)

	w := performJSON(r, "POST", "/api/availability/check", map[string]interface{}{
		"checkIn":  "2026-11-01",
		"checkOut": "2026-11-03",
		"adults":   3,
	}, nil)
	require.Equal(t, 200, w.Code)

	var resp struct {
		Results []PodAvailability `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Available)
	assert.Equal(t, "Too many adults for this pod", resp.Results[0].Reason)
}

func TestCreateBookingRejectsInvalidDiscountCode(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	r := bookingRouter(db)

	body := validBookingBody(pod.ID)
	body["discountCode"] = "NOSUCH"
	w := performJSON(r, "POST", "/api/bookings", body, nil)
	assert.Equal(t, 400, w.Code)
}

func TestCreateBookingDiscountRecordedNotApplied(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	discount := models.Discount{
		Code:          "SUMMER10",
		Type:          models.DiscountTypePercentage,
		Value:         decimal.NewFromInt(10),
		MinimumNights: 1,
	}
	require.NoError(t, db.Create(&discount).Error)
	r := bookingRouter(db)

	body := validBookingBody(pod.ID)
	body["discountCode"] = "summer10"
	w := performJSON(r, "POST", "/api/bookings", body, nil)
	require.Equal(t, 201, w.Code, w.Body.String())

	var booking models.Booking
	require.NoError(t, db.Order("id DESC").First(&booking).Error)
	require.NotNil(t, booking.DiscountID)
	assert.Equal(t, discount.ID, *booking.DiscountID)
	assert.True(t, booking.TotalPrice.Equal(decimal.NewFromInt(500000)),
		"total stays pre-discount, got %s", booking.TotalPrice)
}

func TestCreateBookingMinimumNightsDiscount(t *testing.T) {
	db := setupTestDB(t)
	pod := seedPod(t, db)
	discount := models.Discount{
		Code:          "LONGSTAY",
		Type:          models.DiscountTypePercentage,
		Value:         decimal.NewFromInt(15),
		MinimumNights: 5,
	}
	require.NoError(t, db.Create(&discount).Error)
	r := bookingRouter(db)

	body := validBookingBody(pod.ID) // 2 nights
	body["discountCode"] = "LONGSTAY"
	w := performJSON(r, "POST", "/api/bookings", body, nil)
	assert.Equal(t, 400, w.Code)
}

func TestExpiredDiscountRejected(t *testing.T) {
	db := setupTestDB(t)
	past := time.Now().AddDate(0, 0, -10)
	discount := models.Discount{
		Code:          "OLDCODE",
		Type:          models.DiscountTypeFixed,
		Value:         decimal.NewFromInt(1000),
		EndDate:       &past,
		MinimumNights: 1,
	}
	require.NoError(t, db.Create(&discount).Error)

	got, reason := validateDiscountCode(db, "OLDCODE", 2)
	assert.Nil(t, got)
	assert.Equal(t, "Discount has expired", reason)
}
