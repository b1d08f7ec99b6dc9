package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/gateways"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/internal/services"
	"github.com/lakecrest/podstay-backend/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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

type paymentDeps struct {
	db         *gorm.DB
	registry   *gateways.Registry
	expiration *services.BookingExpirationService
	reconciler *services.PaymentReconciler
	paystack   *gateways.Mock
	squadco    *gateways.Mock
}

func setupPaymentDeps(t *testing.T) *paymentDeps {
	t.Helper()

	db := setupTestDB(t)

	paystack := gateways.NewMock()
	paystack.GatewayName = "paystack"
	paystack.Secret = "paystack-secret"

	squadco := gateways.NewMock()
	squadco.GatewayName = "squadco"
	squadco.Secret = "squadco-secret"

	return &paymentDeps{
		db:         db,
		registry:   gateways.NewRegistry("paystack", paystack, squadco),
		expiration: services.NewBookingExpirationService(db),
		reconciler: services.NewPaymentReconciler(db, nil, nil),
		paystack:   paystack,
		squadco:    squadco,
	}
}

func (d *paymentDeps) router() *gin.Engine {
	r := gin.New()
	payments := r.Group("/api/payments")
	payments.POST("/initialize", InitializePayment(d.db, d.registry, d.expiration, d.reconciler))
	payments.GET("/token/:token", PayWithToken(d.db, d.registry, d.expiration, d.reconciler))
	payments.GET("/verify/:reference", VerifyTransaction(d.db, d.registry, d.expiration, d.reconciler))
	payments.GET("/callback", HandlePaymentCallback(d.db, d.registry, d.expiration, d.reconciler))
	payments.GET("/check/:reference", CheckBookingForPayment(d.db, d.expiration))
	payments.POST("/webhooks/paystack", HandleWebhook(d.db, d.registry, d.reconciler, "paystack", "x-paystack-signature"))
	payments.POST("/webhooks/squadco", HandleWebhook(d.db, d.registry, d.reconciler, "squadco", "x-squad-encrypted-body"))
	payments.POST("/mock-success", MockPaymentSuccess(d.db, d.reconciler))
	return r
}

func performJSON(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func performRaw(r http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedPod(t *testing.T, db *gorm.DB) *models.Pod {
	t.Helper()

	pod := models.Pod{
		PodName:        "Lakeside Pod",
		BaseAdultPrice: decimal.NewFromInt(250000),
		MaxAdults:      2,
		MaxChildren:    2,
		MaxToddlers:    2,
		MaxInfants:     2,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&pod).Error)
	return &pod
}

func seedBookingWithToken(t *testing.T, db *gorm.DB, tokenExpiry time.Time) (*models.Booking, *models.PaymentToken) {
	t.Helper()

	pod := seedPod(t, db)

	guest := models.GuestDirectory{
		FullName: "Ada Obi",
		Email:    utils.GenerateBookingReference("guest") + "@example.test",
	}
	require.NoError(t, db.Create(&guest).Error)

	expiresAt := time.Now().Add(30 * time.Minute)
	checkIn := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
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

	token := models.PaymentToken{
		Token:     utils.GeneratePaymentToken(),
		BookingID: booking.ID,
		ExpiresAt: tokenExpiry,
	}
	require.NoError(t, db.Create(&token).Error)

	booking.GuestDirectory = &guest
	return &booking, &token
}
