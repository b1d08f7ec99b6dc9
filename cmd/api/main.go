package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lakecrest/podstay-backend/internal/database"
	"github.com/lakecrest/podstay-backend/internal/gateways"
	"github.com/lakecrest/podstay-backend/internal/handlers"
	"github.com/lakecrest/podstay-backend/internal/middleware"
	"github.com/lakecrest/podstay-backend/internal/services"
)

func buildGatewayRegistry() *gateways.Registry {
	paystack := gateways.NewPaystack(gateways.PaystackConfig{
		SecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
		CallbackURL: os.Getenv("PAYSTACK_CALLBACK_URL"),
	})
	squadco := gateways.NewSquadCo(gateways.SquadCoConfig{
		SecretKey:   os.Getenv("SQUADCO_SECRET_KEY"),
		CallbackURL: os.Getenv("SQUADCO_CALLBACK_URL"),
	})

	defaultGateway := os.Getenv("DEFAULT_PAYMENT_GATEWAY")
	if defaultGateway == "" {
		defaultGateway = paystack.Name()
	}

	gws := []gateways.Gateway{paystack, squadco}
	if os.Getenv("APP_ENV") != "production" {
		gws = append(gws, &gateways.Mock{GatewayName: "mock", Secret: os.Getenv("MOCK_GATEWAY_SECRET")})
	}

	return gateways.NewRegistry(defaultGateway, gws...)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	mailer := services.NewMailerFromEnv()
	registry := buildGatewayRegistry()
	expiration := services.NewBookingExpirationService(db)
	reconciler := services.NewPaymentReconciler(db, mailer, hub)

	// Periodic sweep releasing the calendar holds of unpaid bookings
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			count, err := expiration.ExpireOldBookings()
			if err != nil {
				log.Printf("Booking expiration sweep failed: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("Expired %d unpaid bookings", count)
			}
		}
	}()

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored uploads
	r.Static("/uploads", "/app/uploads")

	r.GET("/", func(c *gin.Context) {
		storage := "local"
		if services.IsUsingS3() {
			storage = "s3"
		}
		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   "podstay-backend",
			"storage":   storage,
			"wsClients": hub.GetConnectedClients(),
		})
	})

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		api.GET("/pods", handlers.GetPods(db))
		api.GET("/pods/:id", handlers.GetPod(db))
		api.GET("/pods/:id/calendar", handlers.GetPodCalendar(db))
		api.GET("/extras", handlers.GetExtras(db))
		api.GET("/extras/grouped", handlers.GetExtrasGrouped(db))
		api.GET("/meal-plans", handlers.GetMealPlans(db))
		api.GET("/meal-plans/:id", handlers.GetMealPlan(db))
		api.POST("/availability/check", handlers.CheckAvailability(db))
		api.POST("/discounts/validate", handlers.ValidateDiscount(db))
		api.POST("/vouchers/validate", handlers.ValidateVoucher(db))

		bookings := api.Group("/bookings")
		{
			bookings.POST("", handlers.CreateBooking(db))
			bookings.POST("/find", handlers.FindBooking(db))
		}

		payments := api.Group("/payments")
		{
			payments.POST("/initialize", handlers.InitializePayment(db, registry, expiration, reconciler))
			payments.GET("/initialize/:reference", handlers.InitializePaymentRedirect(db, registry, expiration, reconciler))
			payments.GET("/token/:token", handlers.PayWithToken(db, registry, expiration, reconciler))
			payments.GET("/verify/:reference", handlers.VerifyTransaction(db, registry, expiration, reconciler))
			payments.GET("/callback", handlers.HandlePaymentCallback(db, registry, expiration, reconciler))
			payments.GET("/check/:reference", handlers.CheckBookingForPayment(db, expiration))
			payments.POST("/webhooks/paystack", handlers.HandleWebhook(db, registry, reconciler, "paystack", "x-paystack-signature"))
			payments.POST("/webhooks/squadco", handlers.HandleWebhook(db, registry, reconciler, "squadco", "x-squad-encrypted-body"))
			payments.POST("/mock-success", handlers.MockPaymentSuccess(db, reconciler))
		}

		// Live booking status for the payment page
		api.GET("/ws/bookings/:reference", handlers.BookingStatusSocket(db, hub))

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.GET("/summary", handlers.GetDashboardSummary(db))
			admin.GET("/payments", handlers.GetPayments(db))
			admin.GET("/guests", handlers.GetGuestDirectory(db))

			admin.GET("/bookings", handlers.GetBookings(db))
			admin.GET("/bookings/:id", handlers.GetBookingDetails(db))
			admin.GET("/bookings/:id/logs", handlers.GetBookingLogs(db))
			admin.PATCH("/bookings/:id", handlers.UpdateBooking(db, mailer))

			admin.POST("/pods", handlers.CreatePod(db))
			admin.PUT("/pods/:id", handlers.UpdatePod(db))
			admin.DELETE("/pods/:id", handlers.DeletePod(db))
			admin.POST("/pods/:id/images", handlers.UploadPodImage(db))
			admin.DELETE("/pod-images/:imageId", handlers.DeletePodImage(db))

			admin.POST("/extras", handlers.CreateExtra(db))
			admin.PUT("/extras/:id", handlers.UpdateExtra(db))
			admin.DELETE("/extras/:id", handlers.DeleteExtra(db))

			admin.POST("/meal-plans", handlers.CreateMealPlan(db))
			admin.PUT("/meal-plans/:id", handlers.UpdateMealPlan(db))

			admin.GET("/discounts", handlers.GetDiscounts(db))
			admin.POST("/discounts", handlers.CreateDiscount(db))
			admin.PUT("/discounts/:id", handlers.UpdateDiscount(db))
			admin.DELETE("/discounts/:id", handlers.DeleteDiscount(db))

			admin.GET("/vouchers", handlers.GetVouchers(db))
			admin.POST("/vouchers", handlers.CreateVoucher(db))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
