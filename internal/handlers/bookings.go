package handlers

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/internal/services"
	"github.com/lakecrest/podstay-backend/pkg/utils"
	"gorm.io/gorm"
)

const bookingReferencePrefix = "LUF"

type ContactInput struct {
	FullName             string `json:"fullName" binding:"required"`
	Email                string `json:"email" binding:"required,email"`
	Phone                string `json:"phone"`
	Gender               string `json:"gender"`
	DateOfBirth          string `json:"dateOfBirth"`
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
	Instructions         string `json:"instructions"`
}

type BookingGuestsInput struct {
	Adults   int `json:"adults" binding:"required,min=1"`
	Children int `json:"children"`
	Toddlers int `json:"toddlers"`
	Infants  int `json:"infants"`
}

type BookingExtraInput struct {
	ID       uint `json:"id" binding:"required"`
	Quantity int  `json:"quantity"`
}

type CreateBookingInput struct {
	Contact      ContactInput        `json:"contact" binding:"required"`
	PodID        uint                `json:"podId" binding:"required"`
	CheckIn      string              `json:"checkIn" binding:"required"`
	CheckOut     string              `json:"checkOut" binding:"required"`
	BoardType    string              `json:"boardType" binding:"omitempty,oneof=fullBoard halfBoard"`
	Guests       BookingGuestsInput  `json:"guests" binding:"required"`
	PopUpBeds    int                 `json:"popUpBeds" binding:"omitempty,min=0"`
	Extras       []BookingExtraInput `json:"extras"`
	DiscountCode string              `json:"discountCode"`
	VoucherCode  string              `json:"voucherCode"`
}

func paymentBaseURL() string {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return base
}

// upsertGuestDirectory keeps one directory entry per guest email
func upsertGuestDirectory(tx *gorm.DB, contact ContactInput) (*models.GuestDirectory, error) {
	var guest models.GuestDirectory
	err := tx.Where("email = ?", contact.Email).First(&guest).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	guest.FullName = contact.FullName
	guest.Email = contact.Email
	guest.Phone = contact.Phone
	guest.Gender = contact.Gender
	guest.IdentificationType = contact.IdentificationType
	guest.IdentificationNumber = contact.IdentificationNumber
	guest.Instructions = contact.Instructions
	if contact.DateOfBirth != "" {
		if dob, perr := time.Parse(dateLayout, contact.DateOfBirth); perr == nil {
			guest.DateOfBirth = &dob
		}
	}

	if err == gorm.ErrRecordNotFound {
		if err := tx.Create(&guest).Error; err != nil {
			return nil, err
		}
	} else {
		if err := tx.Save(&guest).Error; err != nil {
			return nil, err
		}
	}

	return &guest, nil
}

// CreateBooking creates a pending booking with calendar holds and returns an
// opaque payment link. The holds are written inside the same transaction as
// the booking; a date conflict rolls everything back.
func CreateBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		checkIn, err := time.Parse(dateLayout, input.CheckIn)
		if err != nil {
			c.JSON(400, gin.H{"error": "checkIn must be YYYY-MM-DD"})
			return
		}
		checkOut, err := time.Parse(dateLayout, input.CheckOut)
		if err != nil {
			c.JSON(400, gin.H{"error": "checkOut must be YYYY-MM-DD"})
			return
		}
		if !checkIn.Before(checkOut) {
			c.JSON(400, gin.H{"error": "checkIn must be before checkOut"})
			return
		}

		var pod models.Pod
		if err := db.Preload("PriceRules").First(&pod, input.PodID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pod not found"})
			return
		}

		boardType := models.BoardTypeFull
		if input.BoardType != "" {
			boardType = models.BoardType(input.BoardType)
		}

		// Resolve selected extras; unknown ids are skipped
		var selections []utils.ExtraSelection
		var bookingExtras []models.BookingExtra
		for _, e := range input.Extras {
			var extra models.Extra
			if err := db.First(&extra, e.ID).Error; err != nil {
				continue
			}
			qty := e.Quantity
			if qty <= 0 {
				qty = 1
			}
			selections = append(selections, utils.ExtraSelection{
				ExtraID:  extra.ID,
				Price:    extra.Price,
				Quantity: qty,
			})
			bookingExtras = append(bookingExtras, models.BookingExtra{
				ExtraID:    extra.ID,
				Quantity:   qty,
				TotalPrice: extra.Price.Mul(decimalFromInt(qty)),
			})
		}

		price := utils.CalculatePrice(utils.PriceInput{
			Pod:       &pod,
			BoardType: boardType,
			Guests: utils.GuestCounts{
				Adults:   input.Guests.Adults,
				Children: input.Guests.Children,
				Toddlers: input.Guests.Toddlers,
				Infants:  input.Guests.Infants,
			},
			PopUpBeds:  input.PopUpBeds,
			Extras:     selections,
			PriceRules: pod.PriceRules,
		})

		nights := int(checkOut.Sub(checkIn).Hours() / 24)

		// Discount and voucher codes are validated and recorded on the
		// booking but the persisted total is the pre-discount amount.
		var discountID, voucherID *uint
		if input.DiscountCode != "" {
			discount, reason := validateDiscountCode(db, input.DiscountCode, nights)
			if discount == nil {
				c.JSON(400, gin.H{"error": reason})
				return
			}
			discountID = &discount.ID
		}
		if input.VoucherCode != "" {
			voucher, reason := validateVoucherCode(db, input.VoucherCode)
			if voucher == nil {
				c.JSON(400, gin.H{"error": reason})
				return
			}
			voucherID = &voucher.ID
		}

		expiresAt := time.Now().Add(services.DefaultExpirationMinutes * time.Minute)

		var booking models.Booking
		var token models.PaymentToken
		var conflict bool

		err = db.Transaction(func(tx *gorm.DB) error {
			guest, err := upsertGuestDirectory(tx, input.Contact)
			if err != nil {
				return err
			}

			booking = models.Booking{
				BookingReference: utils.GenerateBookingReference(bookingReferencePrefix),
				GuestDirectoryID: guest.ID,
				PodID:            pod.ID,
				CheckIn:          checkIn,
				CheckOut:         checkOut,
				TotalPrice:       price.Total,
				DiscountID:       discountID,
				VoucherID:        voucherID,
				BookingStatus:    models.BookingStatusPending,
				BoardType:        boardType,
				PopUpBeds:        input.PopUpBeds,
				ExpiresAt:        &expiresAt,
			}
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}

			guestRow := models.BookingGuest{
				BookingID: booking.ID,
				Adults:    input.Guests.Adults,
				Children:  input.Guests.Children,
				Toddlers:  input.Guests.Toddlers,
				Infants:   input.Guests.Infants,
			}
			if err := tx.Create(&guestRow).Error; err != nil {
				return err
			}

			for i := range bookingExtras {
				bookingExtras[i].BookingID = booking.ID
				if err := tx.Create(&bookingExtras[i]).Error; err != nil {
					return err
				}
			}

			// The unique (pod_id, date) index turns a concurrent
			// double-booking into a conflict that aborts the whole create.
			for _, date := range stayDates(checkIn, checkOut) {
				hold := models.CalendarAvailability{
					PodID:     pod.ID,
					Date:      date,
					Status:    models.CalendarStatusBooked,
					BookingID: &booking.ID,
				}
				if err := tx.Create(&hold).Error; err != nil {
					if isDuplicateKeyError(err) {
						conflict = true
					}
					return err
				}
			}

			logEntry := models.BookingLog{
				BookingID: booking.ID,
				Action:    "Booking created",
				NewStatus: string(models.BookingStatusPending),
			}
			if err := tx.Create(&logEntry).Error; err != nil {
				return err
			}

			token = models.PaymentToken{
				Token:     utils.GeneratePaymentToken(),
				BookingID: booking.ID,
				ExpiresAt: expiresAt,
			}
			return tx.Create(&token).Error
		})
		if err != nil {
			if conflict {
				c.JSON(409, gin.H{"error": "Selected dates are no longer available"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create booking: " + err.Error()})
			return
		}

		if err := services.InvalidateAvailabilityCache(c.Request.Context()); err != nil {
			log.Printf("Failed to invalidate availability cache: %v", err)
		}

		c.JSON(201, gin.H{
			"bookingReference": booking.BookingReference,
			"bookingStatus":    booking.BookingStatus,
			"totalPrice":       booking.TotalPrice,
			"breakdown":        price.Breakdown,
			"subtotal":         price.Subtotal,
			"extrasTotal":      price.ExtrasTotal,
			"expiresAt":        booking.ExpiresAt,
			"paymentUrl":       paymentBaseURL() + "/api/payments/token/" + token.Token,
		})
	}
}

// FindBooking looks up a booking by reference plus a case-insensitive
// substring of the guest's name. Public endpoint for the "manage my
// booking" page.
func FindBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingReference string `json:"bookingReference" binding:"required"`
			LastName         string `json:"lastName" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var booking models.Booking
		if err := db.Preload("GuestDirectory").
			Preload("Pod").
			Preload("Pod.Images").
			Preload("Guests").
			Preload("Extras").
			Preload("Extras.Extra").
			Where("booking_reference = ?", input.BookingReference).
			First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.GuestDirectory == nil ||
			!strings.Contains(strings.ToLower(booking.GuestDirectory.FullName), strings.ToLower(input.LastName)) {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		var mealPlan models.MealPlan
		var mealPlanResp interface{}
		if err := db.Where("board_type = ?", booking.BoardType).First(&mealPlan).Error; err == nil {
			mealPlanResp = mealPlan
		}

		c.JSON(200, gin.H{
			"booking":  booking,
			"nights":   booking.Nights(),
			"mealPlan": mealPlanResp,
		})
	}
}

type UpdateBookingInput struct {
	CheckIn       string              `json:"checkIn"`
	CheckOut      string              `json:"checkOut"`
	BoardType     string              `json:"boardType" binding:"omitempty,oneof=fullBoard halfBoard"`
	Guests        *BookingGuestsInput `json:"guests"`
	PopUpBeds     *int                `json:"popUpBeds" binding:"omitempty,min=0"`
	Extras        []BookingExtraInput `json:"extras"`
	BookingStatus string              `json:"bookingStatus" binding:"omitempty,oneof=pending confirmed cancelled"`
}

// UpdateBooking applies a partial update. Price is recomputed when any
// price input changes and calendar holds are rebuilt when dates change.
// Flipping the status to cancelled releases the hold and emails the guest.
func UpdateBooking(db *gorm.DB, mailer *services.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")

		var booking models.Booking
		if err := db.Preload("GuestDirectory").Preload("Guests").Preload("Extras").
			First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		var input UpdateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		checkIn, checkOut := booking.CheckIn, booking.CheckOut
		datesChanged := false
		if input.CheckIn != "" {
			parsed, err := time.Parse(dateLayout, input.CheckIn)
			if err != nil {
				c.JSON(400, gin.H{"error": "checkIn must be YYYY-MM-DD"})
				return
			}
			checkIn = parsed
			datesChanged = true
		}
		if input.CheckOut != "" {
			parsed, err := time.Parse(dateLayout, input.CheckOut)
			if err != nil {
				c.JSON(400, gin.H{"error": "checkOut must be YYYY-MM-DD"})
				return
			}
			checkOut = parsed
			datesChanged = true
		}
		if !checkIn.Before(checkOut) {
			c.JSON(400, gin.H{"error": "checkIn must be before checkOut"})
			return
		}

		priceChanged := datesChanged || input.BoardType != "" ||
			input.Guests != nil || input.PopUpBeds != nil || input.Extras != nil

		boardType := booking.BoardType
		if input.BoardType != "" {
			boardType = models.BoardType(input.BoardType)
		}

		guests := utils.GuestCounts{}
		if len(booking.Guests) > 0 {
			guests = utils.GuestCounts{
				Adults:   booking.Guests[0].Adults,
				Children: booking.Guests[0].Children,
				Toddlers: booking.Guests[0].Toddlers,
				Infants:  booking.Guests[0].Infants,
			}
		}
		if input.Guests != nil {
			guests = utils.GuestCounts{
				Adults:   input.Guests.Adults,
				Children: input.Guests.Children,
				Toddlers: input.Guests.Toddlers,
				Infants:  input.Guests.Infants,
			}
		}

		popUpBeds := booking.PopUpBeds
		if input.PopUpBeds != nil {
			popUpBeds = *input.PopUpBeds
		}

		cancelling := input.BookingStatus == string(models.BookingStatusCancelled) &&
			booking.BookingStatus != models.BookingStatusCancelled

		var conflict bool
		err := db.Transaction(func(tx *gorm.DB) error {
			oldStatus := booking.BookingStatus

			if priceChanged {
				var pod models.Pod
				if err := tx.Preload("PriceRules").First(&pod, booking.PodID).Error; err != nil {
					return err
				}

				var selections []utils.ExtraSelection
				if input.Extras != nil {
					if err := tx.Where("booking_id = ?", booking.ID).Delete(&models.BookingExtra{}).Error; err != nil {
						return err
					}
					for _, e := range input.Extras {
						var extra models.Extra
						if err := tx.First(&extra, e.ID).Error; err != nil {
							continue
						}
						qty := e.Quantity
						if qty <= 0 {
							qty = 1
						}
						selections = append(selections, utils.ExtraSelection{
							ExtraID:  extra.ID,
							Price:    extra.Price,
							Quantity: qty,
						})
						row := models.BookingExtra{
							BookingID:  booking.ID,
							ExtraID:    extra.ID,
							Quantity:   qty,
							TotalPrice: extra.Price.Mul(decimalFromInt(qty)),
						}
						if err := tx.Create(&row).Error; err != nil {
							return err
						}
					}
				} else {
					for _, e := range booking.Extras {
						unit := e.TotalPrice
						if e.Quantity > 0 {
							unit = e.TotalPrice.Div(decimalFromInt(e.Quantity))
						}
						selections = append(selections, utils.ExtraSelection{
							ExtraID:  e.ExtraID,
							Price:    unit,
							Quantity: e.Quantity,
						})
					}
				}

				price := utils.CalculatePrice(utils.PriceInput{
					Pod:        &pod,
					BoardType:  boardType,
					Guests:     guests,
					PopUpBeds:  popUpBeds,
					Extras:     selections,
					PriceRules: pod.PriceRules,
				})
				booking.TotalPrice = price.Total
			}

			if input.Guests != nil && len(booking.Guests) > 0 {
				guestRow := booking.Guests[0]
				guestRow.Adults = guests.Adults
				guestRow.Children = guests.Children
				guestRow.Toddlers = guests.Toddlers
				guestRow.Infants = guests.Infants
				if err := tx.Save(&guestRow).Error; err != nil {
					return err
				}
			}

			if datesChanged {
				if err := tx.Where("booking_id = ?", booking.ID).
					Delete(&models.CalendarAvailability{}).Error; err != nil {
					return err
				}
				for _, date := range stayDates(checkIn, checkOut) {
					hold := models.CalendarAvailability{
						PodID:     booking.PodID,
						Date:      date,
						Status:    models.CalendarStatusBooked,
						BookingID: &booking.ID,
					}
					if err := tx.Create(&hold).Error; err != nil {
						if isDuplicateKeyError(err) {
							conflict = true
						}
						return err
					}
				}
				booking.CheckIn = checkIn
				booking.CheckOut = checkOut
			}

			if cancelling {
				booking.BookingStatus = models.BookingStatusCancelled
				booking.ExpiresAt = nil
				if err := tx.Where("booking_id = ?", booking.ID).
					Delete(&models.CalendarAvailability{}).Error; err != nil {
					return err
				}
			} else if input.BookingStatus != "" {
				booking.BookingStatus = models.BookingStatus(input.BookingStatus)
			}
			booking.BoardType = boardType
			booking.PopUpBeds = popUpBeds

			if err := tx.Save(&booking).Error; err != nil {
				return err
			}

			if booking.BookingStatus != oldStatus || priceChanged {
				logEntry := models.BookingLog{
					BookingID: booking.ID,
					Action:    "Booking updated",
					OldStatus: string(oldStatus),
					NewStatus: string(booking.BookingStatus),
				}
				if err := tx.Create(&logEntry).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if conflict {
				c.JSON(409, gin.H{"error": "New dates are not available"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to update booking: " + err.Error()})
			return
		}

		if err := services.InvalidateAvailabilityCache(c.Request.Context()); err != nil {
			log.Printf("Failed to invalidate availability cache: %v", err)
		}

		if cancelling && mailer != nil && booking.GuestDirectory != nil {
			b, guest := booking, booking.GuestDirectory
			var pod models.Pod
			var podPtr *models.Pod
			if err := db.First(&pod, booking.PodID).Error; err == nil {
				podPtr = &pod
			}
			go func() {
				if err := mailer.SendBookingCancellation(&b, guest, podPtr); err != nil {
					log.Printf("Failed to send cancellation email for %s: %v", b.BookingReference, err)
				}
			}()
		}

		c.JSON(200, booking)
	}
}

// GetBookings lists bookings for the admin dashboard
func GetBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bookings []models.Booking
		query := db.Preload("GuestDirectory").Preload("Pod").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("booking_status = ?", status)
		}
		if err := query.Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, bookings)
	}
}

// GetBookingDetails retrieves one booking with every association
func GetBookingDetails(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")

		var booking models.Booking
		if err := db.Preload("GuestDirectory").
			Preload("Pod").
			Preload("Guests").
			Preload("Extras").
			Preload("Extras.Extra").
			Preload("Payments").
			Preload("Logs").
			First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		c.JSON(200, booking)
	}
}
