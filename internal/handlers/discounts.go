package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountInput struct {
	Code          string          `json:"code" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=percentage fixed"`
	Value         decimal.Decimal `json:"value" binding:"required"`
	StartDate     *time.Time      `json:"startDate"`
	EndDate       *time.Time      `json:"endDate"`
	MinimumNights int             `json:"minimumNights"`
	MaxUses       int             `json:"maxUses"`
}

type VoucherInput struct {
	Code      string          `json:"code" binding:"required"`
	Value     decimal.Decimal `json:"value" binding:"required"`
	ValidFrom *time.Time      `json:"validFrom"`
	ValidTo   *time.Time      `json:"validTo"`
	MaxUses   int             `json:"maxUses"`
}

// GetDiscounts lists all discounts
func GetDiscounts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var discounts []models.Discount
		if err := db.Find(&discounts).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch discounts"})
			return
		}

		c.JSON(200, discounts)
	}
}

// CreateDiscount creates a discount code
func CreateDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input DiscountInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		discount := models.Discount{
			Code:          strings.ToUpper(strings.TrimSpace(input.Code)),
			Type:          models.DiscountType(input.Type),
			Value:         input.Value,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			MinimumNights: input.MinimumNights,
			MaxUses:       input.MaxUses,
		}
		if discount.MinimumNights < 1 {
			discount.MinimumNights = 1
		}

		if err := db.Create(&discount).Error; err != nil {
			if isDuplicateKeyError(err) {
				c.JSON(409, gin.H{"error": "Discount code already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create discount"})
			return
		}

		c.JSON(201, discount)
	}
}

// UpdateDiscount updates a discount code
func UpdateDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		discountId := c.Param("id")

		var discount models.Discount
		if err := db.First(&discount, discountId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Discount not found"})
			return
		}

		var input DiscountInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		discount.Code = strings.ToUpper(strings.TrimSpace(input.Code))
		discount.Type = models.DiscountType(input.Type)
		discount.Value = input.Value
		discount.StartDate = input.StartDate
		discount.EndDate = input.EndDate
		discount.MinimumNights = input.MinimumNights
		discount.MaxUses = input.MaxUses

		if err := db.Save(&discount).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update discount"})
			return
		}

		c.JSON(200, discount)
	}
}

// DeleteDiscount soft-deletes a discount code
func DeleteDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		discountId := c.Param("id")

		var discount models.Discount
		if err := db.First(&discount, discountId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Discount not found"})
			return
		}

		if err := db.Delete(&discount).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete discount"})
			return
		}

		c.JSON(200, gin.H{"message": "Discount deleted successfully"})
	}
}

// validateDiscountCode checks a discount's date window, usage cap and
// minimum-nights requirement. Returns nil with a reason when invalid.
func validateDiscountCode(db *gorm.DB, code string, nights int) (*models.Discount, string) {
	var discount models.Discount
	if err := db.Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).First(&discount).Error; err != nil {
		return nil, "Discount code not found"
	}

	now := time.Now()
	if discount.StartDate != nil && now.Before(*discount.StartDate) {
		return nil, "Discount is not yet active"
	}
	if discount.EndDate != nil && now.After(discount.EndDate.AddDate(0, 0, 1)) {
		return nil, "Discount has expired"
	}
	if discount.MaxUses > 0 && discount.UsedCount >= discount.MaxUses {
		return nil, "Discount usage limit reached"
	}
	if nights > 0 && nights < discount.MinimumNights {
		return nil, "Stay is shorter than the discount minimum"
	}

	return &discount, ""
}

func validateVoucherCode(db *gorm.DB, code string) (*models.Voucher, string) {
	var voucher models.Voucher
	if err := db.Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).First(&voucher).Error; err != nil {
		return nil, "Voucher code not found"
	}

	now := time.Now()
	if voucher.ValidFrom != nil && now.Before(*voucher.ValidFrom) {
		return nil, "Voucher is not yet active"
	}
	if voucher.ValidTo != nil && now.After(voucher.ValidTo.AddDate(0, 0, 1)) {
		return nil, "Voucher has expired"
	}
	if voucher.MaxUses > 0 && voucher.UsedCount >= voucher.MaxUses {
		return nil, "Voucher usage limit reached"
	}

	return &voucher, ""
}

// ValidateDiscount checks a discount code for the booking form
func ValidateDiscount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Code   string `json:"code" binding:"required"`
			Nights int    `json:"nights"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		discount, reason := validateDiscountCode(db, input.Code, input.Nights)
		if discount == nil {
			c.JSON(200, gin.H{"valid": false, "reason": reason})
			return
		}

		c.JSON(200, gin.H{
			"valid":    true,
			"discount": discount,
		})
	}
}

// CreateVoucher creates a voucher code
func CreateVoucher(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input VoucherInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		voucher := models.Voucher{
			Code:      strings.ToUpper(strings.TrimSpace(input.Code)),
			Value:     input.Value,
			ValidFrom: input.ValidFrom,
			ValidTo:   input.ValidTo,
			MaxUses:   input.MaxUses,
		}

		if err := db.Create(&voucher).Error; err != nil {
			if isDuplicateKeyError(err) {
				c.JSON(409, gin.H{"error": "Voucher code already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create voucher"})
			return
		}

		c.JSON(201, voucher)
	}
}

// GetVouchers lists all vouchers
func GetVouchers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var vouchers []models.Voucher
		if err := db.Find(&vouchers).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch vouchers"})
			return
		}

		c.JSON(200, vouchers)
	}
}

// ValidateVoucher checks a voucher code for the booking form
func ValidateVoucher(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		voucher, reason := validateVoucherCode(db, input.Code)
		if voucher == nil {
			c.JSON(200, gin.H{"valid": false, "reason": reason})
			return
		}

		c.JSON(200, gin.H{
			"valid":   true,
			"voucher": voucher,
		})
	}
}
