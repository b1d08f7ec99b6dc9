package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExtraInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
}

// GetExtras lists all extras
func GetExtras(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var extras []models.Extra
		if err := db.Order("category, name").Find(&extras).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch extras"})
			return
		}

		c.JSON(200, extras)
	}
}

// GetExtrasGrouped lists extras grouped by category for the booking form
func GetExtrasGrouped(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var extras []models.Extra
		if err := db.Order("category, name").Find(&extras).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch extras"})
			return
		}

		grouped := make(map[string][]models.Extra)
		for _, extra := range extras {
			category := extra.Category
			if category == "" {
				category = "Other"
			}
			grouped[category] = append(grouped[category], extra)
		}

		c.JSON(200, grouped)
	}
}

// CreateExtra creates a bookable extra
func CreateExtra(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ExtraInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		extra := models.Extra{
			Name:        input.Name,
			Description: input.Description,
			Price:       input.Price,
			Category:    input.Category,
			ImageURL:    input.ImageURL,
		}

		if err := db.Create(&extra).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create extra"})
			return
		}

		c.JSON(201, extra)
	}
}

// UpdateExtra updates a bookable extra
func UpdateExtra(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		extraId := c.Param("id")

		var extra models.Extra
		if err := db.First(&extra, extraId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Extra not found"})
			return
		}

		var input ExtraInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		extra.Name = input.Name
		extra.Description = input.Description
		extra.Price = input.Price
		extra.Category = input.Category
		extra.ImageURL = input.ImageURL

		if err := db.Save(&extra).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update extra"})
			return
		}

		c.JSON(200, extra)
	}
}

// DeleteExtra soft-deletes an extra
func DeleteExtra(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		extraId := c.Param("id")

		var extra models.Extra
		if err := db.First(&extra, extraId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Extra not found"})
			return
		}

		if err := db.Delete(&extra).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete extra"})
			return
		}

		c.JSON(200, gin.H{"message": "Extra deleted successfully"})
	}
}
