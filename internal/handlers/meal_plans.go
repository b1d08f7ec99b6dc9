package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MealPlanInput struct {
	BoardType string          `json:"boardType" binding:"required,oneof=fullBoard halfBoard"`
	Title     string          `json:"title" binding:"required"`
	Subtitle  string          `json:"subtitle"`
	Items     []string        `json:"items"`
	Price     decimal.Decimal `json:"price"`
	IsActive  *bool           `json:"isActive"`
}

// GetMealPlans lists active meal plans
func GetMealPlans(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var plans []models.MealPlan
		query := db.Order("board_type")
		if c.Query("includeInactive") != "true" {
			query = query.Where("is_active = ?", true)
		}
		if err := query.Find(&plans).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch meal plans"})
			return
		}

		c.JSON(200, plans)
	}
}

// GetMealPlan retrieves a meal plan by numeric id or board type
func GetMealPlan(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("id")

		var plan models.MealPlan
		err := db.Where("board_type = ?", key).First(&plan).Error
		if err != nil {
			err = db.First(&plan, key).Error
		}
		if err != nil {
			c.JSON(404, gin.H{"error": "Meal plan not found"})
			return
		}

		c.JSON(200, plan)
	}
}

// CreateMealPlan creates a meal plan; one per board type
func CreateMealPlan(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input MealPlanInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		plan := models.MealPlan{
			BoardType: models.BoardType(input.BoardType),
			Title:     input.Title,
			Subtitle:  input.Subtitle,
			Items:     input.Items,
			Price:     input.Price,
			IsActive:  true,
		}
		if input.IsActive != nil {
			plan.IsActive = *input.IsActive
		}

		if err := db.Create(&plan).Error; err != nil {
			if isDuplicateKeyError(err) {
				c.JSON(409, gin.H{"error": "A meal plan for this board type already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create meal plan"})
			return
		}

		c.JSON(201, plan)
	}
}

// UpdateMealPlan updates a meal plan
func UpdateMealPlan(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		planId := c.Param("id")

		var plan models.MealPlan
		if err := db.First(&plan, planId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Meal plan not found"})
			return
		}

		var input MealPlanInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		plan.BoardType = models.BoardType(input.BoardType)
		plan.Title = input.Title
		plan.Subtitle = input.Subtitle
		plan.Items = input.Items
		plan.Price = input.Price
		if input.IsActive != nil {
			plan.IsActive = *input.IsActive
		}

		if err := db.Save(&plan).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update meal plan"})
			return
		}

		c.JSON(200, plan)
	}
}
