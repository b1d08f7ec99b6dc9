package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/internal/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PriceRuleInput struct {
	GuestType       string          `json:"guestType" binding:"required,oneof=child toddler infant"`
	PricePercentage decimal.Decimal `json:"pricePercentage" binding:"required"`
}

type PodInput struct {
	PodName        string           `json:"podName" binding:"required"`
	Description    string           `json:"description"`
	Rules          string           `json:"rules"`
	Amenities      string           `json:"amenities"`
	BaseAdultPrice decimal.Decimal  `json:"baseAdultPrice" binding:"required"`
	MaxAdults      int              `json:"maxAdults" binding:"required,min=1"`
	MaxChildren    int              `json:"maxChildren"`
	MaxToddlers    int              `json:"maxToddlers"`
	MaxInfants     int              `json:"maxInfants"`
	IsActive       *bool            `json:"isActive"`
	PriceRules     []PriceRuleInput `json:"priceRules"`
}

// GetPods lists all active pods for the public site
func GetPods(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pods []models.Pod
		query := db.Preload("Images").Preload("PriceRules")
		if c.Query("includeInactive") != "true" {
			query = query.Where("is_active = ?", true)
		}
		if err := query.Find(&pods).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch pods"})
			return
		}

		c.JSON(200, pods)
	}
}

// GetPod retrieves a single pod with its images and price rules
func GetPod(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		podId := c.Param("id")

		var pod models.Pod
		if err := db.Preload("Images").Preload("PriceRules").First(&pod, podId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pod not found"})
			return
		}

		c.JSON(200, pod)
	}
}

// CreatePod creates a pod together with its price rules
func CreatePod(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input PodInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		pod := models.Pod{
			PodName:        input.PodName,
			Description:    input.Description,
			Rules:          input.Rules,
			Amenities:      input.Amenities,
			BaseAdultPrice: input.BaseAdultPrice,
			MaxAdults:      input.MaxAdults,
			MaxChildren:    input.MaxChildren,
			MaxToddlers:    input.MaxToddlers,
			MaxInfants:     input.MaxInfants,
			IsActive:       true,
		}
		if input.IsActive != nil {
			pod.IsActive = *input.IsActive
		}
		for _, rule := range input.PriceRules {
			pod.PriceRules = append(pod.PriceRules, models.PodPriceRule{
				GuestType:       rule.GuestType,
				PricePercentage: rule.PricePercentage,
			})
		}

		if err := db.Create(&pod).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create pod: " + err.Error()})
			return
		}

		c.JSON(201, pod)
	}
}

// UpdatePod updates a pod; when priceRules are sent the existing set is
// replaced wholesale.
func UpdatePod(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		podId := c.Param("id")

		var pod models.Pod
		if err := db.First(&pod, podId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pod not found"})
			return
		}

		var input PodInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		pod.PodName = input.PodName
		pod.Description = input.Description
		pod.Rules = input.Rules
		pod.Amenities = input.Amenities
		pod.BaseAdultPrice = input.BaseAdultPrice
		pod.MaxAdults = input.MaxAdults
		pod.MaxChildren = input.MaxChildren
		pod.MaxToddlers = input.MaxToddlers
		pod.MaxInfants = input.MaxInfants
		if input.IsActive != nil {
			pod.IsActive = *input.IsActive
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&pod).Error; err != nil {
				return err
			}
			if input.PriceRules != nil {
				if err := tx.Where("pod_id = ?", pod.ID).Delete(&models.PodPriceRule{}).Error; err != nil {
					return err
				}
				for _, rule := range input.PriceRules {
					newRule := models.PodPriceRule{
						PodID:           pod.ID,
						GuestType:       rule.GuestType,
						PricePercentage: rule.PricePercentage,
					}
					if err := tx.Create(&newRule).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to update pod: " + err.Error()})
			return
		}

		db.Preload("Images").Preload("PriceRules").First(&pod, pod.ID)
		c.JSON(200, pod)
	}
}

// DeletePod soft-deletes a pod so historical bookings keep their reference
func DeletePod(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		podId := c.Param("id")

		var pod models.Pod
		if err := db.First(&pod, podId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pod not found"})
			return
		}

		if err := db.Delete(&pod).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete pod"})
			return
		}

		c.JSON(200, gin.H{"message": "Pod deleted successfully"})
	}
}

// UploadPodImage stores an uploaded image and attaches it to the pod
func UploadPodImage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		podId := c.Param("id")

		var pod models.Pod
		if err := db.First(&pod, podId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pod not found"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(400, gin.H{"error": "Image file is required"})
			return
		}

		path, err := services.UploadImage(file, "pods")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload image: " + err.Error()})
			return
		}

		image := models.PodImage{
			PodID:    pod.ID,
			ImageURL: services.GetImageURL(path),
			Caption:  c.PostForm("caption"),
		}
		if err := db.Create(&image).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save image"})
			return
		}

		c.JSON(201, image)
	}
}

// DeletePodImage removes a pod image record and its stored file
func DeletePodImage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		imageId := c.Param("imageId")

		var image models.PodImage
		if err := db.First(&image, imageId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Image not found"})
			return
		}

		if err := db.Delete(&image).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete image"})
			return
		}

		// Stored file cleanup is best effort
		if err := services.DeleteImage(image.ImageURL); err != nil {
			c.JSON(200, gin.H{"message": "Image deleted, file cleanup skipped"})
			return
		}

		c.JSON(200, gin.H{"message": "Image deleted successfully"})
	}
}
