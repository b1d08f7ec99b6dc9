package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakecrest/podstay-backend/internal/models"
	"github.com/lakecrest/podstay-backend/internal/services"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type AvailabilityInput struct {
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
	Adults   int    `json:"adults" binding:"required,min=1"`
	Children int    `json:"children"`
	Toddlers int    `json:"toddlers"`
	Infants  int    `json:"infants"`
}

type PodAvailability struct {
	Pod       models.Pod `json:"pod"`
	Available bool       `json:"available"`
	Reason    string     `json:"reason,omitempty"`
}

// stayDates expands [checkIn, checkOut) into the occupied dates. The
// checkout day itself is free for the next guest.
func stayDates(checkIn, checkOut time.Time) []time.Time {
	var dates []time.Time
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// CheckAvailability returns every pod flagged available or not for the
// requested stay. The result is cached briefly in Redis; the calendar table
// remains the source of truth and the booking transaction re-checks it.
func CheckAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AvailabilityInput
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

		var cached []PodAvailability
		hit, err := services.GetCachedAvailability(c.Request.Context(), input.CheckIn, input.CheckOut,
			input.Adults, input.Children, input.Toddlers, input.Infants, &cached)
		if err != nil {
			log.Printf("Availability cache read failed: %v", err)
		}
		if hit {
			c.JSON(200, gin.H{"results": cached, "cached": true})
			return
		}

		var pods []models.Pod
		if err := db.Preload("Images").Preload("PriceRules").
			Where("is_active = ?", true).Find(&pods).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch pods"})
			return
		}

		dates := stayDates(checkIn, checkOut)

		// Pods with any occupied date in the range
		var occupiedPodIDs []uint
		if err := db.Model(&models.CalendarAvailability{}).
			Where("date IN ? AND status IN ?", dates,
				[]models.CalendarStatus{models.CalendarStatusBooked, models.CalendarStatusBlocked}).
			Distinct().Pluck("pod_id", &occupiedPodIDs).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to check calendar"})
			return
		}
		occupied := make(map[uint]bool, len(occupiedPodIDs))
		for _, id := range occupiedPodIDs {
			occupied[id] = true
		}

		results := make([]PodAvailability, 0, len(pods))
		for _, pod := range pods {
			entry := PodAvailability{Pod: pod, Available: true}
			switch {
			case occupied[pod.ID]:
				entry.Available = false
				entry.Reason = "Not available for the selected dates"
			case input.Adults > pod.MaxAdults:
				entry.Available = false
				entry.Reason = "Too many adults for this pod"
			case input.Children > pod.MaxChildren:
				entry.Available = false
				entry.Reason = "Too many children for this pod"
			case input.Toddlers > pod.MaxToddlers:
				entry.Available = false
				entry.Reason = "Too many toddlers for this pod"
			case input.Infants > pod.MaxInfants:
				entry.Available = false
				entry.Reason = "Too many infants for this pod"
			}
			results = append(results, entry)
		}

		if err := services.SetCachedAvailability(c.Request.Context(), input.CheckIn, input.CheckOut,
			input.Adults, input.Children, input.Toddlers, input.Infants, results); err != nil {
			log.Printf("Availability cache write failed: %v", err)
		}

		c.JSON(200, gin.H{"results": results, "cached": false})
	}
}

// GetPodCalendar returns the occupied dates for one pod over a month range
func GetPodCalendar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		podId := c.Param("id")

		var pod models.Pod
		if err := db.First(&pod, podId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Pod not found"})
			return
		}

		from := time.Now().Truncate(24 * time.Hour)
		to := from.AddDate(0, 3, 0)
		if v := c.Query("from"); v != "" {
			if parsed, err := time.Parse(dateLayout, v); err == nil {
				from = parsed
			}
		}
		if v := c.Query("to"); v != "" {
			if parsed, err := time.Parse(dateLayout, v); err == nil {
				to = parsed
			}
		}

		var entries []models.CalendarAvailability
		if err := db.Where("pod_id = ? AND date >= ? AND date < ?", pod.ID, from, to).
			Order("date").Find(&entries).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch calendar"})
			return
		}

		c.JSON(200, gin.H{
			"podId":   pod.ID,
			"from":    from.Format(dateLayout),
			"to":      to.Format(dateLayout),
			"entries": entries,
		})
	}
}
