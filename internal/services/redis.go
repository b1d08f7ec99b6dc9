package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// AvailabilityCacheTTL keeps cached availability results short-lived so a
// confirmed booking never serves stale pods for long even if invalidation
// is missed.
const AvailabilityCacheTTL = 2 * time.Minute

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

func availabilityKey(checkIn, checkOut string, adults, children, toddlers, infants int) string {
	return fmt.Sprintf("availability:%s:%s:%d:%d:%d:%d", checkIn, checkOut, adults, children, toddlers, infants)
}

// SetCachedAvailability stores an availability search result in Redis
func SetCachedAvailability(ctx context.Context, checkIn, checkOut string, adults, children, toddlers, infants int, result interface{}) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	key := availabilityKey(checkIn, checkOut, adults, children, toddlers, infants)
	return RedisClient.Set(ctx, key, data, AvailabilityCacheTTL).Err()
}

// GetCachedAvailability retrieves a cached availability search result
func GetCachedAvailability(ctx context.Context, checkIn, checkOut string, adults, children, toddlers, infants int, dest interface{}) (bool, error) {
	if RedisClient == nil {
		return false, nil
	}

	key := availabilityKey(checkIn, checkOut, adults, children, toddlers, infants)
	data, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, err
	}
	return true, nil
}

// InvalidateAvailabilityCache drops all cached availability searches. Called
// whenever calendar rows change (booking created, cancelled or expired).
func InvalidateAvailabilityCache(ctx context.Context) error {
	if RedisClient == nil {
		return nil
	}

	iter := RedisClient.Scan(ctx, 0, "availability:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// PublishBookingUpdate publishes a booking status change to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingReference, bookingStatus, paymentStatus string) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"bookingReference": bookingReference,
		"bookingStatus":    bookingStatus,
		"paymentStatus":    paymentStatus,
		"timestamp":        time.Now().Unix(),
	}

	data, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", data).Err()
}
