package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrNoRedis is returned when rate limiting is attempted without a Redis client.
var ErrNoRedis = errors.New("redis client is nil")

// Limit describes one fixed-window rule.
type Limit struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	Policy  FailPolicy
}

// Named limits applied to the public API.
var (
	AuthLimit = Limit{
		Name:    "auth",
		Max:     10,
		Window:  15 * time.Minute,
		Message: "Too many authentication attempts, please try again later",
	}
	WriteLimit = Limit{
		Name:    "write",
		Max:     60,
		Window:  time.Minute,
		Message: "Too many requests, please slow down",
	}
	AILimit = Limit{
		Name:    "ai",
		Max:     10,
		Window:  time.Minute,
		Message: "Too many AI requests, please try again later",
	}
)

func rateLimitBypassed() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	switch env {
	case "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit increments the window counter for resource/id and reports whether
// the request fits within limit. It also returns the remaining allowance.
// Rate limiting is disabled when APP_ENV is "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, int, error) {
	if rateLimitBypassed() {
		return true, limit, nil
	}
	if rdb == nil {
		return false, 0, ErrNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}

	remaining := limit - int(cnt)
	if remaining < 0 {
		remaining = 0
	}
	return cnt <= int64(limit), remaining, nil
}

// RateLimit returns a Fiber middleware enforcing l. It keys by authenticated
// userID when present, otherwise by remote IP.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := l.Name
		if resource == "" {
			resource = c.Path()
		}

		allowed, remaining, err := CheckRateLimit(c.UserContext(), rdb, resource, id, l.Max, l.Window)
		if err != nil {
			if l.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err.Error())
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.Envelope{
					Success: false,
					Message: "Rate limit unavailable",
					Code:    models.CodeInternal,
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			msg := l.Message
			if msg == "" {
				msg = "Rate limit exceeded"
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(l.Window.Seconds())))
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitError(msg))
		}
		return c.Next()
	}
}
