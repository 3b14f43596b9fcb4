package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vibez/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errNoQuotaStore = errors.New("write quota store is not configured")

// WriteQuota caps how many posts, comments and likes one caller may write per
// window. Counters live in Redis as fixed windows keyed by action and caller.
type WriteQuota struct {
	rdb     *redis.Client
	enabled bool
	// FailClosed rejects writes with 503 while Redis is unreachable instead
	// of letting them through.
	FailClosed bool
}

// NewWriteQuota returns a quota backed by rdb. A disabled quota admits
// everything, which is what non-production environments use.
func NewWriteQuota(rdb *redis.Client, enabled bool) *WriteQuota {
	return &WriteQuota{rdb: rdb, enabled: enabled}
}

func quotaKey(action, caller string) string {
	return fmt.Sprintf("quota:%s:%s", action, caller)
}

// Allow counts one write of action by caller and reports whether it fits in limit.
func (q *WriteQuota) Allow(ctx context.Context, action, caller string, limit int, window time.Duration) (bool, error) {
	if !q.enabled {
		return true, nil
	}
	if q.rdb == nil {
		return false, errNoQuotaStore
	}

	key := quotaKey(action, caller)
	used, err := q.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if used == 1 {
		if err := q.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return used <= int64(limit), nil
}

// Limit guards a write route. Authenticated callers are counted by user ID,
// anonymous ones by IP.
func (q *WriteQuota) Limit(action string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			caller = fmt.Sprintf("user:%d", uid)
		}

		ok, err := q.Allow(c.UserContext(), action, caller, limit, window)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "write quota unavailable",
				slog.String("action", action),
				slog.Bool("fail_closed", q.FailClosed),
				slog.String("error", err.Error()))
			if q.FailClosed {
				return quotaError(c, models.CodeUnavailable, "Write quota unavailable, try again later")
			}
			return c.Next()
		}
		if !ok {
			return quotaError(c, models.CodeRateLimited, fmt.Sprintf("Too many %s requests, try again later", action))
		}
		return c.Next()
	}
}

func quotaError(c *fiber.Ctx, code, msg string) error {
	return models.RespondWithError(c, models.StatusCode(code), &models.AppError{Code: code, Message: msg})
}
