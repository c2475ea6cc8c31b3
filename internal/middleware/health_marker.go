package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"guestpass-backend/internal/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthMarker records request stats in Redis (skip /, /health*, favicon). Failed
// requests (5xx) are also pushed onto the capped error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		ctx := context.Background()
		_ = rdb.Set(ctx, health.KeyLastReq, b, 0).Err()
		_ = rdb.Incr(ctx, health.KeyReqTotal).Err()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_ = rdb.Incr(ctx, health.KeyResCount).Err()
		_ = rdb.IncrByFloat(ctx, health.KeyResTime, float64(ms)).Err()
		if status := statusOf(c, err); status >= 500 {
			_ = rdb.Incr(ctx, health.KeyReqErrors).Err()
			msg := "Internal Server Error"
			if err != nil {
				msg = err.Error()
			}
			_ = health.LogError(ctx, rdb, health.ErrorEntry{
				Time:    start,
				Path:    c.OriginalURL(),
				Method:  c.Method(),
				Status:  status,
				Message: msg,
			})
		}
		return err
	}
}
