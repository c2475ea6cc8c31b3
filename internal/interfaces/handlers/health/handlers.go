package health

import (
	"time"

	"guestpass-backend/internal/health"
	"guestpass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const serviceName = "guestpass-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Checker        *health.Checker
	HealthAdminKey string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Checker.Rdb == nil {
		return response.Error(c, "Request stats are disabled", fiber.StatusServiceUnavailable, nil)
	}
	if err := health.Reset(c.Context(), h.Checker.Rdb, time.Now()); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns the health snapshot with the service name.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.Checker.Collect(c.Context())
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the last error log entries, newest first.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Checker.Rdb == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := health.RecentErrors(c.Context(), h.Checker.Rdb)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// Dashboard returns the HTML status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	html, err := health.RenderDashboardHTML(h.Checker.Collect(c.Context()))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}
