// Package params reads numeric path and query values for the handlers.
package params

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"guestpass-backend/internal/pkg/apperr"
)

// ID reads a positive integer path parameter.
func ID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return uint(n), nil
}

// OptionalUint reads a non-negative integer query value; absent means zero.
func OptionalUint(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return uint(n), nil
}

// Bool reads a boolean query value; absent or unreadable means false.
func Bool(c *fiber.Ctx, name string) bool {
	b, err := strconv.ParseBool(c.Query(name))
	return err == nil && b
}
