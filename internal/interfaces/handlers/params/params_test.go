package params

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, err := ID(c, "id")
		if err != nil {
			return c.Status(400).SendString(err.Error())
		}
		eventID, err := OptionalUint(c, "event_id")
		if err != nil {
			return c.Status(400).SendString(err.Error())
		}
		return c.JSON(fiber.Map{"id": id, "event_id": eventID, "force": Bool(c, "force")})
	})

	for path, code := range map[string]int{
		"/7":                    200,
		"/7?event_id=3&force=1": 200,
		"/0":                    400,
		"/abc":                  400,
		"/-1":                   400,
		"/7?event_id=x":         400,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, code, resp.StatusCode, path)
	}
}
