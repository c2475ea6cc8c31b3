package events

import (
	eventsvc "guestpass-backend/internal/application/events"
	"guestpass-backend/internal/interfaces/handlers/params"
	"guestpass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GET /api/v1/events?skip=&limit=&active_only=
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.Context(), eventsvc.ListQuery{
		Skip:       c.QueryInt("skip"),
		Limit:      c.QueryInt("limit", 100),
		ActiveOnly: params.Bool(c, "active_only"),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Events fetched successfully", list, fiber.Map{"count": len(list)})
}

// POST /api/v1/events
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in eventsvc.EventInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	e, err := h.Service.Create(c.Context(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Event created successfully", e, nil)
}

// GET /api/v1/events/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	e, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Event fetched successfully", e, nil)
}

// PUT /api/v1/events/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in eventsvc.EventInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	e, err := h.Service.Update(c.Context(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Event updated successfully", e, nil)
}

// DELETE /api/v1/events/:id removes the event and its guests.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.Context(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Event deleted successfully", fiber.Map{"id": id}, nil)
}

// GET /api/v1/events/:id/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	st, err := h.Service.Stats(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Event stats fetched successfully", st, nil)
}
