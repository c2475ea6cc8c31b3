package invitations

import (
	"fmt"
	"time"

	invsvc "guestpass-backend/internal/application/invitations"
	"guestpass-backend/internal/interfaces/handlers/params"
	"guestpass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *invsvc.Service
}

func templateName(c *fiber.Ctx) string {
	return c.Query("template", invsvc.DefaultTemplate)
}

// GET /api/v1/invitations/templates
func (h *Handlers) Templates(c *fiber.Ctx) error {
	return response.Success(c, "Templates fetched successfully", fiber.Map{
		"templates": invsvc.Templates(),
		"default":   invsvc.DefaultTemplate,
	}, nil)
}

// POST /api/v1/invitations/generate/:guest_id?template=
// An existing document is reported with already_exists instead of being rewritten.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	id, err := params.ID(c, "guest_id")
	if err != nil {
		return response.FromError(c, err)
	}
	out, err := h.Service.Generate(c.Context(), id, templateName(c))
	if err != nil {
		return response.FromError(c, err)
	}
	if out.AlreadyExists {
		return response.Success(c, "Invitation already exists", out, nil)
	}
	return response.SuccessCreated(c, "Invitation generated successfully", out, nil)
}

// POST /api/v1/invitations/generate-all/:event_id?template=&force=
func (h *Handlers) GenerateAll(c *fiber.Ctx) error {
	id, err := params.ID(c, "event_id")
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.GenerateAll(c.Context(), id, templateName(c), params.Bool(c, "force"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, bulkMessage(res), res, nil)
}

type bulkBody struct {
	GuestIDs []uint `json:"guest_ids"`
	Template string `json:"template"`
	Force    bool   `json:"force"`
}

// POST /api/v1/invitations/generate-bulk
func (h *Handlers) GenerateBulk(c *fiber.Ctx) error {
	var body bulkBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if body.Template == "" {
		body.Template = invsvc.DefaultTemplate
	}
	res, err := h.Service.GenerateBulk(c.Context(), body.GuestIDs, body.Template, body.Force)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, bulkMessage(res), res, nil)
}

func bulkMessage(res *invsvc.BulkResult) string {
	return fmt.Sprintf("Generated %d, existing %d, failed %d", res.Generated, res.Existing, res.Failed)
}

type previewBody struct {
	EventID  uint   `json:"event_id"`
	Template string `json:"template"`
	invsvc.Customization
}

// POST /api/v1/invitations/preview renders sample guest data without writing a file.
func (h *Handlers) Preview(c *fiber.Ctx) error {
	var body previewBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
	}
	html, data, err := h.Service.Preview(c.Context(), body.EventID, body.Template, body.Customization)
	if err != nil {
		return response.FromError(c, err)
	}
	if c.Query("format") == "html" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}
	return response.Success(c, "Preview rendered successfully", fiber.Map{
		"html_content":    html,
		"invitation_data": data,
	}, nil)
}

// GET /api/v1/invitations
func (h *Handlers) List(c *fiber.Ctx) error {
	files, err := h.Service.Generator.List()
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitations fetched successfully", files, fiber.Map{"count": len(files)})
}

// DELETE /api/v1/invitations/:filename
func (h *Handlers) Delete(c *fiber.Ctx) error {
	name := c.Params("filename")
	if err := h.Service.Generator.Delete(name); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation deleted successfully", fiber.Map{"filename": name}, nil)
}

// POST /api/v1/invitations/send-email/:guest_id?template=
func (h *Handlers) SendEmail(c *fiber.Ctx) error {
	id, err := params.ID(c, "guest_id")
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.SendEmail(c.Context(), id, templateName(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation queued for "+res.Email, res, nil)
}

type linkBody struct {
	TTL string `json:"ttl"`
}

// POST /api/v1/invitations/link/:guest_id issues a signed public link. ttl is a Go
// duration string; empty uses the configured default.
func (h *Handlers) Link(c *fiber.Ctx) error {
	id, err := params.ID(c, "guest_id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body linkBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
	}
	var ttl time.Duration
	if body.TTL != "" {
		ttl, err = time.ParseDuration(body.TTL)
		if err != nil || ttl <= 0 {
			return response.Error(c, "ttl must be a positive duration such as 72h", fiber.StatusBadRequest, nil)
		}
	}
	link, err := h.Service.InviteLink(c.Context(), id, ttl)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Invite link created successfully", link, nil)
}

type revokeBody struct {
	Token string `json:"token"`
}

// POST /api/v1/invitations/revoke
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	var body revokeBody
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "token is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.RevokeToken(c.Context(), body.Token); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invite link revoked", fiber.Map{"revoked": true}, nil)
}
