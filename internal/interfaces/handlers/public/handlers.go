// Package public serves the guest-facing endpoints reached from invitation links.
// None of them require a staff session; invite tokens carry the authorization.
package public

import (
	"html/template"
	"strings"

	guestsvc "guestpass-backend/internal/application/guests"
	invsvc "guestpass-backend/internal/application/invitations"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
	"guestpass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Invitations *invsvc.Service
	Guests      *guestsvc.Service
}

var noticePage = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html lang="vi"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>body{font-family:system-ui,sans-serif;background:#f8f9fa;color:#0B2A4A;display:flex;min-height:100vh;align-items:center;justify-content:center;margin:0}
.card{background:#fff;border-radius:16px;padding:40px;max-width:480px;text-align:center;box-shadow:0 20px 60px -20px rgba(11,42,74,.2)}</style>
</head><body><div class="card"><h1>{{.Title}}</h1><p>{{.Message}}</p></div></body></html>
`))

func notice(c *fiber.Ctx, code int, title, message string) error {
	var b strings.Builder
	if err := noticePage.Execute(&b, map[string]string{"Title": title, "Message": message}); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(code).SendString(b.String())
}

func errorNotice(c *fiber.Ctx, err error) error {
	switch code := apperr.Status(err); code {
	case fiber.StatusUnauthorized:
		return notice(c, code, "Link expired", "This invitation link is invalid or has expired.")
	case fiber.StatusNotFound:
		return notice(c, code, "Not found", "This invitation is no longer available.")
	case fiber.StatusBadRequest:
		return notice(c, code, "Invalid request", err.Error())
	default:
		return response.FromError(c, err)
	}
}

// GET /invite/:token?template= renders the guest's invitation.
func (h *Handlers) Invitation(c *fiber.Ctx) error {
	html, _, err := h.Invitations.RenderByToken(c.Context(), c.Params("token"), c.Query("template"))
	if err != nil {
		return errorNotice(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.SendString(html)
}

// GET /invite/:token/data returns the invitation data behind a token.
func (h *Handlers) InvitationData(c *fiber.Ctx) error {
	_, data, err := h.Invitations.RenderByToken(c.Context(), c.Params("token"), "")
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation fetched successfully", data, nil)
}

type rsvpBody struct {
	Status string  `json:"rsvp_status"`
	Notes  *string `json:"rsvp_notes"`
}

type rsvpResult struct {
	GuestID    uint              `json:"guest_id"`
	RSVPStatus domain.RSVPStatus `json:"rsvp_status"`
}

// POST /invite/:token/rsvp records the guest's answer.
func (h *Handlers) RSVP(c *fiber.Ctx) error {
	g, err := h.Invitations.OpenByToken(c.Context(), c.Params("token"))
	if err != nil {
		return response.FromError(c, err)
	}
	var body rsvpBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	status := domain.RSVPStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	if status == domain.RSVPPending {
		return response.Error(c, "rsvp_status must be accepted or declined", fiber.StatusBadRequest, nil)
	}
	g, err = h.Guests.UpdateRSVP(c.Context(), g.ID, status, body.Notes)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Thank you for your response", rsvpResult{GuestID: g.ID, RSVPStatus: g.RSVPStatus}, nil)
}

var rsvpActions = map[string]domain.RSVPStatus{
	"accept":  domain.RSVPAccepted,
	"decline": domain.RSVPDeclined,
}

// GET /rsvp/:action?id=INV000123 is the accept/decline link printed on invitations.
func (h *Handlers) RSVPLink(c *fiber.Ctx) error {
	status, ok := rsvpActions[c.Params("action")]
	if !ok {
		return notice(c, fiber.StatusNotFound, "Not found", "Unknown RSVP action.")
	}
	guestID, err := invsvc.ParseInvitationID(c.Query("id"))
	if err != nil {
		return errorNotice(c, err)
	}
	g, err := h.Guests.UpdateRSVP(c.Context(), guestID, status, nil)
	if err != nil {
		return errorNotice(c, err)
	}
	if status == domain.RSVPAccepted {
		return notice(c, fiber.StatusOK, "Xác nhận tham dự", "Cảm ơn "+g.Name+", chúng tôi rất hân hạnh được đón tiếp quý khách.")
	}
	return notice(c, fiber.StatusOK, "Đã ghi nhận", "Cảm ơn "+g.Name+" đã phản hồi. Rất tiếc vì quý khách không thể tham dự.")
}
