package guests

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	guestsvc "guestpass-backend/internal/application/guests"
	"guestpass-backend/internal/application/importer"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/interfaces/handlers/params"
	"guestpass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MaxImportSize bounds an uploaded guest list.
const MaxImportSize = 10 << 20

type Handlers struct {
	Service *guestsvc.Service
}

func invalidBody(c *fiber.Ctx) error {
	return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
}

// GET /api/v1/guests?event_id=&rsvp_status=&organization=&search=&skip=&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	eventID, err := params.OptionalUint(c, "event_id")
	if err != nil {
		return response.FromError(c, err)
	}
	list, err := h.Service.List(c.Context(), guestsvc.ListQuery{
		EventID:      eventID,
		RSVPStatus:   c.Query("rsvp_status"),
		Organization: strings.TrimSpace(c.Query("organization")),
		Search:       strings.TrimSpace(c.Query("search")),
		Skip:         c.QueryInt("skip"),
		Limit:        c.QueryInt("limit", 100),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guests fetched successfully", guestsvc.Views(list), fiber.Map{"count": len(list)})
}

// POST /api/v1/guests creates a guest and issues its QR code.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in guestsvc.GuestInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	g, err := h.Service.Create(c.Context(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Guest created successfully", guestsvc.NewView(*g), nil)
}

// GET /api/v1/guests/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	g, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guest fetched successfully", guestsvc.NewView(*g), nil)
}

// PUT /api/v1/guests/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in guestsvc.GuestInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	g, err := h.Service.Update(c.Context(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guest updated successfully", guestsvc.NewView(*g), nil)
}

// DELETE /api/v1/guests/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.Context(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guest deleted successfully", fiber.Map{"id": id}, nil)
}

type rsvpBody struct {
	Status string  `json:"rsvp_status"`
	Notes  *string `json:"rsvp_notes"`
}

// PUT /api/v1/guests/:id/rsvp
func (h *Handlers) UpdateRSVP(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var body rsvpBody
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}
	g, err := h.Service.UpdateRSVP(c.Context(), id, domain.RSVPStatus(strings.ToLower(strings.TrimSpace(body.Status))), body.Notes)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "RSVP updated successfully", guestsvc.NewView(*g), nil)
}

// POST /api/v1/guests/:id/checkin with optional qr_data that must belong to the guest.
func (h *Handlers) CheckIn(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in guestsvc.CheckInInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	g, err := h.Service.CheckIn(c.Context(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guest checked in successfully", guestsvc.NewView(*g), nil)
}

// POST /api/v1/guests/checkin resolves the guest from a scanned QR payload.
func (h *Handlers) CheckInByScan(c *fiber.Ctx) error {
	var in guestsvc.CheckInInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(in.QRData) == "" {
		return response.Error(c, "qr_data is required", fiber.StatusBadRequest, nil)
	}
	location := in.Location
	if location == "" {
		location = "QR Scanner"
	}
	g, err := h.Service.CheckInByScan(c.Context(), in.QRData, location)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guest checked in successfully", guestsvc.NewView(*g), nil)
}

// POST /api/v1/guests/:id/toggle-checkin
func (h *Handlers) ToggleCheckIn(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in guestsvc.CheckInInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	g, err := h.Service.ToggleCheckIn(c.Context(), id, in.Location)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Guest check-in cleared"
	if g.CheckedIn {
		msg = "Guest checked in successfully"
	}
	return response.Success(c, msg, guestsvc.NewView(*g), nil)
}

// POST /api/v1/guests/:id/qr/regenerate
func (h *Handlers) RegenerateQR(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	g, err := h.Service.RegenerateQR(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "QR code regenerated successfully", guestsvc.NewView(*g), nil)
}

// POST /api/v1/guests/qr/regenerate-all?event_id=
func (h *Handlers) RegenerateAllQR(c *fiber.Ctx) error {
	eventID, err := params.OptionalUint(c, "event_id")
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.RegenerateAllQR(c.Context(), eventID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fmt.Sprintf("Regenerated %d QR codes", res.Regenerated), res, nil)
}

// GET /api/v1/guests/:id/qr
func (h *Handlers) QR(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	info, err := h.Service.QR(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "QR code fetched successfully", info, nil)
}

// GET /api/v1/guests/:id/qr/image streams the guest's current PNG.
func (h *Handlers) QRImage(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	path, err := h.Service.QRImagePath(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.SendFile(path)
}

// POST /api/v1/guests/import (multipart: file, event_id)
func (h *Handlers) Import(c *fiber.Ctx) error {
	raw := c.FormValue("event_id", c.Query("event_id"))
	eventID, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || eventID == 0 {
		return response.Error(c, "event_id is required", fiber.StatusBadRequest, nil)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "file is required", fiber.StatusBadRequest, nil)
	}
	if fh.Size > MaxImportSize {
		return response.Error(c, "file is too large", fiber.StatusRequestEntityTooLarge, nil)
	}
	if _, err := importer.DetectFormat(fh.Filename); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return response.FromError(c, err)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, MaxImportSize))
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.Import(c.Context(), uint(eventID), fh.Filename, content)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fmt.Sprintf("Imported %d guests", res.Imported), res, nil)
}

var exportTypes = map[guestsvc.ExportFormat]string{
	guestsvc.ExportCSV:  "text/csv; charset=utf-8",
	guestsvc.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// GET /api/v1/guests/export?event_id=&format=csv|xlsx
func (h *Handlers) Export(c *fiber.Ctx) error {
	eventID, err := params.OptionalUint(c, "event_id")
	if err != nil {
		return response.FromError(c, err)
	}
	format := guestsvc.ExportFormat(strings.ToLower(c.Query("format", string(guestsvc.ExportCSV))))
	b, name, err := h.Service.ExportBytes(c.Context(), eventID, format)
	if err != nil {
		return response.FromError(c, err)
	}
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, exportTypes[format])
	return c.Send(b)
}

// GET /api/v1/guests/template returns a sample CSV for imports.
func (h *Handlers) Template(c *fiber.Ctx) error {
	c.Attachment("guest_import_template.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(importer.Template())
}

// GET /api/v1/guests/stats?event_id=
func (h *Handlers) Stats(c *fiber.Ctx) error {
	eventID, err := params.OptionalUint(c, "event_id")
	if err != nil {
		return response.FromError(c, err)
	}
	st, err := h.Service.Stats(c.Context(), eventID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Guest stats fetched successfully", st, nil)
}
