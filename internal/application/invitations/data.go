package invitations

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"guestpass-backend/internal/application/credentials"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
	"guestpass-backend/internal/pkg/validation"
)

const (
	DefaultSubtitle = "Lễ kỷ niệm 15 năm thành lập"
	DefaultHostOrg  = "EXP Technology Company Limited"
	DefaultTimezone = "Asia/Ho_Chi_Minh"

	// DefaultRSVPDeadline stands in when an event carries no date at all.
	DefaultRSVPDeadline = "2025-09-30"

	defaultLogoURL      = "/static/logo.png"
	defaultPrimaryColor = "#0B2A4A"
	defaultAccentColor  = "#1E88E5"
	defaultNotes        = "Thiệp mời tự động"

	dateTimeLayout = "2006-01-02T15:04:05"
	deadlineLayout = "2006-01-02"
)

// ErrInvalidEventDate is returned when an event date string cannot be parsed.
var ErrInvalidEventDate = apperr.Validation("invalid event date")

type GuestBlock struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Tag          string `json:"tag"`
}

type Venue struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	MapURL  string `json:"map_url"`
}

type ProgramItem struct {
	Time string `json:"time"`
	Item string `json:"item"`
}

type EventBlock struct {
	Title          string        `json:"title"`
	Subtitle       string        `json:"subtitle"`
	HostOrg        string        `json:"host_org"`
	DateTime       string        `json:"datetime"`
	Timezone       string        `json:"timezone"`
	Venue          Venue         `json:"venue"`
	ProgramOutline []ProgramItem `json:"program_outline"`
}

type RSVPBlock struct {
	AcceptURL  string `json:"accept_url"`
	DeclineURL string `json:"decline_url"`
	Deadline   string `json:"deadline"`
}

type QRBlock struct {
	QRURL string `json:"qr_url"`
	Value string `json:"value"`
}

type DeliveryBlock struct {
	Mode         string `json:"mode"`
	EmailSubject string `json:"email_subject"`
	EmailTo      string `json:"email_to"`
	FileName     string `json:"file_name"`
}

type Branding struct {
	LogoURL      string `json:"logo_url"`
	PrimaryColor string `json:"primary_color"`
	AccentColor  string `json:"accent_color"`
}

type Meta struct {
	InvitationID string `json:"invitation_id"`
	CreatedAt    string `json:"created_at"`
	Notes        string `json:"notes"`
}

// Data is the canonical invitation document every template renders.
type Data struct {
	Guest    GuestBlock    `json:"guest"`
	Event    EventBlock    `json:"event"`
	RSVP     RSVPBlock     `json:"rsvp"`
	QR       QRBlock       `json:"qr"`
	Delivery DeliveryBlock `json:"delivery"`
	Branding Branding      `json:"branding"`
	Meta     Meta          `json:"meta"`
}

// InvitationID is INV followed by the zero-padded guest id.
func InvitationID(guestID uint) string {
	return fmt.Sprintf("INV%06d", guestID)
}

// ParseInvitationID is the inverse of InvitationID.
func ParseInvitationID(id string) (uint, error) {
	rest, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(id)), "INV")
	if !ok || len(rest) < 6 {
		return 0, apperr.Validation("invalid invitation id %q", id)
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || n == 0 {
		return 0, apperr.Validation("invalid invitation id %q", id)
	}
	return uint(n), nil
}

// FileName is the on-disk name of a guest's invitation.
func FileName(guestID uint) string {
	return "invite_" + InvitationID(guestID) + ".html"
}

var defaultProgram = []ProgramItem{
	{Time: "18:00", Item: "Đón khách & Check-in"},
	{Time: "18:30", Item: "Khai mạc"},
	{Time: "19:00", Item: "Vinh danh & Tri ân"},
	{Time: "20:00", Item: "Gala & Networking"},
}

// DefaultProgram returns a copy of the four-item fallback agenda.
func DefaultProgram() []ProgramItem {
	return append([]ProgramItem(nil), defaultProgram...)
}

// ParseAgenda reads "HH:MM - item" lines. It is lossy: a line whose left side is not
// a short time label is dropped rather than reported. With no usable lines the
// default program is returned.
func ParseAgenda(text string) []ProgramItem {
	var out []ProgramItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		left, right, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if !strings.Contains(left, ":") || len([]rune(left)) > 5 {
			continue
		}
		out = append(out, ProgramItem{Time: left, Item: right})
	}
	if len(out) == 0 {
		return DefaultProgram()
	}
	return out
}

// RSVPDeadline parses an event date and returns the day seven days earlier.
func RSVPDeadline(eventDate string) (string, error) {
	t, ok := validation.ParseEventDate(eventDate)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventDate, eventDate)
	}
	return deadlineFor(t), nil
}

// deadlineFor is 23:59:59 on the day one week before the event, as a date.
func deadlineFor(t time.Time) string {
	d := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location()).AddDate(0, 0, -7)
	return d.Format(deadlineLayout)
}

func rsvpURL(baseURL, action, invitationID string) string {
	return fmt.Sprintf("%s/rsvp/%s?id=%s", strings.TrimRight(baseURL, "/"), action, url.QueryEscape(invitationID))
}

func mapURL(location string) string {
	return "https://maps.google.com/?q=" + url.QueryEscape(location)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BuildData assembles the invitation document for a guest. The QR block is a
// freshly encoded invitation QR; created_at comes from the generator clock.
func (g *Generator) BuildData(guest *domain.Guest, event *domain.Event) (*Data, error) {
	if guest == nil || event == nil {
		return nil, errors.New("guest and event are required")
	}
	invID := InvitationID(guest.ID)

	deadline := DefaultRSVPDeadline
	dateTime := ""
	if !event.EventDate.IsZero() {
		deadline = deadlineFor(event.EventDate)
		dateTime = event.EventDate.Format(dateTimeLayout)
	}

	qr, err := g.qr(credentials.InvitationPayload{
		GuestID:      guest.ID,
		GuestName:    guest.Name,
		EventID:      event.ID,
		EventName:    event.Name,
		InvitationID: invID,
	})
	if err != nil {
		return nil, err
	}

	return &Data{
		Guest: GuestBlock{
			Title:        guest.Title,
			Name:         guest.Name,
			Role:         guest.Role,
			Organization: guest.Organization,
			Tag:          guest.Tag,
		},
		Event: EventBlock{
			Title:    event.Name,
			Subtitle: g.Options.Subtitle,
			HostOrg:  g.Options.HostOrg,
			DateTime: dateTime,
			Timezone: g.Options.Timezone,
			Venue: Venue{
				Name:    event.Location,
				Address: event.Address,
				MapURL:  mapURL(event.Location),
			},
			ProgramOutline: ParseAgenda(event.Agenda),
		},
		RSVP: RSVPBlock{
			AcceptURL:  rsvpURL(g.Options.BaseURL, "accept", invID),
			DeclineURL: rsvpURL(g.Options.BaseURL, "decline", invID),
			Deadline:   deadline,
		},
		QR: QRBlock{QRURL: qr, Value: invID},
		Delivery: DeliveryBlock{
			Mode:         "email",
			EmailSubject: fmt.Sprintf("Thiệp mời Lễ kỷ niệm 15 năm EXP Technology - %s", guest.Name),
			EmailTo:      deref(guest.Email),
			FileName:     FileName(guest.ID),
		},
		Branding: Branding{
			LogoURL:      defaultLogoURL,
			PrimaryColor: defaultPrimaryColor,
			AccentColor:  defaultAccentColor,
		},
		Meta: Meta{
			InvitationID: invID,
			CreatedAt:    g.now().Format(dateTimeLayout),
			Notes:        defaultNotes,
		},
	}, nil
}
