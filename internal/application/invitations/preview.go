package invitations

import (
	"time"

	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
)

// Customization overrides branding colors in previews.
type Customization struct {
	PrimaryColor string `json:"primaryColor"`
	AccentColor  string `json:"accentColor"`
}

func (c Customization) apply(b *Branding) error {
	if c.PrimaryColor != "" {
		if !hexColor.MatchString(c.PrimaryColor) {
			return apperr.Validation("primaryColor must be a hex color")
		}
		b.PrimaryColor = c.PrimaryColor
	}
	if c.AccentColor != "" {
		if !hexColor.MatchString(c.AccentColor) {
			return apperr.Validation("accentColor must be a hex color")
		}
		b.AccentColor = c.AccentColor
	}
	return nil
}

func strPtr(s string) *string { return &s }

// SampleGuest is the placeholder guest shown in previews.
func SampleGuest() *domain.Guest {
	return &domain.Guest{
		ID:           1,
		Title:        "Mr",
		Name:         "Nguyễn Văn A",
		Role:         "CEO",
		Organization: "Công ty ABC",
		Tag:          "ABC",
		Email:        strPtr("nguyenvana@abc.com"),
		Phone:        strPtr("0123456789"),
	}
}

// SampleEvent is the placeholder event shown when a preview names none.
func SampleEvent() *domain.Event {
	return &domain.Event{
		ID:          1,
		Name:        "EXP Technology – 15 Years of Excellence",
		Description: "Lễ kỷ niệm 15 năm thành lập EXP Technology",
		EventDate:   time.Date(2025, 10, 10, 18, 0, 0, 0, time.UTC),
		Location:    "Trung tâm Hội nghị tỉnh Thái Nguyên",
		Address:     "Số 1 Đường XYZ, TP. Thái Nguyên",
		Agenda:      "18:00 - Đón khách & Check-in\n18:30 - Khai mạc\n19:00 - Vinh danh & Tri ân\n20:00 - Gala & Networking",
		MaxGuests:   domain.DefaultMaxGuests,
		IsActive:    true,
	}
}

// Preview renders the sample guest against event (or the sample event when nil)
// with optional branding overrides. Nothing is written.
func (g *Generator) Preview(event *domain.Event, tmpl string, c Customization) (string, *Data, error) {
	if _, err := ResolveTemplate(tmpl); err != nil {
		return "", nil, err
	}
	if event == nil {
		event = SampleEvent()
	}
	d, err := g.BuildData(SampleGuest(), event)
	if err != nil {
		return "", nil, err
	}
	if err := c.apply(&d.Branding); err != nil {
		return "", nil, err
	}
	html, err := RenderData(d, tmpl)
	if err != nil {
		return "", nil, err
	}
	return html, d, nil
}
