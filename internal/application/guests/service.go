package guests

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"guestpass-backend/internal/application/credentials"
	"guestpass-backend/internal/application/events"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
	"guestpass-backend/internal/pkg/validation"
)

// Service encapsulates guest operations. Every stored guest carries a current QR credential.
type Service struct {
	DB          *gorm.DB
	Credentials *credentials.Service
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GuestInput is the create/update payload. Nil fields are left unchanged on update.
type GuestInput struct {
	Title        *string `json:"title"`
	Name         *string `json:"name"`
	Role         *string `json:"role"`
	Organization *string `json:"organization"`
	Tag          *string `json:"tag"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	EventID      *uint   `json:"event_id"`
}

// ListQuery filters List. Zero values mean "any".
type ListQuery struct {
	EventID      uint
	RSVPStatus   string
	Organization string
	Search       string
	Skip         int
	Limit        int
}

const maxLimit = 1000

// View is a guest as returned to clients.
type View struct {
	domain.Guest
	QRImageURL *string `json:"qr_image_url"`
}

// NewView adds the public image URL for the guest's current QR.
func NewView(g domain.Guest) View {
	v := View{Guest: g}
	if g.QRImagePath != "" {
		u := "/qr_images/" + filepath.Base(g.QRImagePath)
		v.QRImageURL = &u
	}
	return v
}

// Views maps NewView over a slice.
func Views(gs []domain.Guest) []View {
	out := make([]View, len(gs))
	for i, g := range gs {
		out[i] = NewView(g)
	}
	return out
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (s *Service) eventExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&domain.Event{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("event %d not found", id)
	}
	return nil
}

func (in GuestInput) apply(g *domain.Guest, creating bool) error {
	if in.Name != nil || creating {
		name := trimmed(in.Name)
		if name == "" {
			return apperr.Validation("name is required")
		}
		g.Name = name
	}
	if creating && (in.EventID == nil || *in.EventID == 0) {
		return apperr.Validation("event_id is required")
	}
	if in.EventID != nil {
		g.EventID = *in.EventID
	}
	if in.Title != nil {
		g.Title = trimmed(in.Title)
	}
	if in.Role != nil {
		g.Role = trimmed(in.Role)
	}
	if in.Organization != nil {
		g.Organization = trimmed(in.Organization)
	}
	if in.Tag != nil {
		g.Tag = trimmed(in.Tag)
	}
	if in.Email != nil {
		g.Email = validation.NormalizeEmail(in.Email)
	}
	if in.Phone != nil {
		g.Phone = validation.NormalizeOptional(in.Phone)
	}
	return nil
}

// Create stores a guest and issues its first QR credential.
func (s *Service) Create(ctx context.Context, in GuestInput) (*domain.Guest, error) {
	g := &domain.Guest{}
	if err := in.apply(g, true); err != nil {
		return nil, err
	}
	if err := s.createWithCredential(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) createWithCredential(ctx context.Context, g *domain.Guest) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.eventExists(tx, g.EventID); err != nil {
			return err
		}
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return s.attachCredential(tx, g)
	})
}

func (s *Service) attachCredential(tx *gorm.DB, g *domain.Guest) error {
	cred, err := s.Credentials.Issue(g.ID, g.Name, g.EventID)
	if err != nil {
		return err
	}
	g.QRPayload = datatypes.JSON(cred.Raw)
	g.QRImagePath = cred.ImagePath
	return tx.Model(g).Updates(map[string]interface{}{
		"qr_code":       g.QRPayload,
		"qr_image_path": g.QRImagePath,
	}).Error
}

// Get returns one guest.
func (s *Service) Get(ctx context.Context, id uint) (*domain.Guest, error) {
	var g domain.Guest
	err := s.DB.WithContext(ctx).First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("guest %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Service) filtered(ctx context.Context, q ListQuery) *gorm.DB {
	tx := s.DB.WithContext(ctx).Model(&domain.Guest{})
	if q.EventID != 0 {
		tx = tx.Where("event_id = ?", q.EventID)
	}
	if q.RSVPStatus != "" {
		tx = tx.Where("rsvp_status = ?", q.RSVPStatus)
	}
	if q.Organization != "" {
		tx = tx.Where("organization LIKE ?", "%"+q.Organization+"%")
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	return tx
}

// List returns guests matching q, ordered by id.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Guest, error) {
	if q.RSVPStatus != "" && !domain.RSVPStatus(q.RSVPStatus).Valid() {
		return nil, apperr.Validation("rsvp_status must be pending, accepted or declined")
	}
	if q.Limit <= 0 || q.Limit > maxLimit {
		q.Limit = 100
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	var out []domain.Guest
	if err := s.filtered(ctx, q).Order("id").Offset(q.Skip).Limit(q.Limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id uint, in GuestInput) (*domain.Guest, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(g, false); err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.EventID != nil {
			if err := s.eventExists(tx, g.EventID); err != nil {
				return err
			}
		}
		return tx.Save(g).Error
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes a guest. QR images stay on disk.
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&domain.Guest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("guest %d not found", id)
	}
	return nil
}

// UpdateRSVP records a guest's answer.
func (s *Service) UpdateRSVP(ctx context.Context, id uint, status domain.RSVPStatus, notes *string) (*domain.Guest, error) {
	if !status.Valid() {
		return nil, apperr.Validation("rsvp_status must be pending, accepted or declined")
	}
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	g.RSVPStatus = status
	g.RSVPResponseAt = &now
	updates := map[string]interface{}{
		"rsvp_status":        g.RSVPStatus,
		"rsvp_response_date": g.RSVPResponseAt,
	}
	if notes != nil {
		g.RSVPNotes = strings.TrimSpace(*notes)
		updates["rsvp_notes"] = g.RSVPNotes
	}
	if err := s.DB.WithContext(ctx).Model(g).Updates(updates).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// RegenerateQR issues a fresh credential; the previous image file is kept.
func (s *Service) RegenerateQR(ctx context.Context, id uint) (*domain.Guest, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachCredential(s.DB.WithContext(ctx), g); err != nil {
		return nil, err
	}
	return g, nil
}

// QRInfo is the current credential of a guest.
type QRInfo struct {
	GuestID    uint                 `json:"guest_id"`
	QRData     *credentials.Payload `json:"qr_data"`
	QRImageURL string               `json:"qr_image_url"`
}

// QR returns the guest's current credential payload and image location.
func (s *Service) QR(ctx context.Context, id uint) (*QRInfo, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(g.QRPayload) == 0 {
		return nil, apperr.NotFound("guest %d has no QR code", id)
	}
	p, err := credentials.Decode(string(g.QRPayload))
	if err != nil {
		return nil, err
	}
	info := &QRInfo{GuestID: g.ID, QRData: p}
	if v := NewView(*g); v.QRImageURL != nil {
		info.QRImageURL = *v.QRImageURL
	}
	return info, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// QRImagePath returns a readable image file for the guest, falling back to the
// newest image on disk when the stored path is gone.
func (s *Service) QRImagePath(ctx context.Context, id uint) (string, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if g.QRImagePath != "" && fileExists(g.QRImagePath) {
		return g.QRImagePath, nil
	}
	path, err := s.Credentials.LatestImage(g.ID)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", apperr.NotFound("QR image for guest %d not found", id)
	}
	return path, nil
}

// QRRegenResult counts a bulk QR regeneration.
type QRRegenResult struct {
	Regenerated int    `json:"regenerated"`
	Failed      int    `json:"failed"`
	FailedIDs   []uint `json:"failed_ids"`
}

// RegenerateAllQR reissues credentials for every guest of an event, or all guests
// when eventID is zero. One failure does not stop the rest.
func (s *Service) RegenerateAllQR(ctx context.Context, eventID uint) (*QRRegenResult, error) {
	var ids []uint
	if err := s.filtered(ctx, ListQuery{EventID: eventID}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	res := &QRRegenResult{FailedIDs: []uint{}}
	for _, id := range ids {
		if _, err := s.RegenerateQR(ctx, id); err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, id)
			continue
		}
		res.Regenerated++
	}
	return res, nil
}

// Summary counts guests by RSVP and check-in state.
type Summary struct {
	TotalGuests  int64   `json:"total_guests"`
	CheckedIn    int64   `json:"checked_in"`
	RSVPAccepted int64   `json:"rsvp_accepted"`
	RSVPDeclined int64   `json:"rsvp_declined"`
	RSVPPending  int64   `json:"rsvp_pending"`
	CheckInRate  float64 `json:"check_in_rate"`
}

// Stats summarizes guests of one event, or all guests when eventID is zero.
func (s *Service) Stats(ctx context.Context, eventID uint) (*Summary, error) {
	out := &Summary{}
	q := ListQuery{EventID: eventID}
	counts := []struct {
		dst   *int64
		where func(*gorm.DB) *gorm.DB
	}{
		{&out.TotalGuests, func(tx *gorm.DB) *gorm.DB { return tx }},
		{&out.CheckedIn, func(tx *gorm.DB) *gorm.DB { return tx.Where("checked_in = ?", true) }},
		{&out.RSVPAccepted, func(tx *gorm.DB) *gorm.DB { return tx.Where("rsvp_status = ?", domain.RSVPAccepted) }},
		{&out.RSVPDeclined, func(tx *gorm.DB) *gorm.DB { return tx.Where("rsvp_status = ?", domain.RSVPDeclined) }},
		{&out.RSVPPending, func(tx *gorm.DB) *gorm.DB { return tx.Where("rsvp_status = ?", domain.RSVPPending) }},
	}
	for _, c := range counts {
		if err := c.where(s.filtered(ctx, q)).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	out.CheckInRate = events.Rate(out.CheckedIn, out.TotalGuests)
	return out, nil
}
