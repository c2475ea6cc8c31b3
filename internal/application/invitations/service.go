package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"guestpass-backend/internal/application/emails"
	"guestpass-backend/internal/application/invitetoken"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
)

// Service ties the generator, invite tokens and the mailer to stored guests.
type Service struct {
	DB        *gorm.DB
	Generator *Generator
	Tokens    *invitetoken.Service
	Mailer    emails.Sender
	MailFrom  string
}

func (s *Service) loadGuest(ctx context.Context, guestID uint) (*domain.Guest, error) {
	var g domain.Guest
	err := s.DB.WithContext(ctx).Preload("Event").First(&g, guestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("guest %d not found", guestID)
	}
	if err != nil {
		return nil, err
	}
	if g.Event == nil {
		return nil, apperr.NotFound("event %d not found", g.EventID)
	}
	return &g, nil
}

// Generate materializes one guest's invitation.
func (s *Service) Generate(ctx context.Context, guestID uint, tmpl string) (*Outcome, error) {
	g, err := s.loadGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return s.Generator.Materialize(g, g.Event, tmpl)
}

// GenerateAll materializes invitations for every guest of an event.
func (s *Service) GenerateAll(ctx context.Context, eventID uint, tmpl string, force bool) (*BulkResult, error) {
	if _, err := ResolveTemplate(tmpl); err != nil {
		return nil, err
	}
	var event domain.Event
	err := s.DB.WithContext(ctx).First(&event, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("event %d not found", eventID)
	}
	if err != nil {
		return nil, err
	}
	var guests []domain.Guest
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).Order("id").Find(&guests).Error; err != nil {
		return nil, err
	}
	if len(guests) == 0 {
		return nil, apperr.NotFound("event %d has no guests", eventID)
	}
	for i := range guests {
		guests[i].Event = &event
	}
	return s.Generator.Bulk(guests, tmpl, force)
}

// GenerateBulk materializes invitations for an explicit guest set. Unknown ids are
// reported as failed items.
func (s *Service) GenerateBulk(ctx context.Context, guestIDs []uint, tmpl string, force bool) (*BulkResult, error) {
	if len(guestIDs) == 0 {
		return nil, apperr.Validation("guest_ids is required")
	}
	if _, err := ResolveTemplate(tmpl); err != nil {
		return nil, err
	}
	var found []domain.Guest
	if err := s.DB.WithContext(ctx).Preload("Event").Where("id IN ?", guestIDs).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.Guest, len(found))
	for _, g := range found {
		byID[g.ID] = g
	}

	res := &BulkResult{Items: make([]BulkItem, 0, len(guestIDs))}
	seen := make(map[uint]bool, len(guestIDs))
	for _, id := range guestIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		g, ok := byID[id]
		if !ok {
			res.Failed++
			res.Items = append(res.Items, BulkItem{
				GuestID: id, InvitationID: InvitationID(id), Status: StatusFailed,
				Error: fmt.Sprintf("guest %d not found", id),
			})
			continue
		}
		one, err := s.Generator.Bulk([]domain.Guest{g}, tmpl, force)
		if err != nil {
			return nil, err
		}
		res.Generated += one.Generated
		res.Existing += one.Existing
		res.Failed += one.Failed
		res.Items = append(res.Items, one.Items...)
	}
	return res, nil
}

// Preview renders the sample guest against a stored event, or the sample event
// when eventID is zero.
func (s *Service) Preview(ctx context.Context, eventID uint, tmpl string, c Customization) (string, *Data, error) {
	var event *domain.Event
	if eventID != 0 {
		var e domain.Event
		err := s.DB.WithContext(ctx).First(&e, eventID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.NotFound("event %d not found", eventID)
		}
		if err != nil {
			return "", nil, err
		}
		event = &e
	}
	return s.Generator.Preview(event, tmpl, c)
}

// SendResult reports a send-email call.
type SendResult struct {
	Outcome *Outcome `json:"invitation"`
	Email   string   `json:"email"`
}

// SendEmail makes sure the invitation exists and hands it to the mailer.
func (s *Service) SendEmail(ctx context.Context, guestID uint, tmpl string) (*SendResult, error) {
	g, err := s.loadGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if g.Email == nil || *g.Email == "" {
		return nil, apperr.Validation("guest %d has no email address", guestID)
	}
	out, err := s.Generator.Materialize(g, g.Event, tmpl)
	if err != nil {
		return nil, err
	}
	html, d := out.HTML, out.Data
	if out.AlreadyExists {
		// the stored file may predate the requested template
		html, d, err = s.Generator.Render(g, g.Event, tmpl)
		if err != nil {
			return nil, err
		}
	}
	if s.Mailer != nil {
		err = s.Mailer.SendInvitation(ctx, emails.Message{
			From:       s.MailFrom,
			To:         *g.Email,
			Subject:    d.Delivery.EmailSubject,
			HTML:       html,
			Attachment: out.FileName,
		})
		if err != nil {
			return nil, err
		}
	}
	return &SendResult{Outcome: out, Email: *g.Email}, nil
}

// Link is a shareable invite URL for one guest.
type Link struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InviteLink issues a signed token for the guest. ttl <= 0 uses the token service default.
func (s *Service) InviteLink(ctx context.Context, guestID uint, ttl time.Duration) (*Link, error) {
	g, err := s.loadGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	tok, claims, err := s.Tokens.IssueClaims(g.ID, g.EventID, ttl)
	if err != nil {
		return nil, err
	}
	return &Link{
		Token:     tok,
		URL:       s.Generator.Options.BaseURL + "/invite/" + tok,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// OpenByToken resolves a public invite token to its guest. Token failures are
// reported only as invitetoken.ErrInvalidOrExpired.
func (s *Service) OpenByToken(ctx context.Context, token string) (*domain.Guest, error) {
	claims, err := s.Tokens.Verify(ctx, token)
	if err != nil {
		return nil, invitetoken.ErrInvalidOrExpired
	}
	g, err := s.loadGuest(ctx, claims.GuestID)
	if err != nil {
		return nil, err
	}
	if g.EventID != claims.EventID {
		return nil, invitetoken.ErrInvalidOrExpired
	}
	return g, nil
}

// RenderByToken renders the invitation behind a public token without writing it.
func (s *Service) RenderByToken(ctx context.Context, token, tmpl string) (string, *Data, error) {
	g, err := s.OpenByToken(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return s.Generator.Render(g, g.Event, tmpl)
}

// RevokeToken denylists a previously issued invite token.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	if err := s.Tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, invitetoken.ErrInvalidOrExpired) {
			return err
		}
		return apperr.Validation("%s", err.Error())
	}
	return nil
}
