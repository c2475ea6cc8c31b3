package events

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
	"guestpass-backend/internal/pkg/validation"
)

// Service encapsulates event operations.
type Service struct {
	DB *gorm.DB
}

// EventInput is the create/update payload. Nil fields are left unchanged on update.
type EventInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	EventDate   *string `json:"event_date"`
	Location    *string `json:"location"`
	Address     *string `json:"address"`
	Agenda      *string `json:"agenda"`
	MaxGuests   *int    `json:"max_guests"`
	IsActive    *bool   `json:"is_active"`
}

// ListQuery filters List.
type ListQuery struct {
	Skip       int
	Limit      int
	ActiveOnly bool
}

const maxLimit = 1000

func (in EventInput) apply(e *domain.Event, creating bool) error {
	if in.Name != nil || creating {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		if name == "" {
			return apperr.Validation("name is required")
		}
		e.Name = name
	}
	if in.EventDate != nil || creating {
		raw := ""
		if in.EventDate != nil {
			raw = *in.EventDate
		}
		t, ok := validation.ParseEventDate(raw)
		if !ok {
			return apperr.Validation("event_date must be an ISO-8601 date or date-time")
		}
		e.EventDate = t
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		e.Location = strings.TrimSpace(*in.Location)
	}
	if in.Address != nil {
		e.Address = strings.TrimSpace(*in.Address)
	}
	if in.Agenda != nil {
		e.Agenda = *in.Agenda
	}
	if in.MaxGuests != nil {
		if *in.MaxGuests <= 0 {
			return apperr.Validation("max_guests must be positive")
		}
		e.MaxGuests = *in.MaxGuests
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	return nil
}

// Create validates and stores a new event.
func (s *Service) Create(ctx context.Context, in EventInput) (*domain.Event, error) {
	e := &domain.Event{IsActive: true}
	if err := in.apply(e, true); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	if !e.IsActive {
		// the column default would otherwise turn an explicit false into true
		if err := s.DB.WithContext(ctx).Model(e).Update("is_active", false).Error; err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id uint) (*domain.Event, error) {
	var e domain.Event
	err := s.DB.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("event %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events ordered by date.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Event, error) {
	if q.Limit <= 0 || q.Limit > maxLimit {
		q.Limit = 100
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	tx := s.DB.WithContext(ctx).Order("event_date, id").Offset(q.Skip).Limit(q.Limit)
	if q.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var out []domain.Event
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id uint, in EventInput) (*domain.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(e, false); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an event and its guests.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("event %d not found", id)
		}
		return tx.Where("event_id = ?", id).Delete(&domain.Guest{}).Error
	})
}

// OrgCount is the number of guests from one organization.
type OrgCount struct {
	Name  string `gorm:"column:name" json:"name"`
	Count int64  `gorm:"column:guest_count" json:"count"`
}

// Stats summarizes attendance for one event.
type Stats struct {
	Event         *domain.Event `json:"event"`
	TotalGuests   int64         `json:"total_guests"`
	CheckedIn     int64         `json:"checked_in"`
	RSVPAccepted  int64         `json:"rsvp_accepted"`
	RSVPDeclined  int64         `json:"rsvp_declined"`
	RSVPPending   int64         `json:"rsvp_pending"`
	CheckInRate   float64       `json:"check_in_rate"`
	Organizations []OrgCount    `json:"organizations"`
}

// Stats counts guests of an event by RSVP and check-in state, plus per-organization totals.
func (s *Service) Stats(ctx context.Context, id uint) (*Stats, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Stats{Event: e, Organizations: []OrgCount{}}
	db := s.DB.WithContext(ctx)
	guests := func() *gorm.DB { return db.Model(&domain.Guest{}).Where("event_id = ?", id) }

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&out.TotalGuests, guests()},
		{&out.CheckedIn, guests().Where("checked_in = ?", true)},
		{&out.RSVPAccepted, guests().Where("rsvp_status = ?", domain.RSVPAccepted)},
		{&out.RSVPDeclined, guests().Where("rsvp_status = ?", domain.RSVPDeclined)},
		{&out.RSVPPending, guests().Where("rsvp_status = ?", domain.RSVPPending)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	out.CheckInRate = Rate(out.CheckedIn, out.TotalGuests)

	err = guests().
		Select("organization AS name, COUNT(id) AS guest_count").
		Where("organization IS NOT NULL AND organization <> ''").
		Group("organization").
		Order("guest_count DESC, organization").
		Scan(&out.Organizations).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Rate is part/total as a percentage rounded to two decimals; zero when total is zero.
func Rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(int64(float64(part)*10000/float64(total)+0.5)) / 100
}
