package guests

import (
	"context"
	"strings"

	"guestpass-backend/internal/application/credentials"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
)

// CheckInInput is a check-in request. QRData, when present, must be a credential
// issued for the same guest and event.
type CheckInInput struct {
	QRData   string `json:"qr_data"`
	Location string `json:"check_in_location"`
}

// CheckIn marks a guest as arrived. A second check-in is rejected.
func (s *Service) CheckIn(ctx context.Context, id uint, in CheckInInput) (*domain.Guest, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.QRData) != "" {
		p, err := credentials.Validate(in.QRData)
		if err != nil {
			return nil, err
		}
		if p.GuestID != g.ID || p.EventID != g.EventID {
			return nil, credentials.ErrInvalidCredential
		}
	}
	return s.markCheckedIn(ctx, g, in.Location)
}

// CheckInByScan resolves the guest from a scanned credential and checks them in.
func (s *Service) CheckInByScan(ctx context.Context, qrData, location string) (*domain.Guest, error) {
	p, err := credentials.Validate(qrData)
	if err != nil {
		return nil, err
	}
	g, err := s.Get(ctx, p.GuestID)
	if err != nil {
		return nil, err
	}
	if g.EventID != p.EventID {
		return nil, credentials.ErrInvalidCredential
	}
	return s.markCheckedIn(ctx, g, location)
}

func (s *Service) markCheckedIn(ctx context.Context, g *domain.Guest, location string) (*domain.Guest, error) {
	if g.CheckedIn {
		return nil, apperr.Validation("guest %d is already checked in", g.ID)
	}
	g.MarkCheckedIn(s.now(), strings.TrimSpace(location))
	if err := s.saveCheckIn(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ToggleCheckIn flips the check-in flag. Turning it on without a location records
// the manual sentinel; turning it off clears time and location.
func (s *Service) ToggleCheckIn(ctx context.Context, id uint, location string) (*domain.Guest, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.CheckedIn {
		g.ClearCheckIn()
	} else {
		g.MarkCheckedIn(s.now(), strings.TrimSpace(location))
	}
	if err := s.saveCheckIn(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) saveCheckIn(ctx context.Context, g *domain.Guest) error {
	return s.DB.WithContext(ctx).Model(g).Updates(map[string]interface{}{
		"checked_in":        g.CheckedIn,
		"check_in_time":     g.CheckInAt,
		"check_in_location": g.CheckInLocation,
	}).Error
}
