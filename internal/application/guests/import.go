package guests

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"guestpass-backend/internal/application/importer"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
)

// ImportedGuest is one guest created by an import.
type ImportedGuest struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// ImportFailure is a normalized record that could not be stored.
type ImportFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult reports an import batch item by item.
type ImportResult struct {
	Imported int                  `json:"imported"`
	Guests   []ImportedGuest      `json:"guests"`
	Rejected []importer.Rejection `json:"rejected"`
	Failed   []ImportFailure      `json:"failed"`
}

// Import parses an uploaded file, normalizes its rows and creates one guest (with
// credential) per accepted record. A format or parse problem fails the whole batch;
// a row or storage problem only fails that item.
func (s *Service) Import(ctx context.Context, eventID uint, filename string, content []byte) (*ImportResult, error) {
	if eventID == 0 {
		return nil, apperr.Validation("event_id is required")
	}
	if err := s.eventExists(s.DB.WithContext(ctx), eventID); err != nil {
		return nil, err
	}
	rows, err := importer.Parse(filename, content)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	norm := importer.NewNormalizer().Normalize(rows)

	res := &ImportResult{
		Guests:   make([]ImportedGuest, 0, len(norm.Records)),
		Rejected: norm.Rejected,
		Failed:   []ImportFailure{},
	}
	for _, rec := range norm.Records {
		g := guestFromRecord(rec, eventID)
		if err := s.createWithCredential(ctx, g); err != nil {
			log.Warn().Err(err).Str("name", rec.Name).Uint("event_id", eventID).Msg("import: guest not stored")
			res.Failed = append(res.Failed, ImportFailure{Name: rec.Name, Reason: err.Error()})
			continue
		}
		res.Imported++
		res.Guests = append(res.Guests, ImportedGuest{ID: g.ID, Name: g.Name, Organization: g.Organization})
	}
	log.Info().
		Uint("event_id", eventID).
		Int("imported", res.Imported).
		Int("rejected", len(res.Rejected)).
		Int("failed", len(res.Failed)).
		Msg("guest import finished")
	return res, nil
}

func guestFromRecord(rec importer.Record, eventID uint) *domain.Guest {
	g := &domain.Guest{EventID: eventID}
	in := GuestInput{
		Title:        &rec.Title,
		Name:         &rec.Name,
		Role:         &rec.Role,
		Organization: &rec.Organization,
		Tag:          &rec.Tag,
		Email:        &rec.Email,
		Phone:        &rec.Phone,
	}
	// name is non-empty after normalization, so apply cannot fail here
	_ = in.apply(g, false)
	return g
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Export writes id/name/organization for guests of an event (all events when zero).
func (s *Service) Export(ctx context.Context, eventID uint, format ExportFormat, w io.Writer) error {
	var gs []domain.Guest
	if err := s.filtered(ctx, ListQuery{EventID: eventID}).Order("id").Find(&gs).Error; err != nil {
		return err
	}
	switch format {
	case ExportCSV:
		return importer.ExportCSV(w, gs)
	case ExportXLSX:
		return importer.ExportXLSX(w, gs)
	default:
		return apperr.Validation("unsupported export format %q", format)
	}
}

// ExportBytes is Export into memory, with the suggested download filename.
func (s *Service) ExportBytes(ctx context.Context, eventID uint, format ExportFormat) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, eventID, format, &buf); err != nil {
		return nil, "", err
	}
	name := "guests." + string(format)
	if eventID != 0 {
		name = fmt.Sprintf("guests_event_%d.%s", eventID, format)
	}
	return buf.Bytes(), name, nil
}
