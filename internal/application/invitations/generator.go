package invitations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"guestpass-backend/internal/application/credentials"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/pkg/apperr"
)

// Options carries the event-wide text and link base baked into every invitation.
type Options struct {
	BaseURL  string
	Subtitle string
	HostOrg  string
	Timezone string
}

// Generator renders invitation documents and keeps them under Dir.
type Generator struct {
	Dir     string
	Options Options
	Now     func() time.Time
	// QR encodes the invitation QR block; defaults to credentials.IssueInvitationQR.
	QR func(credentials.InvitationPayload) (string, error)
}

// NewGenerator fills empty options with the stock event text.
func NewGenerator(dir string, opts Options) *Generator {
	if opts.Subtitle == "" {
		opts.Subtitle = DefaultSubtitle
	}
	if opts.HostOrg == "" {
		opts.HostOrg = DefaultHostOrg
	}
	if opts.Timezone == "" {
		opts.Timezone = DefaultTimezone
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Generator{Dir: dir, Options: opts}
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Generator) qr(p credentials.InvitationPayload) (string, error) {
	if g.QR != nil {
		return g.QR(p)
	}
	return credentials.IssueInvitationQR(p)
}

// Render builds and renders an invitation without touching disk.
func (g *Generator) Render(guest *domain.Guest, event *domain.Event, tmpl string) (string, *Data, error) {
	if _, err := ResolveTemplate(tmpl); err != nil {
		return "", nil, err
	}
	d, err := g.BuildData(guest, event)
	if err != nil {
		return "", nil, err
	}
	html, err := RenderData(d, tmpl)
	if err != nil {
		return "", nil, err
	}
	return html, d, nil
}

// Outcome describes one materialized invitation. HTML and Data are only set when
// the document was rendered by this call.
type Outcome struct {
	InvitationID  string `json:"invitation_id"`
	FileName      string `json:"filename"`
	Path          string `json:"file_path"`
	AlreadyExists bool   `json:"already_exists"`
	HTML          string `json:"html_content,omitempty"`
	Data          *Data  `json:"invitation_data,omitempty"`
}

// Path returns where a guest's invitation lives.
func (g *Generator) Path(guestID uint) string {
	return filepath.Join(g.Dir, FileName(guestID))
}

// Materialize writes the invitation unless one already exists for the guest.
func (g *Generator) Materialize(guest *domain.Guest, event *domain.Event, tmpl string) (*Outcome, error) {
	return g.generate(guest, event, tmpl, false)
}

// Regenerate always renders and overwrites.
func (g *Generator) Regenerate(guest *domain.Guest, event *domain.Event, tmpl string) (*Outcome, error) {
	return g.generate(guest, event, tmpl, true)
}

func (g *Generator) generate(guest *domain.Guest, event *domain.Event, tmpl string, force bool) (*Outcome, error) {
	if guest == nil {
		return nil, errors.New("guest is required")
	}
	if _, err := ResolveTemplate(tmpl); err != nil {
		return nil, err
	}
	out := &Outcome{
		InvitationID: InvitationID(guest.ID),
		FileName:     FileName(guest.ID),
		Path:         g.Path(guest.ID),
	}
	if !force {
		if _, err := os.Stat(out.Path); err == nil {
			out.AlreadyExists = true
			return out, nil
		}
	}
	html, d, err := g.Render(guest, event, tmpl)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(out.Path, []byte(html)); err != nil {
		return nil, fmt.Errorf("write invitation %s: %w", out.FileName, err)
	}
	out.HTML, out.Data = html, d
	return out, nil
}

// writeFileAtomic renames a temp file into place so readers never see a partial page.
func writeFileAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".invite-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

const (
	StatusGenerated = "generated"
	StatusExisting  = "exists"
	StatusFailed    = "failed"
)

// BulkItem is the result for one guest of a batch.
type BulkItem struct {
	GuestID      uint   `json:"guest_id"`
	GuestName    string `json:"guest_name"`
	InvitationID string `json:"invitation_id"`
	FileName     string `json:"filename,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// BulkResult aggregates a batch. Generated+Existing+Failed == len(Items).
type BulkResult struct {
	Generated int        `json:"generated"`
	Existing  int        `json:"existing"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
}

// Bulk materializes each guest against its preloaded Event. One guest failing does
// not stop the others.
func (g *Generator) Bulk(guests []domain.Guest, tmpl string, force bool) (*BulkResult, error) {
	if _, err := ResolveTemplate(tmpl); err != nil {
		return nil, err
	}
	res := &BulkResult{Items: make([]BulkItem, 0, len(guests))}
	for i := range guests {
		guest := &guests[i]
		item := BulkItem{GuestID: guest.ID, GuestName: guest.Name, InvitationID: InvitationID(guest.ID)}
		out, err := g.bulkOne(guest, tmpl, force)
		switch {
		case err != nil:
			item.Status, item.Error = StatusFailed, err.Error()
			res.Failed++
			log.Warn().Err(err).Uint("guest_id", guest.ID).Msg("invitation generation failed")
		case out.AlreadyExists:
			item.Status, item.FileName = StatusExisting, out.FileName
			res.Existing++
		default:
			item.Status, item.FileName = StatusGenerated, out.FileName
			res.Generated++
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

func (g *Generator) bulkOne(guest *domain.Guest, tmpl string, force bool) (out *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if guest.Event == nil {
		return nil, apperr.NotFound("event %d not found", guest.EventID)
	}
	return g.generate(guest, guest.Event, tmpl, force)
}

// FileInfo describes a generated invitation on disk.
type FileInfo struct {
	FileName  string    `json:"filename"`
	Path      string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// List returns generated invitations, newest first.
func (g *Generator) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(g.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{
			FileName:  e.Name(),
			Path:      filepath.Join(g.Dir, e.Name()),
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].FileName < out[j].FileName
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes one generated invitation. Names that could leave Dir are rejected.
func (g *Generator) Delete(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".html") {
		return apperr.Validation("invalid invitation file name")
	}
	err := os.Remove(filepath.Join(g.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return apperr.NotFound("invitation file %s not found", name)
	}
	return err
}
