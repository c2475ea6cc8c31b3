// Package credentials issues and reads the QR check-in credentials printed on
// guest badges and invitations.
package credentials

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"guestpass-backend/internal/pkg/apperr"
	"guestpass-backend/internal/pkg/textnorm"
)

const (
	TypeCheckIn    = "guest_checkin"
	TypeInvitation = "invitation"

	// moduleSize is the pixel width of one QR module; go-qrcode reads a negative
	// size as per-module scale.
	moduleSize = -10
)

// ErrInvalidCredential covers every unreadable or incomplete scan.
var ErrInvalidCredential = apperr.Validation("invalid QR credential")

// Payload is the JSON document carried by a check-in QR symbol.
type Payload struct {
	Type      string `json:"type"`
	GuestID   uint   `json:"guest_id"`
	EventID   uint   `json:"event_id"`
	GuestName string `json:"guest_name"`
	QRID      string `json:"qr_id"`
}

// Credential is the result of one Issue call.
type Credential struct {
	Payload   Payload
	Raw       []byte
	ImagePath string
}

// Service writes credential images under Dir.
type Service struct {
	Dir   string
	NewID func() string
}

func NewService(dir string) *Service {
	return &Service{Dir: dir}
}

// Issue mints a fresh credential with a new qr_id and writes its PNG. Earlier images
// for the guest stay on disk; the caller stores the returned payload as current.
func (s *Service) Issue(guestID uint, guestName string, eventID uint) (*Credential, error) {
	p := Payload{
		Type:      TypeCheckIn,
		GuestID:   guestID,
		EventID:   eventID,
		GuestName: guestName,
		QRID:      s.newID(),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(string(raw), qrcode.Low, moduleSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr dir: %w", err)
	}
	path := filepath.Join(s.Dir, ImageFileName(guestID, guestName, p.QRID))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return nil, fmt.Errorf("write qr image: %w", err)
	}
	return &Credential{Payload: p, Raw: raw, ImagePath: path}, nil
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// ImageFileName is guest_<id>_<sanitized name>_<qr_id>.png.
func ImageFileName(guestID uint, guestName, qrID string) string {
	return fmt.Sprintf("guest_%d_%s_%s.png", guestID, SanitizeName(guestName), qrID)
}

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	underscores = regexp.MustCompile(`_{2,}`)
)

// SanitizeName makes a guest name safe for a filename: "Nguyễn  Văn A!!" -> "Nguyen_Van_A_".
func SanitizeName(name string) string {
	s := textnorm.StripDiacritics(strings.TrimSpace(name))
	s = unsafeChars.ReplaceAllString(s, "_")
	s = underscores.ReplaceAllString(s, "_")
	if s == "" {
		return "guest"
	}
	return s
}

// Decode parses scanned text. Unknown fields are ignored; guest_id, event_id and
// type must be present.
func Decode(text string) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &fields); err != nil {
		return nil, ErrInvalidCredential
	}
	for _, k := range []string{"guest_id", "event_id", "type"} {
		if _, ok := fields[k]; !ok {
			return nil, ErrInvalidCredential
		}
	}
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return nil, ErrInvalidCredential
	}
	return &p, nil
}

// Validate decodes a check-in scan and requires the guest_checkin type.
func Validate(text string) (*Payload, error) {
	p, err := Decode(text)
	if err != nil {
		return nil, err
	}
	if p.Type != TypeCheckIn || p.GuestID == 0 || p.EventID == 0 {
		return nil, ErrInvalidCredential
	}
	return p, nil
}

// LatestImage returns the most recently written image for a guest, or "" when none exists.
func (s *Service) LatestImage(guestID uint) (string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	prefix := fmt.Sprintf("guest_%d_", guestID)
	var (
		latest string
		newest int64
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mt := info.ModTime().UnixNano(); latest == "" || mt > newest || (mt == newest && e.Name() > filepath.Base(latest)) {
			latest, newest = filepath.Join(s.Dir, e.Name()), mt
		}
	}
	return latest, nil
}

// InvitationPayload is carried by the QR on an invitation document.
type InvitationPayload struct {
	Type         string `json:"type"`
	GuestID      uint   `json:"guest_id"`
	GuestName    string `json:"guest_name"`
	EventID      uint   `json:"event_id"`
	EventName    string `json:"event_name"`
	InvitationID string `json:"invitation_id"`
	URL          string `json:"url,omitempty"`
}

// IssueInvitationQR renders an invitation QR as a PNG data URI. Nothing is written to disk.
func IssueInvitationQR(p InvitationPayload) (string, error) {
	p.Type = TypeInvitation
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, moduleSize)
	if err != nil {
		return "", fmt.Errorf("encode invitation qr: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("data:image/png;base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(png))
	return b.String(), nil
}
