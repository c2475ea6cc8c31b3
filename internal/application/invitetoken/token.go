// Package invitetoken issues and verifies the signed links that let a guest open
// their invitation without logging in.
package invitetoken

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"

	"guestpass-backend/internal/pkg/apperr"
)

const (
	Subject    = "invite"
	DefaultTTL = 30 * 24 * time.Hour

	keyInfo = "invite-token"
)

// ErrInvalidOrExpired is the only error Verify reports. Callers never learn which
// check failed.
var ErrInvalidOrExpired = apperr.Unauthorized("invalid or expired token")

// Claims carried by an invite token.
type Claims struct {
	GuestID uint `json:"guest_id"`
	EventID uint `json:"event_id"`
	jwt.RegisteredClaims
}

// Denylist records revoked token ids.
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string, until time.Time) error
}

// Service signs invite tokens with a key derived from the configured secret.
type Service struct {
	key      []byte
	TTL      time.Duration
	Now      func() time.Time
	Denylist Denylist
}

// NewService derives the HS256 key from secret. ttl <= 0 falls back to DefaultTTL.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("invite token secret is empty")
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive invite key: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{key: key, TTL: ttl}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a token for the guest. ttl <= 0 uses the service TTL.
func (s *Service) Issue(guestID, eventID uint, ttl time.Duration) (string, error) {
	tok, _, err := s.IssueClaims(guestID, eventID, ttl)
	return tok, err
}

// IssueClaims is Issue that also returns the signed claims.
func (s *Service) IssueClaims(guestID, eventID uint, ttl time.Duration) (string, *Claims, error) {
	if ttl <= 0 {
		ttl = s.TTL
	}
	jti, err := gonanoid.New()
	if err != nil {
		return "", nil, err
	}
	now := s.now()
	claims := &Claims{
		GuestID: guestID,
		EventID: eventID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   Subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", nil, err
	}
	return tok, claims, nil
}

// Verify checks signature, algorithm, expiry and subject, and consults the denylist
// when one is configured.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if s.Denylist != nil && claims.ID != "" {
		revoked, err := s.Denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Error().Err(err).Str("jti", claims.ID).Msg("invite denylist lookup failed")
			return nil, ErrInvalidOrExpired
		}
		if revoked {
			return nil, ErrInvalidOrExpired
		}
	}
	return claims, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(Subject),
	)
	if err != nil {
		return nil, ErrInvalidOrExpired
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.GuestID == 0 || claims.EventID == 0 {
		return nil, ErrInvalidOrExpired
	}
	return claims, nil
}

// Revoke denylists a still-valid token until it would have expired anyway.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if s.Denylist == nil {
		return errors.New("no invite denylist configured")
	}
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return ErrInvalidOrExpired
	}
	return s.Denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
