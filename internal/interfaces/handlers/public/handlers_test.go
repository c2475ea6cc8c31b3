package public

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"guestpass-backend/internal/application/credentials"
	guestsvc "guestpass-backend/internal/application/guests"
	invsvc "guestpass-backend/internal/application/invitations"
	"guestpass-backend/internal/application/invitetoken"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/infrastructure/database"
)

func setupPublicApp(t *testing.T) (*fiber.App, *invsvc.Service, *gorm.DB) {
	db, err := database.Open("sqlite:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Create(&domain.Event{Name: "Gala <Night>", EventDate: time.Date(2025, 10, 10, 18, 0, 0, 0, time.UTC)}).Error)
	require.NoError(t, db.Create(&domain.Event{Name: "Other", EventDate: time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)}).Error)
	require.NoError(t, db.Create(&domain.Guest{Name: "Alice", EventID: 1}).Error)

	tokens, err := invitetoken.NewService("public-secret", time.Hour)
	require.NoError(t, err)
	inv := &invsvc.Service{
		DB:        db,
		Generator: invsvc.NewGenerator(t.TempDir(), invsvc.Options{BaseURL: "https://guests.example.com"}),
		Tokens:    tokens,
	}
	h := &Handlers{
		Invitations: inv,
		Guests:      &guestsvc.Service{DB: db, Credentials: credentials.NewService(t.TempDir())},
	}
	app := fiber.New()
	app.Get("/invite/:token", h.Invitation)
	app.Get("/invite/:token/data", h.InvitationData)
	app.Post("/invite/:token/rsvp", h.RSVP)
	app.Get("/rsvp/:action", h.RSVPLink)
	return app, inv, db
}

func link(t *testing.T, inv *invsvc.Service) string {
	l, err := inv.InviteLink(context.Background(), 1, 0)
	require.NoError(t, err)
	return l.Token
}

func TestInvitation_RendersHTML(t *testing.T) {
	app, inv, _ := setupPublicApp(t)
	tok := link(t, inv)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/invite/"+tok+"?template=classic", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Alice")
	assert.Contains(t, string(body), "Gala &lt;Night&gt;")
	assert.Contains(t, string(body), "/rsvp/accept?id=INV000001")
}

func TestInvitation_BadToken(t *testing.T) {
	app, inv, db := setupPublicApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/invite/not-a-token", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "invalid or has expired")

	tok := link(t, inv)
	require.NoError(t, db.Model(&domain.Guest{}).Where("id = ?", 1).Update("event_id", 2).Error)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/invite/"+tok+"/data", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInvitationData(t *testing.T) {
	app, inv, _ := setupPublicApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/invite/"+link(t, inv)+"/data", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data invsvc.Data `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Alice", out.Data.Guest.Name)
	assert.Equal(t, "2025-10-03", out.Data.RSVP.Deadline)
}

func postRSVP(t *testing.T, app *fiber.App, tok string, body map[string]interface{}) int {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/invite/"+tok+"/rsvp", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRSVPByToken(t *testing.T) {
	app, inv, db := setupPublicApp(t)
	tok := link(t, inv)

	assert.Equal(t, http.StatusOK, postRSVP(t, app, tok, map[string]interface{}{"rsvp_status": "declined", "rsvp_notes": "away"}))
	var g domain.Guest
	require.NoError(t, db.First(&g, 1).Error)
	assert.Equal(t, domain.RSVPDeclined, g.RSVPStatus)
	assert.Equal(t, "away", g.RSVPNotes)

	assert.Equal(t, http.StatusBadRequest, postRSVP(t, app, tok, map[string]interface{}{"rsvp_status": "pending"}))
	assert.Equal(t, http.StatusBadRequest, postRSVP(t, app, tok, map[string]interface{}{"rsvp_status": "maybe"}))
	assert.Equal(t, http.StatusUnauthorized, postRSVP(t, app, tok+"x", map[string]interface{}{"rsvp_status": "accepted"}))
}

func TestRSVPLink(t *testing.T) {
	app, _, db := setupPublicApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rsvp/accept?id=INV000001", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Alice")
	var g domain.Guest
	require.NoError(t, db.First(&g, 1).Error)
	assert.Equal(t, domain.RSVPAccepted, g.RSVPStatus)
	assert.NotNil(t, g.RSVPResponseAt)

	for path, code := range map[string]int{
		"/rsvp/maybe?id=INV000001":   http.StatusNotFound,
		"/rsvp/decline?id=bogus":     http.StatusBadRequest,
		"/rsvp/decline?id=INV000099": http.StatusNotFound,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, code, resp.StatusCode, path)
	}
}
