package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestpass-backend/internal/config"
	"guestpass-backend/internal/health"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Env:               "test",
		DatabaseURL:       "sqlite:",
		InviteTokenSecret: "router-secret",
		InviteTokenTTL:    time.Hour,
		QRImagesDir:       filepath.Join(dir, "qr_images"),
		InvitationsDir:    filepath.Join(dir, "invitations"),
		ExportsDir:        filepath.Join(dir, "exports"),
		PublicBaseURL:     "https://guests.example.org",
		HealthAdminKey:    "admin",
		MailFrom:          "noreply@example.org",
	}
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestOpenRedis(t *testing.T) {
	rdb, err := OpenRedis("")
	require.NoError(t, err)
	assert.Nil(t, rdb)

	_, err = OpenRedis("not a url")
	assert.Error(t, err)
}

func TestCreateApp_InvitePipeline(t *testing.T) {
	app, db, rdb, err := CreateApp(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Nil(t, rdb)

	code, out := call(t, app, http.MethodPost, "/api/v1/events", map[string]interface{}{"name": "Gala", "event_date": "2025-10-10T18:00:00"})
	require.Equal(t, http.StatusCreated, code, out)

	code, out = call(t, app, http.MethodPost, "/api/v1/guests", map[string]interface{}{"name": "Trần Thị B", "event_id": 1, "email": "b@example.org"})
	require.Equal(t, http.StatusCreated, code, out)

	// fixed guest routes must not be captured by :id
	code, out = call(t, app, http.MethodGet, "/api/v1/guests/stats?event_id=1", nil)
	require.Equal(t, http.StatusOK, code, out)

	code, out = call(t, app, http.MethodPost, "/api/v1/invitations/generate/1", nil)
	require.Equal(t, http.StatusCreated, code, out)

	code, out = call(t, app, http.MethodPost, "/api/v1/invitations/link/1", nil)
	require.Equal(t, http.StatusCreated, code, out)
	link := out["data"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(link["url"].(string), "https://guests.example.org/invite/"))
	token := link["token"].(string)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/invite/"+token, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Trần Thị B")

	code, out = call(t, app, http.MethodPost, "/invite/"+token+"/rsvp", map[string]interface{}{"rsvp_status": "accepted"})
	require.Equal(t, http.StatusOK, code, out)

	code, out = call(t, app, http.MethodGet, "/api/v1/guests/1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "accepted", out["data"].(map[string]interface{})["rsvp_status"])
}

func TestCreateApp_Health(t *testing.T) {
	app, _, _, err := CreateApp(testConfig(t))
	require.NoError(t, err)

	code, out := call(t, app, http.MethodGet, "/health/json", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "guestpass-api", out["service"])
	assert.Equal(t, "ok", out["status"])

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/reset?key=admin", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	code, out = call(t, app, http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", out["status"])
}

func TestCreateApp_WithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	app, _, rdb, err := CreateApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, rdb)
	t.Cleanup(func() { rdb.Close() })

	code, _ := call(t, app, http.MethodGet, "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, code)
	total, err := mr.Get(health.KeyReqTotal)
	require.NoError(t, err)
	assert.Equal(t, "1", total)
}
