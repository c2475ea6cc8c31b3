package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guestsvc "guestpass-backend/internal/application/guests"
	"guestpass-backend/internal/config"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/interfaces/router"
)

func testEnv(t *testing.T) *env {
	dir := t.TempDir()
	cfg := &config.Config{
		DatabaseURL:       "sqlite:",
		InviteTokenSecret: "cli-secret",
		InviteTokenTTL:    time.Hour,
		QRImagesDir:       filepath.Join(dir, "qr_images"),
		InvitationsDir:    filepath.Join(dir, "invitations"),
		ExportsDir:        filepath.Join(dir, "exports"),
		PublicBaseURL:     "http://localhost:8080",
	}
	db, err := router.OpenDatabase(cfg)
	require.NoError(t, err)
	svc, err := router.NewServices(cfg, db, nil)
	require.NoError(t, err)
	return &env{cfg: cfg, svc: svc}
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func() (*env, error) { return e, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedImportAndGenerate(t *testing.T) {
	e := testEnv(t)

	out, err := run(t, e, "seed-event")
	require.NoError(t, err)
	assert.Contains(t, out, "created event 1")

	csvPath := filepath.Join(t.TempDir(), "guests.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Họ tên,Công ty\nNguyễn Văn A,ABC\n,XYZ\nTrần B,DEF\n"), 0o644))
	out, err = run(t, e, "import", "--event-id", "1", csvPath)
	require.NoError(t, err)
	var imported map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, float64(2), imported["imported"])
	assert.Len(t, imported["rejected"], 1)

	out, err = run(t, e, "generate-invitations", "--event-id", "1")
	require.NoError(t, err)
	var bulk map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &bulk))
	assert.Equal(t, float64(2), bulk["generated"])

	out, err = run(t, e, "generate-invitations", "--event-id", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &bulk))
	assert.Equal(t, float64(2), bulk["existing"])
}

func TestRegenerateQR(t *testing.T) {
	e := testEnv(t)
	_, err := run(t, e, "seed-event")
	require.NoError(t, err)
	ctx := context.Background()
	g, err := e.svc.Guests.Create(ctx, guestInput("Lê C", 1))
	require.NoError(t, err)
	before := string(g.QRPayload)

	out, err := run(t, e, "regenerate-qr", "--event-id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"regenerated": 1`)

	var after domain.Guest
	require.NoError(t, e.svc.Guests.DB.First(&after, g.ID).Error)
	assert.NotEqual(t, before, string(after.QRPayload))
}

func TestExport(t *testing.T) {
	e := testEnv(t)
	_, err := run(t, e, "seed-event")
	require.NoError(t, err)
	_, err = e.svc.Guests.Create(context.Background(), guestInput("Phạm D", 1))
	require.NoError(t, err)

	out, err := run(t, e, "export", "--event-id", "1")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(e.cfg.ExportsDir, "guests_event_1.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Phạm D")

	_, err = run(t, e, "export", "--format", "pdf")
	assert.Error(t, err)
}

func TestImport_RequiresEvent(t *testing.T) {
	e := testEnv(t)
	_, err := run(t, e, "import", "guests.csv")
	assert.Error(t, err)
}

func guestInput(name string, eventID uint) guestsvc.GuestInput {
	return guestsvc.GuestInput{Name: &name, EventID: &eventID}
}
