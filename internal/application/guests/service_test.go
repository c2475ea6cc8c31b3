package guests

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"guestpass-backend/internal/application/credentials"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/infrastructure/database"
	"guestpass-backend/internal/pkg/apperr"
)

var testNow = time.Date(2025, 10, 10, 18, 5, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func setupGuests(t *testing.T) (*Service, *domain.Event) {
	db, err := database.Open("sqlite:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	ev := &domain.Event{Name: "Gala", EventDate: time.Date(2025, 10, 10, 18, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(ev).Error)
	return &Service{
		DB:          db,
		Credentials: credentials.NewService(t.TempDir()),
		Now:         func() time.Time { return testNow },
	}, ev
}

func TestCreate_IssuesCredential(t *testing.T) {
	svc, ev := setupGuests(t)
	g, err := svc.Create(context.Background(), GuestInput{
		Name:    ptr("  Nguyễn Văn A "),
		Email:   ptr("not-an-email"),
		Phone:   ptr(" 0909 "),
		EventID: &ev.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Văn A", g.Name)
	assert.Nil(t, g.Email)
	assert.Equal(t, "0909", *g.Phone)
	assert.Equal(t, domain.RSVPPending, g.RSVPStatus)
	assert.FileExists(t, g.QRImagePath)

	p, err := credentials.Validate(string(g.QRPayload))
	require.NoError(t, err)
	assert.Equal(t, g.ID, p.GuestID)
	assert.Equal(t, ev.ID, p.EventID)

	stored, err := svc.Get(context.Background(), g.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(g.QRPayload), string(stored.QRPayload))
}

func TestCreate_Validation(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, GuestInput{Name: ptr("  "), EventID: &ev.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, GuestInput{Name: ptr("A")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, GuestInput{Name: ptr("A"), EventID: ptr(uint(99))})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var n int64
	require.NoError(t, svc.DB.Model(&domain.Guest{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListFilters(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	for _, in := range []GuestInput{
		{Name: ptr("Alice"), Organization: ptr("ABC Corp"), Email: ptr("alice@abc.com")},
		{Name: ptr("Bob"), Organization: ptr("XYZ")},
		{Name: ptr("Carol"), Organization: ptr("ABC Ltd")},
	} {
		in.EventID = &ev.ID
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}
	_, err := svc.UpdateRSVP(ctx, 2, domain.RSVPAccepted, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, ListQuery{EventID: ev.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	abc, err := svc.List(ctx, ListQuery{Organization: "ABC"})
	require.NoError(t, err)
	assert.Len(t, abc, 2)

	accepted, err := svc.List(ctx, ListQuery{RSVPStatus: "accepted"})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "Bob", accepted[0].Name)

	found, err := svc.List(ctx, ListQuery{Search: "alice@"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = svc.List(ctx, ListQuery{RSVPStatus: "maybe"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	none, err := svc.List(ctx, ListQuery{EventID: ev.ID + 1})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	g, err := svc.Create(ctx, GuestInput{Name: ptr("A"), EventID: &ev.ID, Email: ptr("a@b.com")})
	require.NoError(t, err)

	up, err := svc.Update(ctx, g.ID, GuestInput{Role: ptr("CEO"), Email: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "CEO", up.Role)
	assert.Nil(t, up.Email)
	assert.Equal(t, "A", up.Name)

	_, err = svc.Update(ctx, g.ID, GuestInput{EventID: ptr(uint(42))})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, g.ID))
	assert.ErrorIs(t, svc.Delete(ctx, g.ID), apperr.ErrNotFound)
	assert.FileExists(t, g.QRImagePath)
}

func TestUpdateRSVP(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	g, err := svc.Create(ctx, GuestInput{Name: ptr("A"), EventID: &ev.ID})
	require.NoError(t, err)

	up, err := svc.UpdateRSVP(ctx, g.ID, domain.RSVPDeclined, ptr(" travelling "))
	require.NoError(t, err)
	assert.Equal(t, domain.RSVPDeclined, up.RSVPStatus)
	assert.Equal(t, "travelling", up.RSVPNotes)
	require.NotNil(t, up.RSVPResponseAt)
	assert.True(t, testNow.Equal(*up.RSVPResponseAt))

	_, err = svc.UpdateRSVP(ctx, g.ID, "maybe", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.UpdateRSVP(ctx, 999, domain.RSVPAccepted, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegenerateQR_KeepsOldImage(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	g, err := svc.Create(ctx, GuestInput{Name: ptr("A"), EventID: &ev.ID})
	require.NoError(t, err)
	oldPath := g.QRImagePath

	re, err := svc.RegenerateQR(ctx, g.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldPath, re.QRImagePath)
	assert.FileExists(t, oldPath)
	assert.FileExists(t, re.QRImagePath)

	info, err := svc.QR(ctx, g.ID)
	require.NoError(t, err)
	var payload credentials.Payload
	require.NoError(t, json.Unmarshal(re.QRPayload, &payload))
	assert.Equal(t, payload.QRID, info.QRData.QRID)
	assert.Contains(t, info.QRImageURL, "/qr_images/guest_")

	path, err := svc.QRImagePath(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, re.QRImagePath, path)
}

func TestQRImagePath_FallsBackToLatest(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	g, err := svc.Create(ctx, GuestInput{Name: ptr("A"), EventID: &ev.ID})
	require.NoError(t, err)
	require.NoError(t, svc.DB.Model(g).Update("qr_image_path", "/gone/x.png").Error)

	path, err := svc.QRImagePath(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.QRImagePath, path)

	require.NoError(t, os.Remove(path))
	_, err = svc.QRImagePath(ctx, g.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegenerateAllQR(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	for _, n := range []string{"A", "B"} {
		_, err := svc.Create(ctx, GuestInput{Name: ptr(n), EventID: &ev.ID})
		require.NoError(t, err)
	}
	res, err := svc.RegenerateAllQR(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Regenerated)
	assert.Zero(t, res.Failed)
}

func TestStatsSummary(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, GuestInput{Name: ptr(n), EventID: &ev.ID})
		require.NoError(t, err)
	}
	_, err := svc.UpdateRSVP(ctx, 1, domain.RSVPAccepted, nil)
	require.NoError(t, err)
	_, err = svc.ToggleCheckIn(ctx, 1, "")
	require.NoError(t, err)

	st, err := svc.Stats(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, &Summary{TotalGuests: 3, CheckedIn: 1, RSVPAccepted: 1, RSVPPending: 2, CheckInRate: 33.33}, st)

	all, err := svc.Stats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalGuests)
}

func TestExport(t *testing.T) {
	svc, ev := setupGuests(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, GuestInput{Name: ptr("Alice"), Organization: ptr("ABC"), EventID: &ev.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, GuestInput{Name: ptr("Bob"), EventID: &ev.ID})
	require.NoError(t, err)

	b, name, err := svc.ExportBytes(ctx, ev.ID, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "1|Alice|ABC\n2|Bob|\n", string(b))
	assert.Equal(t, "guests_event_1.csv", name)

	b, _, err = svc.ExportBytes(ctx, 0, ExportXLSX)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Guests")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, _, err = svc.ExportBytes(ctx, 0, "pdf")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
