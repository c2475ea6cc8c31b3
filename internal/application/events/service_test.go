package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/infrastructure/database"
	"guestpass-backend/internal/pkg/apperr"
)

func ptr[T any](v T) *T { return &v }

func setupEvents(t *testing.T) *Service {
	db, err := database.Open("sqlite:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}
}

func TestCreate_Validation(t *testing.T) {
	svc := setupEvents(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, EventInput{EventDate: ptr("2025-10-10")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, EventInput{Name: ptr("Gala")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, EventInput{Name: ptr("Gala"), EventDate: ptr("10/10/2025")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, EventInput{Name: ptr("Gala"), EventDate: ptr("2025-10-10"), MaxGuests: ptr(0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreate_AcceptedDateForms(t *testing.T) {
	svc := setupEvents(t)
	ctx := context.Background()
	for _, raw := range []string{"2025-10-10T18:00:00Z", "2025-10-10T18:00:00+07:00", "2025-10-10T18:00:00", "2025-10-10"} {
		e, err := svc.Create(ctx, EventInput{Name: ptr("Gala"), EventDate: ptr(raw)})
		require.NoError(t, err, raw)
		assert.Equal(t, 10, e.EventDate.Day(), raw)
		assert.Equal(t, domain.DefaultMaxGuests, e.MaxGuests)
		assert.True(t, e.IsActive)
	}
}

func TestCreate_Inactive(t *testing.T) {
	svc := setupEvents(t)
	e, err := svc.Create(context.Background(), EventInput{Name: ptr("Draft"), EventDate: ptr("2025-10-10"), IsActive: ptr(false)})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := svc.List(context.Background(), ListQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpdateGetDelete(t *testing.T) {
	svc := setupEvents(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, EventInput{Name: ptr("Gala"), EventDate: ptr("2025-10-10T18:00:00"), Location: ptr("Hall A")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, e.ID, EventInput{Location: ptr(" Hall B "), Agenda: ptr("18:00 - Open")})
	require.NoError(t, err)
	assert.Equal(t, "Hall B", updated.Location)
	assert.Equal(t, "Gala", updated.Name)

	_, err = svc.Update(ctx, e.ID, EventInput{Name: ptr("  ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "18:00 - Open", got.Agenda)
	assert.True(t, got.EventDate.Equal(time.Date(2025, 10, 10, 18, 0, 0, 0, time.UTC)))

	require.NoError(t, svc.DB.Create(&domain.Guest{Name: "A", EventID: e.ID}).Error)
	require.NoError(t, svc.Delete(ctx, e.ID))
	_, err = svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	var remaining int64
	require.NoError(t, svc.DB.Model(&domain.Guest{}).Where("event_id = ?", e.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.ErrorIs(t, svc.Delete(ctx, e.ID), apperr.ErrNotFound)
	_, err = svc.Update(ctx, 999, EventInput{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_OrderAndPaging(t *testing.T) {
	svc := setupEvents(t)
	ctx := context.Background()
	for _, d := range []string{"2025-12-01", "2025-10-01", "2025-11-01"} {
		_, err := svc.Create(ctx, EventInput{Name: ptr("E " + d), EventDate: ptr(d)})
		require.NoError(t, err)
	}
	all, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "E 2025-10-01", all[0].Name)

	page, err := svc.List(ctx, ListQuery{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "E 2025-11-01", page[0].Name)
}

func TestStats(t *testing.T) {
	svc := setupEvents(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, EventInput{Name: ptr("Gala"), EventDate: ptr("2025-10-10")})
	require.NoError(t, err)
	now := time.Now()
	loc := "Gate 1"
	guests := []domain.Guest{
		{Name: "A", Organization: "ABC", RSVPStatus: domain.RSVPAccepted, CheckedIn: true, CheckInAt: &now, CheckInLocation: &loc},
		{Name: "B", Organization: "ABC", RSVPStatus: domain.RSVPDeclined},
		{Name: "C", Organization: "XYZ"},
		{Name: "D"},
	}
	for i := range guests {
		guests[i].EventID = e.ID
		require.NoError(t, svc.DB.Create(&guests[i]).Error)
	}

	st, err := svc.Stats(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.TotalGuests)
	assert.Equal(t, int64(1), st.CheckedIn)
	assert.Equal(t, int64(1), st.RSVPAccepted)
	assert.Equal(t, int64(1), st.RSVPDeclined)
	assert.Equal(t, int64(2), st.RSVPPending)
	assert.Equal(t, 25.0, st.CheckInRate)
	assert.Equal(t, []OrgCount{{Name: "ABC", Count: 2}, {Name: "XYZ", Count: 1}}, st.Organizations)

	_, err = svc.Stats(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 33.33, Rate(1, 3))
	assert.Equal(t, 66.67, Rate(2, 3))
	assert.Equal(t, 100.0, Rate(5, 5))
}
