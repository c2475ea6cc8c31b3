package invitations

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"guestpass-backend/internal/application/emails"
	"guestpass-backend/internal/application/invitetoken"
	"guestpass-backend/internal/domain"
	"guestpass-backend/internal/infrastructure/database"
	"guestpass-backend/internal/pkg/apperr"
)

type recordingSender struct{ sent []emails.Message }

func (r *recordingSender) SendInvitation(_ context.Context, m emails.Message) error {
	r.sent = append(r.sent, m)
	return nil
}

func setupService(t *testing.T) (*Service, *gorm.DB, *domain.Event) {
	db, err := database.Open("sqlite:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	ev := SampleEvent()
	ev.ID = 0
	require.NoError(t, db.Create(ev).Error)

	tokens, err := invitetoken.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	tokens.Now = func() time.Time { return fixedNow }
	return &Service{
		DB:        db,
		Generator: newTestGenerator(t),
		Tokens:    tokens,
		Mailer:    &recordingSender{},
		MailFrom:  "events@exp.vn",
	}, db, ev
}

func addGuest(t *testing.T, db *gorm.DB, eventID uint, name string, email *string) *domain.Guest {
	g := &domain.Guest{Name: name, EventID: eventID, Email: email}
	require.NoError(t, db.Create(g).Error)
	return g
}

func TestService_Generate(t *testing.T) {
	svc, db, ev := setupService(t)
	g := addGuest(t, db, ev.ID, "Alice", nil)
	ctx := context.Background()

	out, err := svc.Generate(ctx, g.ID, "")
	require.NoError(t, err)
	assert.False(t, out.AlreadyExists)
	assert.Equal(t, InvitationID(g.ID), out.InvitationID)

	again, err := svc.Generate(ctx, g.ID, "")
	require.NoError(t, err)
	assert.True(t, again.AlreadyExists)

	_, err = svc.Generate(ctx, 999, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_GenerateAll(t *testing.T) {
	svc, db, ev := setupService(t)
	ctx := context.Background()

	_, err := svc.GenerateAll(ctx, ev.ID, "", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	addGuest(t, db, ev.ID, "A", nil)
	addGuest(t, db, ev.ID, "B", nil)
	res, err := svc.GenerateAll(ctx, ev.ID, "modern", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Generated)

	res, err = svc.GenerateAll(ctx, ev.ID, "modern", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Existing)

	_, err = svc.GenerateAll(ctx, 404, "", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GenerateAll(ctx, ev.ID, "nope", false)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestService_GenerateBulk(t *testing.T) {
	svc, db, ev := setupService(t)
	a := addGuest(t, db, ev.ID, "A", nil)
	b := addGuest(t, db, ev.ID, "B", nil)
	ctx := context.Background()

	res, err := svc.GenerateBulk(ctx, []uint{a.ID, 777, b.ID, a.ID}, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Generated)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Items, 3)
	assert.Equal(t, uint(777), res.Items[1].GuestID)
	assert.Equal(t, StatusFailed, res.Items[1].Status)

	res, err = svc.GenerateBulk(ctx, []uint{a.ID}, "", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generated)

	_, err = svc.GenerateBulk(ctx, nil, "", false)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_Preview(t *testing.T) {
	svc, _, ev := setupService(t)
	html, d, err := svc.Preview(context.Background(), ev.ID, "classic", Customization{})
	require.NoError(t, err)
	assert.Contains(t, html, "Nguyễn Văn A")
	assert.Equal(t, ev.Name, d.Event.Title)

	_, _, err = svc.Preview(context.Background(), 0, "", Customization{})
	assert.NoError(t, err)

	_, _, err = svc.Preview(context.Background(), 404, "", Customization{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_SendEmail(t *testing.T) {
	svc, db, ev := setupService(t)
	email := "alice@example.com"
	withEmail := addGuest(t, db, ev.ID, "Alice", &email)
	noEmail := addGuest(t, db, ev.ID, "Bob", nil)
	ctx := context.Background()

	res, err := svc.SendEmail(ctx, withEmail.ID, "")
	require.NoError(t, err)
	assert.Equal(t, email, res.Email)
	assert.FileExists(t, res.Outcome.Path)

	sent := svc.Mailer.(*recordingSender).sent
	require.Len(t, sent, 1)
	assert.Equal(t, email, sent[0].To)
	assert.Equal(t, "events@exp.vn", sent[0].From)
	assert.Contains(t, sent[0].Subject, "Alice")
	stored, err := os.ReadFile(res.Outcome.Path)
	require.NoError(t, err)
	assert.Equal(t, string(stored), sent[0].HTML)

	again, err := svc.SendEmail(ctx, withEmail.ID, "")
	require.NoError(t, err)
	assert.True(t, again.Outcome.AlreadyExists)
	require.Len(t, svc.Mailer.(*recordingSender).sent, 2)
	assert.Contains(t, svc.Mailer.(*recordingSender).sent[1].HTML, "Alice")

	_, err = svc.SendEmail(ctx, withEmail.ID, "neon")
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, err = svc.SendEmail(ctx, noEmail.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_InviteLinkAndOpen(t *testing.T) {
	svc, db, ev := setupService(t)
	g := addGuest(t, db, ev.ID, "Alice", nil)
	ctx := context.Background()

	link, err := svc.InviteLink(ctx, g.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://exp.example.com/invite/"+link.Token, link.URL)
	assert.True(t, fixedNow.Add(time.Hour).Equal(link.ExpiresAt))

	opened, err := svc.OpenByToken(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, g.ID, opened.ID)

	html, _, err := svc.RenderByToken(ctx, link.Token, "")
	require.NoError(t, err)
	assert.Contains(t, html, "Alice")

	_, err = svc.OpenByToken(ctx, link.Token+"x")
	assert.ErrorIs(t, err, invitetoken.ErrInvalidOrExpired)

	require.NoError(t, db.Delete(&domain.Guest{}, g.ID).Error)
	_, err = svc.OpenByToken(ctx, link.Token)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_OpenByToken_EventMismatch(t *testing.T) {
	svc, db, ev := setupService(t)
	g := addGuest(t, db, ev.ID, "Alice", nil)
	tok, err := svc.Tokens.Issue(g.ID, ev.ID+1, 0)
	require.NoError(t, err)

	_, err = svc.OpenByToken(context.Background(), tok)
	assert.ErrorIs(t, err, invitetoken.ErrInvalidOrExpired)
}
