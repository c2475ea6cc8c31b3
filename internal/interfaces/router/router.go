package router

import (
	"fmt"

	"guestpass-backend/internal/application/credentials"
	"guestpass-backend/internal/application/emails"
	eventsvc "guestpass-backend/internal/application/events"
	guestsvc "guestpass-backend/internal/application/guests"
	invsvc "guestpass-backend/internal/application/invitations"
	"guestpass-backend/internal/application/invitetoken"
	"guestpass-backend/internal/config"
	"guestpass-backend/internal/health"
	"guestpass-backend/internal/infrastructure/database"
	eventhandler "guestpass-backend/internal/interfaces/handlers/events"
	guesthandler "guestpass-backend/internal/interfaces/handlers/guests"
	healthhandler "guestpass-backend/internal/interfaces/handlers/health"
	invhandler "guestpass-backend/internal/interfaces/handlers/invitations"
	publichandler "guestpass-backend/internal/interfaces/handlers/public"
	"guestpass-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// bodyLimit leaves headroom above guesthandler.MaxImportSize for multipart framing.
const bodyLimit = 12 << 20

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Services are the application services behind the HTTP surface. cmd/guestctl
// builds the same set without an HTTP app.
type Services struct {
	Events      *eventsvc.Service
	Guests      *guestsvc.Service
	Invitations *invsvc.Service
	Tokens      *invitetoken.Service
}

// NewServices wires the application services to db and the configured directories.
// rdb may be nil, in which case invite tokens cannot be revoked.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Services, error) {
	tokens, err := invitetoken.NewService(cfg.InviteTokenSecret, cfg.InviteTokenTTL)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		tokens.Denylist = &invitetoken.RedisDenylist{RDB: rdb}
	}
	creds := credentials.NewService(cfg.QRImagesDir)
	gen := invsvc.NewGenerator(cfg.InvitationsDir, invsvc.Options{
		BaseURL:  cfg.PublicBaseURL,
		Subtitle: cfg.EventSubtitle,
		HostOrg:  cfg.EventHostOrg,
		Timezone: cfg.EventTimezone,
	})
	return &Services{
		Events: &eventsvc.Service{DB: db},
		Guests: &guestsvc.Service{DB: db, Credentials: creds},
		Invitations: &invsvc.Service{
			DB:        db,
			Generator: gen,
			Tokens:    tokens,
			Mailer:    emails.LogSender{From: cfg.MailFrom},
			MailFrom:  cfg.MailFrom,
		},
		Tokens: tokens,
	}, nil
}

// OpenRedis returns nil when no REDIS_URL is configured.
func OpenRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

// OpenDatabase opens and migrates the configured database.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb, err := OpenRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: request stats and invite revocation disabled")
	}
	svc, err := NewServices(cfg, db, rdb)
	if err != nil {
		return nil, nil, nil, err
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	if rdb != nil {
		app.Use(middleware.HealthMarker(rdb))
	}

	hh := &healthhandler.Handlers{
		Checker: &health.Checker{
			Rdb: rdb,
			DB:  &gormDBPinger{db: db},
			Dirs: map[string]string{
				"qr_images":   cfg.QRImagesDir,
				"invitations": cfg.InvitationsDir,
			},
		},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	app.Static("/qr_images", cfg.QRImagesDir)
	app.Static("/invitations", cfg.InvitationsDir)

	api := app.Group("/api/v1")

	eh := &eventhandler.Handlers{Service: svc.Events}
	eg := api.Group("/events")
	eg.Get("/", eh.List)
	eg.Post("/", eh.Create)
	eg.Get("/:id", eh.Get)
	eg.Put("/:id", eh.Update)
	eg.Delete("/:id", eh.Delete)
	eg.Get("/:id/stats", eh.Stats)

	gh := &guesthandler.Handlers{Service: svc.Guests}
	gg := api.Group("/guests")
	// fixed paths first so they are not captured by :id
	gg.Get("/", gh.List)
	gg.Post("/", gh.Create)
	gg.Get("/stats", gh.Stats)
	gg.Get("/template", gh.Template)
	gg.Get("/export", gh.Export)
	gg.Post("/import", gh.Import)
	gg.Post("/checkin", gh.CheckInByScan)
	gg.Post("/qr/regenerate-all", gh.RegenerateAllQR)
	gg.Get("/:id", gh.Get)
	gg.Put("/:id", gh.Update)
	gg.Delete("/:id", gh.Delete)
	gg.Put("/:id/rsvp", gh.UpdateRSVP)
	gg.Post("/:id/checkin", gh.CheckIn)
	gg.Post("/:id/toggle-checkin", gh.ToggleCheckIn)
	gg.Get("/:id/qr", gh.QR)
	gg.Get("/:id/qr/image", gh.QRImage)
	gg.Post("/:id/qr/regenerate", gh.RegenerateQR)

	ih := &invhandler.Handlers{Service: svc.Invitations}
	ig := api.Group("/invitations")
	ig.Get("/", ih.List)
	ig.Get("/templates", ih.Templates)
	ig.Post("/preview", ih.Preview)
	ig.Post("/generate-bulk", ih.GenerateBulk)
	ig.Post("/generate/:guest_id", ih.Generate)
	ig.Post("/generate-all/:event_id", ih.GenerateAll)
	ig.Post("/send-email/:guest_id", ih.SendEmail)
	ig.Post("/link/:guest_id", ih.Link)
	ig.Post("/revoke", ih.Revoke)
	ig.Delete("/:filename", ih.Delete)

	ph := &publichandler.Handlers{Invitations: svc.Invitations, Guests: svc.Guests}
	app.Get("/invite/:token", ph.Invitation)
	app.Get("/invite/:token/data", ph.InvitationData)
	app.Post("/invite/:token/rsvp", ph.RSVP)
	app.Get("/rsvp/:action", ph.RSVPLink)

	return app, db, rdb, nil
}
