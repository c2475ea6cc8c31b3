package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"guestpass-backend/bootstrap"
	"guestpass-backend/internal/application/events"
	"guestpass-backend/internal/application/guests"
	"guestpass-backend/internal/application/invitations"
	"guestpass-backend/internal/config"
	"guestpass-backend/internal/interfaces/router"

	"github.com/spf13/cobra"
)

// env is what every subcommand works against.
type env struct {
	cfg *config.Config
	svc *router.Services
}

// loadEnv opens config, database and redis the way the API server does.
func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	bootstrap.ConfigureLogging(cfg)
	db, err := router.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := router.OpenRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	svc, err := router.NewServices(cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, svc: svc}, nil
}

// newRootCmd builds the command tree. A nil load uses loadEnv.
func newRootCmd(load func() (*env, error)) *cobra.Command {
	if load == nil {
		load = loadEnv
	}
	var e *env
	root := &cobra.Command{
		Use:           "guestctl",
		Short:         "Batch jobs for guests, QR credentials and invitations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			e, err = load()
			return err
		},
	}
	get := func() *env { return e }
	root.AddCommand(
		newSeedEventCmd(get),
		newImportCmd(get),
		newRegenerateQRCmd(get),
		newGenerateInvitationsCmd(get),
		newExportCmd(get),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSeedEventCmd(get func() *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-event",
		Short: "Create the sample event used by invitation previews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := invitations.SampleEvent()
			date := s.EventDate.Format(time.RFC3339)
			active := true
			ev, err := get().svc.Events.Create(cmd.Context(), events.EventInput{
				Name:        &s.Name,
				Description: &s.Description,
				EventDate:   &date,
				Location:    &s.Location,
				Address:     &s.Address,
				Agenda:      &s.Agenda,
				MaxGuests:   &s.MaxGuests,
				IsActive:    &active,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created event %d: %s\n", ev.ID, ev.Name)
			return nil
		},
	}
}

func newImportCmd(get func() *env) *cobra.Command {
	var eventID uint
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import guests from a CSV, XLSX, XLS or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := get().svc.Guests.Import(cmd.Context(), eventID, filepath.Base(args[0]), content)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().UintVar(&eventID, "event-id", 0, "event to import into")
	_ = cmd.MarkFlagRequired("event-id")
	return cmd
}

func newRegenerateQRCmd(get func() *env) *cobra.Command {
	var eventID uint
	cmd := &cobra.Command{
		Use:   "regenerate-qr",
		Short: "Reissue QR credentials for an event's guests (all guests when --event-id is 0)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := get().svc.Guests.RegenerateAllQR(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().UintVar(&eventID, "event-id", 0, "event to regenerate")
	return cmd
}

func newGenerateInvitationsCmd(get func() *env) *cobra.Command {
	var (
		eventID uint
		tmpl    string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "generate-invitations",
		Short: "Render invitation documents for every guest of an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := get().svc.Invitations.GenerateAll(cmd.Context(), eventID, tmpl, force)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d invitation(s) failed", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&eventID, "event-id", 0, "event to render")
	cmd.Flags().StringVar(&tmpl, "template", invitations.DefaultTemplate, "invitation template")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing documents")
	_ = cmd.MarkFlagRequired("event-id")
	return cmd
}

func newExportCmd(get func() *env) *cobra.Command {
	var (
		eventID uint
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the guest list to the exports directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := get()
			data, name, err := e.svc.Guests.ExportBytes(cmd.Context(), eventID, guests.ExportFormat(format))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(e.cfg.ExportsDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(e.cfg.ExportsDir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().UintVar(&eventID, "event-id", 0, "event to export (all events when 0)")
	cmd.Flags().StringVar(&format, "format", string(guests.ExportCSV), "csv or xlsx")
	return cmd
}
