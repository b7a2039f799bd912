package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-analyzer/internal/config"
	"github.com/jonathan/resume-analyzer/internal/server"
	"github.com/jonathan/resume-analyzer/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that analyzes uploaded resumes.

DATABASE_URL enables profile storage and REDIS_URL the profile cache. ADMIN_USER, ADMIN_PASS and
JWT_SECRET enable the admin routes; without them /admin/* answers 503.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: PORT env var or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx, cfg, log, backends{store: true, cache: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	var admin *config.AdminConfig
	if os.Getenv("ADMIN_USER") != "" {
		admin, err = config.NewAdminConfig()
		if err != nil {
			return fmt.Errorf("invalid admin configuration: %w", err)
		}
	} else {
		log.Info().Msg("ADMIN_USER not set, admin routes disabled")
	}

	addr := cfg.Addr
	if servePort > 0 {
		addr = fmt.Sprintf(":%d", servePort)
	}

	srv, err := server.New(server.Config{
		Addr:      addr,
		Runner:    svc.runner,
		Store:     svc.store,
		Admin:     admin,
		RateLimit: ratelimit.LoadConfig(),
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
