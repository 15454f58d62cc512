package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ElMariones/portfolio/internal/config"
	"github.com/ElMariones/portfolio/internal/content"
	"github.com/ElMariones/portfolio/internal/mailer"
	"github.com/ElMariones/portfolio/internal/server"
	"github.com/ElMariones/portfolio/internal/session"
	"github.com/ElMariones/portfolio/internal/submission"
)

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portfolio over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().String("port", "8080", "HTTP port")
	cmd.Flags().String("static-dir", "./static", "Directory served under /static")
	cmd.Flags().String("content", "", "Portfolio YAML file (defaults to the built-in content)")
	cmd.Flags().Bool("watch", false, "Reload the content file when it changes")
	cmd.Flags().String("mail-provider", config.ProviderSMTP, "Contact delivery: smtp, emailjs or log")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := slog.Default()

	portfolio := content.Default()
	if cfg.Content.Path != "" {
		p, err := content.Load(cfg.Content.Path)
		if err != nil {
			return err
		}
		portfolio = p
	}
	store := content.NewStore(portfolio)

	sender, err := mailer.New(cfg.Mail, logger.With("component", "mailer"))
	if err != nil {
		return err
	}

	sessions := session.NewStore(session.Factory{
		Projects: store.ProjectIDs,
		Sender:   sender,
		Options: []submission.Option{
			submission.WithResetDelay(cfg.Contact.ResetDelay),
			submission.WithLogger(logger.With("component", "contact")),
		},
	}, cfg.Session.TTL, logger.With("component", "session"))

	srv, err := server.New(server.Options{
		Content:   store,
		Sessions:  sessions,
		Logger:    logger.With("component", "http"),
		StaticDir: cfg.StaticDir,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, cfg.Addr()) })
	g.Go(func() error { return sessions.Run(gctx, cfg.Session.SweepInterval) })
	if cfg.Content.Watch && cfg.Content.Path != "" {
		g.Go(func() error {
			return content.Watch(gctx, cfg.Content.Path, store, logger.With("component", "content"))
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("portfolio stopped")
	return nil
}
