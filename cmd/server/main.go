package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "compliancehub/internal/jwt_token"
	"compliancehub/internal/notification/scanner"
	"compliancehub/internal/platform/config"
	"compliancehub/internal/platform/httpserver"
	"compliancehub/internal/platform/logger"
	"compliancehub/internal/platform/postgres"
	id "compliancehub/pkg/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "compliancehub: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "compliancehub",
		Short:        "Compliance lifecycle and aggregation service",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newMigrateCmd(),
		newIssueTokenCmd(),
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the notification fan-out and the deadline scanner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides COMPLIANCEHUB_ADDR)")
	return cmd
}

func newScanCmd() *cobra.Command {
	var windowDays int
	cmd := &cobra.Command{
		Use:   "scan-deadlines",
		Short: "Run one deadline scan and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromEnv()
			log := logger.New(cfg.Server.LogLevel)
			if !cmd.Flags().Changed("window-days") {
				windowDays = cfg.Scanner.WindowDays
			}

			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.deriver.ScanDeadlines(ctx, time.Now().UTC(), windowDays)
			if err != nil {
				return err
			}
			if a.publisher != nil {
				if _, err := a.publisher.Flush(ctx); err != nil {
					log.WarnContext(ctx, "notification fan-out incomplete", "pending", a.publisher.Pending(), "error", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d emitted=%d\n", res.Scanned, res.Emitted)
			return nil
		},
	}
	cmd.Flags().IntVar(&windowDays, "window-days", 7, "Deadline window in days")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromEnv()
			db, err := openDatabase(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newIssueTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Print a signed actor token for local development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			cfg := config.FromEnv()
			token, err := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, jwtIssuer, jwtAudience).
				GenerateActorToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Server.LogLevel)

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Server, newRouter(a))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting compliancehub", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.InfoContext(shutdownCtx, "http server stopped")
		return nil
	})
	if a.publisher != nil {
		g.Go(func() error {
			return ignoreCanceled(a.publisher.Run(gctx))
		})
	}
	if cfg.Scanner.Enabled {
		worker := scanner.NewWorker(a.deriver, cfg.Scanner.Interval, cfg.Scanner.WindowDays, scanner.WithLogger(log))
		g.Go(func() error {
			return ignoreCanceled(worker.Run(gctx))
		})
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
