package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/aivis/internal/server"
)

var (
	serveAddr     string
	serveSchedule bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the run-checks endpoint, project and keyword reports,
site audits, /healthz and /metrics.

With --schedule (or server.schedule_enabled) every project is re-checked
when server.schedule is due.

Example:
  aivis serve --addr :8080
  aivis serve --schedule --store postgres --postgres-url postgres://...`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.address)")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "run scheduled checks")
	_ = viper.BindPFlag("server.address", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.schedule_enabled", serveCmd.Flags().Lookup("schedule"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// A server keeps running with engines down; runs against them record errors.
	if down := a.preflight(ctx); len(down) > 0 {
		a.logger.Warn("starting with unavailable engines", "engines", down)
	}

	srv := server.New(server.Deps{
		Store:    a.store,
		Runner:   a.runner,
		Pipeline: a.pipeline,
		Metrics:  a.metrics,
		Logger:   a.logger,
	})

	if a.cfg.Server.ScheduleEnabled {
		sched := &server.Scheduler{
			Store:  a.store,
			Runner: a.runner,
			Rdb:    a.rdb,
			Spec:   a.cfg.Server.Schedule,
			Logger: a.logger,
		}
		sched.Start(ctx)
		a.logger.Info("scheduler started", "schedule", a.cfg.Server.Schedule)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(a.cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
