package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/foodrescue/foodrescued/internal/activity"
	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/config"
	"github.com/foodrescue/foodrescued/internal/metrics"
	"github.com/foodrescue/foodrescued/internal/ratelimit"
	"github.com/foodrescue/foodrescued/internal/session"
	"github.com/foodrescue/foodrescued/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FoodRescue dashboard gateway",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// A broken template set must abort startup, not fail on first render.
	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	sessions := session.NewStore(pool, cfg.Session.TTL)
	go pruneSessions(ctx, sessions)

	activityStore := activity.NewStore(pool)
	collector := activity.NewCollector(activityStore, cfg.Activity.BatchSize, cfg.Activity.FlushInterval)
	go collector.Start(ctx)

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	client.SetMetrics(m)

	limiter := ratelimit.New(cfg.Actions.PerMinute, cfg.Actions.Window)

	router := web.NewRouter(web.RouterDeps{
		Backend:  client,
		Sessions: sessions,
		Activity: collector,
		Limiter:  limiter,
		Metrics:  m,
		Renderer: renderer,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	collector.Stop()

	return srv.Shutdown(shutdownCtx)
}

// pruneSessions drops sessions past the TTL cutoff twice a day.
func pruneSessions(ctx context.Context, sessions *session.Store) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Error("session prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned expired sessions", "count", n)
			}
		}
	}
}
