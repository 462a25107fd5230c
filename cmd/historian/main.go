// cmd/historian/main.go drains the table action queue from Redis into PostgreSQL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/eights/internal/cache"
	"github.com/jason-s-yu/eights/internal/config"
	"github.com/jason-s-yu/eights/internal/database"
	"github.com/jason-s-yu/eights/internal/historian"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "historian",
		Short:        "Persist queued table actions and mark idle games abandoned",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
				return errors.New("REDIS_ADDR and DATABASE_URL are required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := cfg.Logger()

			rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()

			store, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}

			svc := historian.NewService(cache.NewPublisher(rdb, cfg.Queue), store, historian.Options{
				BatchSize:     cfg.BatchSize,
				FlushInterval: cfg.FlushInterval,
				Inactivity:    cfg.Inactivity,
			}, logger.WithField("service", "historian"))
			return svc.Run(ctx)
		},
	}
	f := root.Flags()
	f.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	f.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres connection string")
	f.StringVar(&cfg.Queue, "queue", cfg.Queue, "redis list holding action records")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logrus level")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
