package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/eights/internal/cache"
	"github.com/jason-s-yu/eights/internal/client"
	"github.com/jason-s-yu/eights/internal/config"
	"github.com/jason-s-yu/eights/internal/console"
	"github.com/jason-s-yu/eights/internal/database"
	"github.com/jason-s-yu/eights/internal/game"
	"github.com/jason-s-yu/eights/internal/metrics"
	"github.com/jason-s-yu/eights/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newHostCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Open a table, take a seat, and wait for remote players",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runHost(ctx, cfg, cfg.Logger())
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	f.IntVar(&cfg.Seats, "seats", cfg.Seats, "total seats; empty seats are played by the computer")
	f.IntVar(&cfg.Remote, "remote", cfg.Remote, "number of remote players to wait for")
	f.BoolVar(&cfg.LocalSeat, "local-seat", cfg.LocalSeat, "take a seat at your own table")
	f.IntVar(&cfg.MaxScore, "max-score", cfg.MaxScore, "the game ends once a score reaches this")
	f.BoolVar(&cfg.ReverseOnAce, "reverse-on-ace", cfg.ReverseOnAce, "house rule: an ACE reverses play")
	f.BoolVar(&cfg.SkipOnQueen, "skip-on-queen", cfg.SkipOnQueen, "house rule: a QUEEN skips the next seat")
	f.DurationVar(&cfg.AIDelay, "ai-delay", cfg.AIDelay, "pause before each computer turn")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve runtime metrics on this address")
	return cmd
}

func runHost(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	var tableOpts []server.TableOption

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		tableOpts = append(tableOpts, server.WithGameOptions(game.WithPublisher(cache.NewPublisher(rdb, cfg.Queue))))
		logger.Infof("publishing actions to redis %s, queue %s", cfg.RedisAddr, cfg.Queue)
	}
	if cfg.DatabaseURL != "" {
		store, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		tableOpts = append(tableOpts, server.WithResults(store))
	}
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Errorf("metrics: %v", err)
			}
		}()
	}

	table, err := server.NewTable(server.TableConfig{
		Seats:   cfg.Seats,
		Humans:  cfg.Humans(),
		Rules:   cfg.Rules(),
		AIDelay: cfg.AIDelay,
	}, logger, tableOpts...)
	if err != nil {
		return err
	}
	srv := server.New(table, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go table.Run(ctx)

	if cfg.LocalSeat {
		conn, err := srv.AttachLocal(ctx)
		if err != nil {
			return err
		}
		con := console.New(os.Stdout)
		cl := client.New(conn, cfg.Name, con, logger)
		go cl.Run(ctx)
		go con.Run(ctx, os.Stdin, cl)
	}

	if cfg.Remote > 0 {
		switch cfg.Transport {
		case config.TransportWS:
			go func() {
				if err := srv.ServeWS(ctx, cfg.Addr); err != nil {
					logger.Errorf("websocket server: %v", err)
					cancel()
				}
			}()
		default:
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.ServeTCP(ctx, ln, cfg.Remote); err != nil {
					logger.Errorf("accept loop: %v", err)
					cancel()
				}
			}()
		}
	}

	select {
	case <-table.Done():
	case <-ctx.Done():
		<-table.Done()
	}
	logger.Info("table closed")
	return nil
}
