package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/eights/internal/client"
	"github.com/jason-s-yu/eights/internal/config"
	"github.com/jason-s-yu/eights/internal/console"
	"github.com/jason-s-yu/eights/internal/transport"
	"github.com/spf13/cobra"
)

func newJoinCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "join <host:port | ws://host:port/ws>",
		Short: "Take a seat at somebody else's table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := cfg.Logger()

			dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			var (
				conn transport.LineConn
				err  error
			)
			if cfg.Transport == config.TransportWS {
				conn, err = transport.DialWS(dialCtx, args[0])
			} else {
				conn, err = transport.DialTCP(dialCtx, args[0])
			}
			if err != nil {
				return err
			}
			logger.Infof("connected to %s", conn.RemoteAddr())

			con := console.New(os.Stdout)
			cl := client.New(conn, cfg.Name, con, logger)
			go con.Run(ctx, os.Stdin, cl)
			return cl.Run(ctx)
		},
	}
}
