// cmd/eights/main.go
package main

import (
	"fmt"
	"os"

	"github.com/jason-s-yu/eights/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "eights",
		Short:        "Crazy Eights for two to four seats over the network",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logrus level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.Transport, "transport", cfg.Transport, "tcp or ws")
	root.PersistentFlags().StringVar(&cfg.Name, "name", cfg.Name, "your player name")

	root.AddCommand(newHostCmd(cfg), newJoinCmd(cfg))
	return root
}
