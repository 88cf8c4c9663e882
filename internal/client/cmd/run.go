package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/logger"
	"github.com/rudransh-shrivastava/peer-index/internal/peer"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run peer-id",
	Short: "run a peer node",
	Long:  `runs a peer node: serves files from its catalog, registers with the indexing server, and executes replication tasks`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		peerID := args[0]
		log := logger.NewLogger()

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatal(err)
		}

		p, err := peer.New(cfg, peerID, log)
		if err != nil {
			log.Fatal(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := p.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal(err)
		}
		log.Info("Peer shut down")
	},
}
