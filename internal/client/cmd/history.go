package cmd

import (
	"fmt"

	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/logger"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history peer-id",
	Short: "show recent transfers",
	Long:  `lists the peer's most recent downloads and replications, newest first`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		peerID := args[0]
		log := logger.NewLogger()

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatal(err)
		}

		client, err := newClient(cfg, peerID, log)
		if err != nil {
			log.Fatal(err)
		}

		transfers, err := client.Transfers.Recent(historyLimit)
		if err != nil {
			log.Fatal(err)
		}

		if len(transfers) == 0 {
			fmt.Println("No transfers recorded")
			return
		}
		for _, tr := range transfers {
			fmt.Printf("%s\t%s\t%s:%d\t%d bytes\t%dms\t%s\n",
				tr.Status, tr.FileName, tr.RemoteHost, tr.RemotePort, tr.Bytes, tr.DurationMs, tr.Direction)
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max transfers to show")
}
