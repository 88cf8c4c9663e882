package cmd

import (
	"context"
	"fmt"

	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/logger"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download peer-id file-name",
	Short: "download a file",
	Long:  `searches the indexing server for the file and downloads it from the first serving peer into downloaded/`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		peerID, fileName := args[0], args[1]
		log := logger.NewLogger()

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatal(err)
		}

		client, err := newClient(cfg, peerID, log)
		if err != nil {
			log.Fatal(err)
		}
		client.ShowProgress = true

		ctx := context.Background()
		matches, err := client.Search(ctx, fileName)
		if err != nil {
			log.Fatal(err)
		}
		if len(matches) == 0 {
			log.Fatalf("No peers serve %q", fileName)
		}

		source := matches[0]
		n, err := client.Download(ctx, source.Host, source.Port, fileName)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Downloaded %q (%d bytes) from %s\n", fileName, n, source.PeerID)
	},
}
