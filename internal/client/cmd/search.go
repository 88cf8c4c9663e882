package cmd

import (
	"context"
	"fmt"

	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/logger"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search peer-id file-name",
	Short: "search for a file",
	Long:  `asks the indexing server which peers currently serve the given file`,
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

		matches, err := client.Search(context.Background(), fileName)
		if err != nil {
			log.Fatal(err)
		}

		if len(matches) == 0 {
			fmt.Printf("No peers serve %q\n", fileName)
			return
		}
		for _, m := range matches {
			fmt.Printf("%s\t%s:%d\n", m.PeerID, m.Host, m.Port)
		}
	},
}
