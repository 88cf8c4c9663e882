package cmd

import (
	"path/filepath"

	"github.com/rudransh-shrivastava/peer-index/internal/catalog"
	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/peer"
	"github.com/rudransh-shrivastava/peer-index/internal/store"
	"github.com/sirupsen/logrus"
)

// newClient builds a one-shot client for CLI commands that talk to the
// network without running the peer server.
func newClient(cfg *config.Config, peerID string, log *logrus.Logger) (*peer.Client, error) {
	root := filepath.Join(cfg.DataDir, peerID)

	cat, err := catalog.New(root)
	if err != nil {
		return nil, err
	}

	port := peer.DerivePort(cfg.BasePort, peerID)
	client := peer.NewClient(cfg, peerID, cfg.PeerHost, port, cat, log)

	db, err := store.NewDB(filepath.Join(root, "peer.db"))
	if err != nil {
		return nil, err
	}
	client.Transfers = store.NewTransferStore(db)

	return client, nil
}
