// Package peer implements a peer node: the file-serving server, the
// client side of the indexing protocol, and the transfer mechanics
// shared by downloads and replication.
package peer

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/rudransh-shrivastava/peer-index/internal/catalog"
	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/store"
	"github.com/sirupsen/logrus"
)

var peerIDSuffix = regexp.MustCompile(`(\d+)$`)

// DerivePort maps a peer id to its listen port: peer1 gets the base
// port, peerN gets base + (N-1). Ids without a numeric suffix get the
// base port.
func DerivePort(basePort int, peerID string) int {
	m := peerIDSuffix.FindStringSubmatch(peerID)
	if m == nil {
		return basePort
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return basePort
	}
	return basePort + n - 1
}

// Peer wires one node together: catalog, server, client, transfer
// history, and the heartbeat loop.
type Peer struct {
	ID      string
	Catalog *catalog.Catalog
	Server  *Server
	Client  *Client

	cfg    *config.Config
	logger *logrus.Logger
}

func New(cfg *config.Config, peerID string, logger *logrus.Logger) (*Peer, error) {
	port := DerivePort(cfg.BasePort, peerID)
	root := filepath.Join(cfg.DataDir, peerID)

	cat, err := catalog.New(root)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.PeerHost, strconv.Itoa(port))
	srv, err := NewServer(peerID, addr, cat, cfg.ChunkSize, logger)
	if err != nil {
		return nil, err
	}

	client := NewClient(cfg, peerID, cfg.PeerHost, port, cat, logger)

	db, err := store.NewDB(filepath.Join(root, "peer.db"))
	if err != nil {
		_ = srv.Shutdown()
		return nil, fmt.Errorf("opening transfer history: %w", err)
	}
	client.Transfers = store.NewTransferStore(db)

	return &Peer{
		ID:      peerID,
		Catalog: cat,
		Server:  srv,
		Client:  client,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Start runs the peer server, registers with the indexing server, and
// keeps sending heartbeats until ctx is cancelled.
func (p *Peer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- p.Server.Start(ctx) }()

	if _, err := p.Client.Register(ctx); err != nil {
		_ = p.Server.Shutdown()
		return fmt.Errorf("initial registration: %w", err)
	}

	interval := time.Duration(p.cfg.HeartbeatSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Infof("Peer %s running", p.ID)
	for {
		select {
		case <-ctx.Done():
			_ = p.Server.Shutdown()
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-ticker.C:
			if err := p.Client.Heartbeat(ctx); err != nil {
				p.logger.Warnf("Heartbeat failed: %v", err)
			}
		}
	}
}
