package peer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rudransh-shrivastava/peer-index/internal/catalog"
	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
	"github.com/rudransh-shrivastava/peer-index/internal/schema"
	"github.com/rudransh-shrivastava/peer-index/internal/store"
	"github.com/sirupsen/logrus"
)

// Client is the peer's client side: it registers with the indexing
// server, searches, executes replication tasks, and pulls files from
// other peers' servers.
type Client struct {
	cfg     *config.Config
	peerID  string
	host    string
	port    int
	catalog *catalog.Catalog
	logger  *logrus.Logger
	codec   *protocol.Codec

	// Transfers, when set, records every completed and failed transfer.
	Transfers *store.TransferStore
	// ShowProgress renders a progress bar during streaming; interactive
	// use only.
	ShowProgress bool
}

func NewClient(cfg *config.Config, peerID, host string, port int, cat *catalog.Catalog, logger *logrus.Logger) *Client {
	return &Client{
		cfg:     cfg,
		peerID:  peerID,
		host:    host,
		port:    port,
		catalog: cat,
		logger:  logger,
		codec:   protocol.NewCodec(),
	}
}

func (c *Client) dialTracker(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.cfg.ServerAddr())
	if err != nil {
		return nil, fmt.Errorf("connecting to indexing server %s: %w", c.cfg.ServerAddr(), err)
	}
	return conn, nil
}

// Register announces the peer's servable files. Replication tasks in
// the response are executed immediately, and a single re-registration
// follows so the index picks up the replicated files. Failed tasks are
// not retried here; the file stays under-replicated until a later
// registration cycle re-evaluates it.
func (c *Client) Register(ctx context.Context) (*protocol.RegisterAck, error) {
	ack, err := c.registerOnce(ctx)
	if err != nil {
		return nil, err
	}

	if len(ack.ReplicationTasks) == 0 {
		return ack, nil
	}

	c.logger.Infof("Performing %d replication task(s)", len(ack.ReplicationTasks))
	if c.ExecuteTasks(ctx, ack.ReplicationTasks) > 0 {
		c.logger.Info("Re-registering after replication to update index")
		return c.registerOnce(ctx)
	}
	return ack, nil
}

func (c *Client) registerOnce(ctx context.Context) (*protocol.RegisterAck, error) {
	files, err := c.catalog.ListServable()
	if err != nil {
		return nil, err
	}

	conn, err := c.dialTracker(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	req := protocol.RegisterRequest{
		PeerID: c.peerID,
		Host:   c.host,
		Port:   c.port,
		Files:  files,
	}
	c.logger.Infof("Registering peer=%s with %s (files=%d)", c.peerID, c.cfg.ServerAddr(), len(files))

	if err := c.codec.Send(conn, protocol.KindRegister, c.peerID, req); err != nil {
		return nil, err
	}
	env, err := c.codec.Expect(conn, protocol.KindRegisterAck)
	if err != nil {
		return nil, err
	}

	var ack protocol.RegisterAck
	if err := env.Decode(&ack); err != nil {
		return nil, err
	}
	if ack.Status != protocol.StatusOK {
		return nil, fmt.Errorf("registration rejected: %s", ack.Reason)
	}
	return &ack, nil
}

// ExecuteTasks runs each replication task and returns how many
// succeeded. Failures are logged and skipped.
func (c *Client) ExecuteTasks(ctx context.Context, tasks []protocol.ReplicationTask) int {
	succeeded := 0
	for _, task := range tasks {
		if _, err := c.Replicate(ctx, task); err != nil {
			c.logger.Warnf("Replication failed for %q from %s: %v", task.FileName, task.SourcePeerID, err)
			continue
		}
		succeeded++
	}
	return succeeded
}

// Search asks the indexing server which peers serve fileName. An
// unknown file yields an empty list.
func (c *Client) Search(ctx context.Context, fileName string) ([]protocol.PeerMatch, error) {
	conn, err := c.dialTracker(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := c.codec.Send(conn, protocol.KindSearch, c.peerID, protocol.SearchRequest{FileName: fileName}); err != nil {
		return nil, err
	}
	env, err := c.codec.Expect(conn, protocol.KindSearchResult)
	if err != nil {
		return nil, err
	}

	var result protocol.SearchResult
	if err := env.Decode(&result); err != nil {
		return nil, err
	}
	if result.Status != protocol.StatusOK {
		return nil, fmt.Errorf("search rejected for %q", fileName)
	}
	c.logger.Infof("Search %q -> %d peer(s)", fileName, len(result.Matches))
	return result.Matches, nil
}

// Download fetches fileName from the given peer into downloaded/,
// overwriting any existing copy.
func (c *Client) Download(ctx context.Context, host string, port int, fileName string) (int64, error) {
	return c.fetch(ctx, host, port, fileName, c.catalog.DownloadedDir(), schema.DirectionDownload)
}

// Replicate executes one server-issued replication task into replicated/.
func (c *Client) Replicate(ctx context.Context, task protocol.ReplicationTask) (int64, error) {
	return c.fetch(ctx, task.SourceHost, task.SourcePort, task.FileName, c.catalog.ReplicatedDir(), schema.DirectionReplicate)
}

// Heartbeat tells the indexing server this peer is still around.
func (c *Client) Heartbeat(ctx context.Context) error {
	conn, err := c.dialTracker(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return c.codec.Send(conn, protocol.KindHeartbeat, c.peerID, protocol.Heartbeat{})
}

func (c *Client) fetch(ctx context.Context, host string, port int, fileName, destDir, direction string) (int64, error) {
	if !catalog.ValidName(fileName) {
		return 0, catalog.ErrInvalidName
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c.logger.Infof("Fetching %q from %s -> %s", fileName, addr, destDir)

	tr := &transfer{
		ctx:      ctx,
		codec:    c.codec,
		peerID:   c.peerID,
		addr:     addr,
		fileName: fileName,
		destDir:  destDir,
		chunk:    c.cfg.ChunkSize,
		progress: c.ShowProgress,
	}

	start := time.Now()
	n, err := tr.run()
	duration := time.Since(start)

	c.record(fileName, host, port, direction, n, duration, err)
	if err != nil {
		return n, err
	}

	c.logger.Infof("Transfer complete: %q %d bytes in %s", fileName, n, duration.Round(time.Millisecond))
	return n, nil
}

func (c *Client) record(fileName, host string, port int, direction string, bytes int64, duration time.Duration, err error) {
	if c.Transfers == nil {
		return
	}

	status := schema.StatusComplete
	if err != nil {
		status = schema.StatusFailed
	}
	rec := &schema.Transfer{
		FileName:   fileName,
		RemoteHost: host,
		RemotePort: port,
		Direction:  direction,
		Bytes:      bytes,
		DurationMs: duration.Milliseconds(),
		Status:     status,
		CreatedAt:  time.Now().Unix(),
	}
	if dbErr := c.Transfers.Record(rec); dbErr != nil {
		c.logger.Warnf("Failed to record transfer: %v", dbErr)
	}
}
