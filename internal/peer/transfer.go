package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
	"github.com/schollz/progressbar/v3"
)

// overlongProbeWindow is how long the receiver waits for the sender's
// close after the declared byte count has arrived. Data within the
// window fails the transfer as overlong.
const overlongProbeWindow = 2 * time.Second

var (
	ErrSizeMismatch = errors.New("transfer size mismatch")
)

// RemoteError is an error-status FILE_METADATA from the serving peer.
type RemoteError struct {
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote peer refused transfer: %s", e.Reason)
}

type TransferState int

const (
	StateConnecting TransferState = iota
	StateAwaitingMetadata
	StateStreaming
	StateComplete
	StateFailed
)

func (s TransferState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitingMetadata:
		return "AWAITING_METADATA"
	case StateStreaming:
		return "STREAMING"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

type transfer struct {
	ctx      context.Context
	dialer   net.Dialer
	codec    *protocol.Codec
	peerID   string
	addr     string
	fileName string
	destDir  string
	chunk    int
	progress bool
	state    TransferState
}

// run drives one transfer through CONNECTING, AWAITING_METADATA,
// STREAMING, and COMPLETE or FAILED. The body is staged as name.part and
// renamed into place only when the received byte count matches the
// declared size exactly; any failure discards the partial file. No
// retries: callers decide whether to try again on a later cycle.
func (t *transfer) run() (int64, error) {
	t.state = StateConnecting
	conn, err := t.dialer.DialContext(t.ctx, "tcp", t.addr)
	if err != nil {
		t.state = StateFailed
		return 0, fmt.Errorf("connecting to %s: %w", t.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if err := t.codec.Send(conn, protocol.KindFileRequest, t.peerID, protocol.FileRequest{FileName: t.fileName}); err != nil {
		t.state = StateFailed
		return 0, err
	}

	t.state = StateAwaitingMetadata
	env, err := t.codec.Expect(conn, protocol.KindFileMetadata)
	if err != nil {
		t.state = StateFailed
		return 0, err
	}
	var meta protocol.FileMetadata
	if err := env.Decode(&meta); err != nil {
		t.state = StateFailed
		return 0, err
	}
	if meta.Status != protocol.StatusOK {
		t.state = StateFailed
		return 0, &RemoteError{Reason: meta.Reason}
	}
	if meta.SizeBytes < 0 {
		t.state = StateFailed
		return 0, fmt.Errorf("negative declared size %d", meta.SizeBytes)
	}

	t.state = StateStreaming
	n, err := t.stream(conn, meta.SizeBytes)
	if err != nil {
		t.state = StateFailed
		return n, err
	}

	t.state = StateComplete
	return n, nil
}

// stream copies exactly size bytes from conn into destDir/fileName,
// staging through a .part file.
func (t *transfer) stream(conn net.Conn, size int64) (int64, error) {
	partPath := filepath.Join(t.destDir, t.fileName+".part")
	finalPath := filepath.Join(t.destDir, t.fileName)

	dst, err := os.Create(partPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", partPath, err)
	}
	discard := func() {
		_ = dst.Close()
		_ = os.Remove(partPath)
	}

	var w io.Writer = dst
	if t.progress {
		bar := progressbar.DefaultBytes(size, t.fileName)
		w = io.MultiWriter(dst, bar)
	}

	buf := make([]byte, t.chunk)
	n, err := io.CopyBuffer(w, io.LimitReader(conn, size), buf)
	if err != nil {
		discard()
		return n, fmt.Errorf("streaming %s: %w", t.fileName, err)
	}
	if n != size {
		discard()
		return n, fmt.Errorf("%w: declared %d, received %d", ErrSizeMismatch, size, n)
	}

	// The sender closes right after the last byte; anything further on
	// the socket means the transfer is overlong.
	_ = conn.SetReadDeadline(time.Now().Add(overlongProbeWindow))
	var extra [1]byte
	if m, _ := conn.Read(extra[:]); m > 0 {
		discard()
		return n, fmt.Errorf("%w: declared %d, stream continues", ErrSizeMismatch, size)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(partPath)
		return n, fmt.Errorf("closing %s: %w", partPath, err)
	}
	// Overwrites any existing copy.
	if err := os.Rename(partPath, finalPath); err != nil {
		_ = os.Remove(partPath)
		return n, fmt.Errorf("finalizing %s: %w", finalPath, err)
	}
	return n, nil
}
