package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/rudransh-shrivastava/peer-index/internal/catalog"
	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Server streams catalog files to other peers. Each connection carries
// exactly one FILE_REQUEST, one FILE_METADATA reply, and (on success)
// the raw file bytes, then closes.
type Server struct {
	peerID    string
	catalog   *catalog.Catalog
	chunkSize int
	logger    *logrus.Logger
	codec     *protocol.Codec
	listener  net.Listener
}

func NewServer(peerID, addr string, cat *catalog.Catalog, chunkSize int, logger *logrus.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	return &Server{
		peerID:    peerID,
		catalog:   cat,
		chunkSize: chunkSize,
		logger:    logger,
		codec:     protocol.NewCodec(),
		listener:  listener,
	}, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Shutdown() error {
	s.logger.Infof("Shutting down peer server %s", s.peerID)
	return s.listener.Close()
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("Peer server %s listening on %s", s.peerID, s.Addr())

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warnf("Accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer func() { _ = conn.Close() }()

	env, err := s.codec.Expect(conn, protocol.KindFileRequest)
	if err != nil {
		s.logger.Warnf("Receive error from %s: %v", remote, err)
		return
	}
	var req protocol.FileRequest
	if err := env.Decode(&req); err != nil {
		s.logger.Warnf("Bad file request from %s: %v", remote, err)
		return
	}

	f, size, err := s.catalog.Open(req.FileName)
	if err != nil {
		reason := "file_not_found"
		if errors.Is(err, catalog.ErrInvalidName) {
			reason = "invalid_file_name"
		}
		s.logger.Infof("Rejecting request for %q from %s: %s", req.FileName, remote, reason)
		meta := protocol.FileMetadata{Status: protocol.StatusError, Reason: reason}
		if err := s.codec.Send(conn, protocol.KindFileMetadata, s.peerID, meta); err != nil {
			s.logger.Warnf("Send metadata error to %s: %v", remote, err)
		}
		return
	}
	defer func() { _ = f.Close() }()

	meta := protocol.FileMetadata{Status: protocol.StatusOK, SizeBytes: size}
	if err := s.codec.Send(conn, protocol.KindFileMetadata, s.peerID, meta); err != nil {
		s.logger.Warnf("Send metadata error to %s: %v", remote, err)
		return
	}

	// Stream exactly size bytes in fixed-size chunks; memory stays
	// O(chunk size) regardless of file size.
	buf := make([]byte, s.chunkSize)
	n, err := io.CopyBuffer(conn, io.LimitReader(f, size), buf)
	if err != nil {
		s.logger.Warnf("Transfer error to %s after %d bytes: %v", remote, n, err)
		return
	}
	s.logger.Infof("Completed transfer %q to %s (%d bytes)", req.FileName, remote, n)
}
