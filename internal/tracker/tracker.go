// Package tracker implements the indexing server: the peer registry,
// the file index, the search service, and the replication coordinator.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/rudransh-shrivastava/peer-index/internal/config"
	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
	"github.com/sirupsen/logrus"
)

type Server struct {
	store    *Store
	logger   *logrus.Logger
	codec    *protocol.Codec
	listener net.Listener
}

// NewServer binds the listen socket immediately so Addr is usable before
// Start (tests listen on port 0).
func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.ServerAddr())
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.ServerAddr(), err)
	}

	return &Server{
		store:    NewStore(cfg.ReplicationFactor),
		logger:   logger,
		codec:    protocol.NewCodec(),
		listener: listener,
	}, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down indexing server")
	return s.listener.Close()
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("Indexing server listening on %s", s.Addr())

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

// handleConn serves one peer connection. A protocol error (malformed or
// oversized frame, unknown kind) closes the connection immediately with
// no partial processing.
func (s *Server) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.logger.Debugf("Accepted connection from %s", remote)
	defer func() {
		_ = conn.Close()
		s.logger.Debugf("Closed connection from %s", remote)
	}()

	for {
		env, err := s.codec.Decode(conn)
		if err != nil {
			if err != io.EOF {
				s.logger.Warnf("Receive error from %s: %v", remote, err)
			}
			return
		}

		switch env.Kind {
		case protocol.KindRegister:
			if !s.handleRegister(conn, env) {
				return
			}
		case protocol.KindSearch:
			if !s.handleSearch(conn, env) {
				return
			}
		case protocol.KindHeartbeat:
			s.handleHeartbeat(env)
		default:
			s.logger.Warnf("Unexpected %s from %s, closing", env.Kind, remote)
			return
		}
	}
}

func (s *Server) handleRegister(conn net.Conn, env *protocol.Envelope) bool {
	var req protocol.RegisterRequest
	if err := env.Decode(&req); err != nil {
		s.logger.Warnf("Bad register payload: %v", err)
		return false
	}

	if req.PeerID == "" {
		ack := protocol.RegisterAck{Status: protocol.StatusError, Reason: "missing peer_id"}
		return s.reply(conn, protocol.KindRegisterAck, ack)
	}

	// Fall back to the socket address when the peer did not state where
	// its peer server listens.
	host := req.Host
	if host == "" {
		host, _, _ = net.SplitHostPort(conn.RemoteAddr().String())
	}

	registered, tasks := s.store.Register(req.PeerID, host, req.Port, req.Files)
	s.logger.Infof("Registered peer=%s files=%d addr=%s:%d", req.PeerID, registered, host, req.Port)
	if len(tasks) > 0 {
		s.logger.Infof("Replication suggested for peer=%s: %d task(s)", req.PeerID, len(tasks))
	}

	ack := protocol.RegisterAck{
		Status:           protocol.StatusOK,
		RegisteredFiles:  registered,
		ReplicationTasks: tasks,
	}
	return s.reply(conn, protocol.KindRegisterAck, ack)
}

func (s *Server) handleSearch(conn net.Conn, env *protocol.Envelope) bool {
	var req protocol.SearchRequest
	if err := env.Decode(&req); err != nil {
		s.logger.Warnf("Bad search payload: %v", err)
		return false
	}

	result := protocol.SearchResult{
		Status:   protocol.StatusOK,
		FileName: req.FileName,
		Matches:  s.store.Search(req.FileName),
	}
	if req.FileName == "" {
		result.Status = protocol.StatusError
		result.Matches = []protocol.PeerMatch{}
	}

	s.logger.Infof("Search %q -> %d peer(s)", req.FileName, len(result.Matches))
	return s.reply(conn, protocol.KindSearchResult, result)
}

func (s *Server) handleHeartbeat(env *protocol.Envelope) {
	if s.store.Heartbeat(env.PeerID) {
		s.logger.Debugf("Heartbeat from %s", env.PeerID)
	} else {
		s.logger.Debugf("Heartbeat from unregistered peer %s", env.PeerID)
	}
}

func (s *Server) reply(conn net.Conn, kind protocol.Kind, payload any) bool {
	if err := s.codec.Send(conn, kind, "", payload); err != nil {
		s.logger.Warnf("Send %s error: %v", kind, err)
		return false
	}
	return true
}
