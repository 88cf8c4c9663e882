package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps every message on the wire. The payload is one of the
// typed structs below, selected by Kind.
type Envelope struct {
	Kind      Kind            `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Version   string          `json:"version"`
	PeerID    string          `json:"peer_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

func NewEnvelope(kind Kind, peerID string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", kind, err)
	}
	return &Envelope{
		Kind:      kind,
		Timestamp: time.Now().UnixMilli(),
		Version:   Version,
		PeerID:    peerID,
		RequestID: uuid.NewString(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the envelope payload into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Kind, err)
	}
	return nil
}

// FileInfo describes one shareable file in a registration.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type RegisterRequest struct {
	PeerID string     `json:"peer_id"`
	Host   string     `json:"host"`
	Port   int        `json:"port"`
	Files  []FileInfo `json:"files"`
}

// ReplicationTask instructs the registering peer to fetch one file from
// a peer that currently serves it.
type ReplicationTask struct {
	FileName     string `json:"file_name"`
	SourcePeerID string `json:"source_peer_id"`
	SourceHost   string `json:"source_host"`
	SourcePort   int    `json:"source_port"`
}

type RegisterAck struct {
	Status           string            `json:"status"`
	Reason           string            `json:"reason,omitempty"`
	RegisteredFiles  int               `json:"registered_files"`
	ReplicationTasks []ReplicationTask `json:"replication_tasks,omitempty"`
}

type SearchRequest struct {
	FileName string `json:"file_name"`
}

type PeerMatch struct {
	PeerID string `json:"peer_id"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

type SearchResult struct {
	Status   string      `json:"status"`
	FileName string      `json:"file_name"`
	Matches  []PeerMatch `json:"matches"`
}

type FileRequest struct {
	FileName string `json:"file_name"`
}

// FileMetadata precedes the raw byte stream on a transfer connection.
// When Status is "ok" exactly SizeBytes bytes follow and the connection
// carries nothing else.
type FileMetadata struct {
	Status    string `json:"status"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type Heartbeat struct{}
