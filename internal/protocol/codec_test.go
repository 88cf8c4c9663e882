package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		name    string
		kind    Kind
		peerID  string
		payload any
	}{
		{
			name:   "register",
			kind:   KindRegister,
			peerID: "peer1",
			payload: RegisterRequest{
				PeerID: "peer1",
				Host:   "127.0.0.1",
				Port:   7100,
				Files: []FileInfo{
					{Name: "a.txt", Size: 1024},
					{Name: "b.bin", Size: 0},
				},
			},
		},
		{
			name:   "register ack with tasks",
			kind:   KindRegisterAck,
			peerID: "",
			payload: RegisterAck{
				Status:          StatusOK,
				RegisteredFiles: 2,
				ReplicationTasks: []ReplicationTask{
					{FileName: "a.txt", SourcePeerID: "peer1", SourceHost: "127.0.0.1", SourcePort: 7100},
				},
			},
		},
		{
			name:    "search",
			kind:    KindSearch,
			peerID:  "peer2",
			payload: SearchRequest{FileName: "a.txt"},
		},
		{
			name:    "file metadata error",
			kind:    KindFileMetadata,
			peerID:  "peer1",
			payload: FileMetadata{Status: StatusError, Reason: "file_not_found"},
		},
		{
			name:    "heartbeat",
			kind:    KindHeartbeat,
			peerID:  "peer3",
			payload: Heartbeat{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := codec.Send(&buf, tt.kind, tt.peerID, tt.payload); err != nil {
				t.Fatalf("Send failed: %v", err)
			}

			env, err := codec.Decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if env.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, env.Kind)
			}
			if env.PeerID != tt.peerID {
				t.Errorf("expected peer id %q, got %q", tt.peerID, env.PeerID)
			}
			if env.Version != Version {
				t.Errorf("expected version %q, got %q", Version, env.Version)
			}
			if env.RequestID == "" {
				t.Error("expected non-empty request id")
			}
		})
	}
}

func TestCodecRegisterPayload(t *testing.T) {
	codec := NewCodec()
	var buf bytes.Buffer

	want := RegisterRequest{
		PeerID: "peer7",
		Host:   "10.0.0.7",
		Port:   7106,
		Files:  []FileInfo{{Name: "peer7_kb_0001.txt", Size: 1024}},
	}
	if err := codec.Send(&buf, KindRegister, "peer7", want); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	env, err := codec.Expect(&buf, KindRegister)
	if err != nil {
		t.Fatalf("Expect failed: %v", err)
	}

	var got RegisterRequest
	if err := env.Decode(&got); err != nil {
		t.Fatalf("Decode payload failed: %v", err)
	}
	if got.PeerID != want.PeerID || got.Host != want.Host || got.Port != want.Port {
		t.Errorf("payload mismatch: got %+v, want %+v", got, want)
	}
	if len(got.Files) != 1 || got.Files[0] != want.Files[0] {
		t.Errorf("files mismatch: got %+v", got.Files)
	}
}

func TestCodecExpectKindMismatch(t *testing.T) {
	codec := NewCodec()
	var buf bytes.Buffer

	if err := codec.Send(&buf, KindSearch, "peer1", SearchRequest{FileName: "x"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := codec.Expect(&buf, KindSearchResult); err == nil {
		t.Error("expected kind mismatch error")
	}
}

func TestCodecOversizedFrame(t *testing.T) {
	codec := NewCodec()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(MaxFrameSize+1)); err != nil {
		t.Fatalf("writing length: %v", err)
	}

	_, err := codec.Decode(&buf)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestCodecEmptyFrame(t *testing.T) {
	codec := NewCodec()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(0)); err != nil {
		t.Fatalf("writing length: %v", err)
	}

	_, err := codec.Decode(&buf)
	if !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestCodecTruncatedFrame(t *testing.T) {
	codec := NewCodec()

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(64)); err != nil {
		t.Fatalf("writing length: %v", err)
	}
	buf.WriteString("{\"type\":") // fewer bytes than declared

	if _, err := codec.Decode(&buf); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestCodecUnknownKind(t *testing.T) {
	codec := NewCodec()

	body := []byte(`{"type":"EXPLODE","timestamp":0,"version":"1.0","payload":{}}`)
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(body))); err != nil {
		t.Fatalf("writing length: %v", err)
	}
	buf.Write(body)

	_, err := codec.Decode(&buf)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestCodecDecodeEOF(t *testing.T) {
	codec := NewCodec()
	if _, err := codec.Decode(bytes.NewReader(nil)); err != io.EOF {
		t.Errorf("expected io.EOF on empty stream, got %v", err)
	}
}

func TestKindValid(t *testing.T) {
	tests := []struct {
		kind  Kind
		valid bool
	}{
		{KindRegister, true},
		{KindRegisterAck, true},
		{KindSearch, true},
		{KindSearchResult, true},
		{KindFileRequest, true},
		{KindFileMetadata, true},
		{KindHeartbeat, true},
		{Kind("DOWNLOAD"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.valid {
			t.Errorf("Kind(%q).Valid() = %v, want %v", tt.kind, got, tt.valid)
		}
	}

	if Kind("whatever").String() != "UNKNOWN" {
		t.Error("expected UNKNOWN for invalid kind")
	}
}
