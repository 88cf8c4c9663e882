package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrEmptyFrame    = errors.New("empty frame")
	ErrUnknownKind   = errors.New("unknown message kind")
)

// Codec reads and writes envelopes framed by a big-endian uint32 byte
// count. Frame boundaries are unambiguous over a byte stream, so a raw
// file payload can follow the last frame on a connection.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

func (c *Codec) Encode(w io.Writer, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("writing frame length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func (c *Codec) Decode(r io.Reader) (*Envelope, error) {
	var msgLen uint32
	if err := binary.Read(r, binary.BigEndian, &msgLen); err != nil {
		return nil, err
	}
	if msgLen == 0 {
		return nil, ErrEmptyFrame
	}
	if msgLen > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if !env.Kind.Valid() {
		return nil, ErrUnknownKind
	}
	return &env, nil
}

// Send builds an envelope around payload and writes it to w.
func (c *Codec) Send(w io.Writer, kind Kind, peerID string, payload any) error {
	env, err := NewEnvelope(kind, peerID, payload)
	if err != nil {
		return err
	}
	return c.Encode(w, env)
}

// Expect decodes one envelope and verifies its kind.
func (c *Codec) Expect(r io.Reader, kind Kind) (*Envelope, error) {
	env, err := c.Decode(r)
	if err != nil {
		return nil, err
	}
	if env.Kind != kind {
		return nil, fmt.Errorf("expected %s, got %s", kind, env.Kind)
	}
	return env, nil
}
