package protocol

const (
	// Version is carried in every envelope.
	Version = "1.0"

	// MaxFrameSize bounds a single length-prefixed frame. Anything larger
	// is a protocol error; file bytes travel outside frames.
	MaxFrameSize = 4 << 20

	DefaultChunkSize = 8192
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Kind string

const (
	KindRegister     Kind = "REGISTER"
	KindRegisterAck  Kind = "REGISTER_ACK"
	KindSearch       Kind = "SEARCH"
	KindSearchResult Kind = "SEARCH_RESULT"
	KindFileRequest  Kind = "FILE_REQUEST"
	KindFileMetadata Kind = "FILE_METADATA"
	KindHeartbeat    Kind = "HEARTBEAT"
)

func (k Kind) Valid() bool {
	switch k {
	case KindRegister, KindRegisterAck, KindSearch, KindSearchResult,
		KindFileRequest, KindFileMetadata, KindHeartbeat:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return string(k)
}
