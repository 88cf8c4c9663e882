package schema

const (
	DirectionDownload  = "download"
	DirectionReplicate = "replicate"

	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Transfer is one completed or failed file transfer recorded by a peer.
type Transfer struct {
	ID         uint `gorm:"primaryKey"`
	FileName   string
	RemoteHost string
	RemotePort int
	Direction  string
	Bytes      int64
	DurationMs int64
	Status     string
	CreatedAt  int64
}
