package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rudransh-shrivastava/peer-index/internal/schema"
)

func newTestStore(t *testing.T) *TransferStore {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "peer.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	return NewTransferStore(db)
}

func TestTransferStoreRecord(t *testing.T) {
	ts := newTestStore(t)

	err := ts.Record(&schema.Transfer{
		FileName:   "a.txt",
		RemoteHost: "127.0.0.1",
		RemotePort: 7100,
		Direction:  schema.DirectionDownload,
		Bytes:      1024,
		DurationMs: 12,
		Status:     schema.StatusComplete,
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	transfers, err := ts.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(transfers))
	}
	got := transfers[0]
	if got.FileName != "a.txt" || got.Bytes != 1024 || got.Status != schema.StatusComplete {
		t.Errorf("unexpected transfer: %+v", got)
	}
}

func TestTransferStoreRecentOrderAndLimit(t *testing.T) {
	ts := newTestStore(t)

	names := []string{"first.bin", "second.bin", "third.bin"}
	for _, name := range names {
		if err := ts.Record(&schema.Transfer{
			FileName:  name,
			Direction: schema.DirectionReplicate,
			Status:    schema.StatusComplete,
			CreatedAt: time.Now().Unix(),
		}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	transfers, err := ts.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	if transfers[0].FileName != "third.bin" || transfers[1].FileName != "second.bin" {
		t.Errorf("expected newest first, got %+v", transfers)
	}
}
