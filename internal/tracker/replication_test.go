package tracker

import (
	"testing"

	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicationSingleTaskForNewPeer(t *testing.T) {
	s := NewStore(2)

	s.Register("peer1", "127.0.0.1", 7100, []protocol.FileInfo{{Name: "a.txt", Size: 1024}})

	// A second, previously-unassociated peer registers with no files and
	// must receive exactly one task for a.txt sourced from peer1.
	_, tasks := s.Register("peer2", "127.0.0.1", 7101, nil)

	require.Len(t, tasks, 1)
	assert.Equal(t, "a.txt", tasks[0].FileName)
	assert.Equal(t, "peer1", tasks[0].SourcePeerID)
	assert.Equal(t, "127.0.0.1", tasks[0].SourceHost)
	assert.Equal(t, 7100, tasks[0].SourcePort)
}

func TestReplicationNoTaskAtFactor(t *testing.T) {
	s := NewStore(2)

	files := []protocol.FileInfo{{Name: "a.txt", Size: 1024}}
	s.Register("peer1", "127.0.0.1", 7100, files)
	s.Register("peer2", "127.0.0.1", 7101, files)

	// a.txt is already served by two peers; no new task for a third.
	_, tasks := s.Register("peer3", "127.0.0.1", 7102, nil)
	assert.Empty(t, tasks)
}

func TestReplicationNoTaskForServingPeer(t *testing.T) {
	s := NewStore(2)

	files := []protocol.FileInfo{{Name: "a.txt", Size: 1024}}
	s.Register("peer1", "127.0.0.1", 7100, files)

	// peer1 re-registers the same file; it cannot be its own target.
	_, tasks := s.Register("peer1", "127.0.0.1", 7100, files)
	assert.Empty(t, tasks)
}

func TestReplicationSourceIsSmallestPeerID(t *testing.T) {
	s := NewStore(3)

	files := []protocol.FileInfo{{Name: "a.txt", Size: 1024}}
	s.Register("peer2", "127.0.0.1", 7101, files)
	s.Register("peer1", "127.0.0.1", 7100, files)

	_, tasks := s.Register("peer9", "127.0.0.1", 7108, nil)

	require.Len(t, tasks, 1)
	assert.Equal(t, "peer1", tasks[0].SourcePeerID, "tie-break is lexicographically smallest serving peer")
}

func TestReplicationMultipleTasksSortedByFileName(t *testing.T) {
	s := NewStore(2)

	s.Register("peer1", "127.0.0.1", 7100, []protocol.FileInfo{
		{Name: "b.txt", Size: 2},
		{Name: "a.txt", Size: 1},
		{Name: "c.txt", Size: 3},
	})

	_, tasks := s.Register("peer2", "127.0.0.1", 7101, nil)

	require.Len(t, tasks, 3)
	assert.Equal(t, "a.txt", tasks[0].FileName)
	assert.Equal(t, "b.txt", tasks[1].FileName)
	assert.Equal(t, "c.txt", tasks[2].FileName)
	for _, task := range tasks {
		assert.Equal(t, "peer1", task.SourcePeerID)
	}
}

func TestReplicationPartialOverlap(t *testing.T) {
	s := NewStore(2)

	s.Register("peer1", "127.0.0.1", 7100, []protocol.FileInfo{
		{Name: "a.txt", Size: 1},
		{Name: "b.txt", Size: 2},
	})

	// peer2 already serves a.txt, so it is only a target for b.txt.
	_, tasks := s.Register("peer2", "127.0.0.1", 7101, []protocol.FileInfo{{Name: "a.txt", Size: 1}})

	require.Len(t, tasks, 1)
	assert.Equal(t, "b.txt", tasks[0].FileName)
}

func TestReplicationHigherFactor(t *testing.T) {
	s := NewStore(3)

	files := []protocol.FileInfo{{Name: "a.txt", Size: 1024}}
	s.Register("peer1", "127.0.0.1", 7100, files)
	s.Register("peer2", "127.0.0.1", 7101, files)

	// Two serving peers is still below factor 3.
	_, tasks := s.Register("peer3", "127.0.0.1", 7102, nil)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a.txt", tasks[0].FileName)
}

func TestReplicationNoSourceNoTask(t *testing.T) {
	s := NewStore(2)

	// peer1 registers a file then retracts it; the entry disappears, so
	// there is nothing to assign.
	s.Register("peer1", "127.0.0.1", 7100, []protocol.FileInfo{{Name: "a.txt", Size: 1}})
	s.Register("peer1", "127.0.0.1", 7100, nil)

	_, tasks := s.Register("peer2", "127.0.0.1", 7101, nil)
	assert.Empty(t, tasks)
}
