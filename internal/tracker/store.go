package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
)

// PeerRecord is the registry entry for one peer. Files is the peer's
// current file set as of its latest registration; it is replaced, never
// merged. A record is never removed once created.
type PeerRecord struct {
	ID       string
	Host     string
	Port     int
	Files    map[string]int64
	LastSeen time.Time
}

type fileEntry struct {
	size  int64
	peers map[string]struct{}
}

// Store holds the peer registry and the file index behind one lock.
// Registration, index maintenance, and replication planning happen in a
// single critical section, so the index always equals the union of the
// registered peers' file sets and the coordinator always plans from a
// consistent snapshot. Searches take the read side only.
type Store struct {
	mu                sync.RWMutex
	peers             map[string]*PeerRecord
	files             map[string]*fileEntry
	replicationFactor int
}

func NewStore(replicationFactor int) *Store {
	return &Store{
		peers:             make(map[string]*PeerRecord),
		files:             make(map[string]*fileEntry),
		replicationFactor: replicationFactor,
	}
}

// Register replaces the peer's file set, reconciles the index, and plans
// replication tasks for the registering peer, all atomically. It returns
// the number of files registered and the planned tasks.
func (s *Store) Register(id, host string, port int, files []protocol.FileInfo) (int, []protocol.ReplicationTask) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.peers[id]
	if !exists {
		rec = &PeerRecord{ID: id}
		s.peers[id] = rec
	}
	rec.Host = host
	rec.Port = port
	rec.LastSeen = time.Now()

	next := make(map[string]int64, len(files))
	for _, f := range files {
		next[f.Name] = f.Size
	}

	// Drop index associations for files the peer no longer reports.
	for name := range rec.Files {
		if _, still := next[name]; still {
			continue
		}
		entry := s.files[name]
		if entry == nil {
			continue
		}
		delete(entry.peers, id)
		if len(entry.peers) == 0 {
			delete(s.files, name)
		}
	}

	for name, size := range next {
		entry, ok := s.files[name]
		if !ok {
			entry = &fileEntry{peers: make(map[string]struct{})}
			s.files[name] = entry
		}
		entry.size = size
		entry.peers[id] = struct{}{}
	}
	rec.Files = next

	return len(next), s.planTasks(id)
}

// Heartbeat refreshes the peer's LastSeen. Unknown peers are ignored;
// a heartbeat is not a registration.
func (s *Store) Heartbeat(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.peers[id]
	if !ok {
		return false
	}
	rec.LastSeen = time.Now()
	return true
}

// Search returns the peers serving name, ordered by ascending peer id.
// An unknown file yields an empty slice, not an error.
func (s *Store) Search(name string) []protocol.PeerMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.files[name]
	if !ok {
		return []protocol.PeerMatch{}
	}

	matches := make([]protocol.PeerMatch, 0, len(entry.peers))
	for id := range entry.peers {
		rec := s.peers[id]
		matches = append(matches, protocol.PeerMatch{
			PeerID: rec.ID,
			Host:   rec.Host,
			Port:   rec.Port,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].PeerID < matches[j].PeerID })
	return matches
}

// FileNames returns the indexed file names, sorted.
func (s *Store) FileNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
