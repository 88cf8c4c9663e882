package tracker

import (
	"sort"

	"github.com/rudransh-shrivastava/peer-index/internal/protocol"
)

// planTasks scans the whole index for files below the replication factor
// and assigns each eligible one to the registering peer: at most one task
// per file, target never already serving, source chosen as the
// lexicographically smallest serving peer id. Files with no serving peer
// are skipped; they stay under-replicated until someone registers them
// directly. The caller must hold s.mu.
func (s *Store) planTasks(target string) []protocol.ReplicationTask {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)

	var tasks []protocol.ReplicationTask
	for _, name := range names {
		entry := s.files[name]
		if len(entry.peers) >= s.replicationFactor {
			continue
		}
		if _, serving := entry.peers[target]; serving {
			continue
		}
		if len(entry.peers) == 0 {
			continue
		}

		source := ""
		for id := range entry.peers {
			if source == "" || id < source {
				source = id
			}
		}
		rec := s.peers[source]

		tasks = append(tasks, protocol.ReplicationTask{
			FileName:     name,
			SourcePeerID: rec.ID,
			SourceHost:   rec.Host,
			SourcePort:   rec.Port,
		})
	}
	return tasks
}
