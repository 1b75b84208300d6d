// ABOUTME: In-memory marker sets keyed by map id
// ABOUTME: Saves replace the whole set; loads of unknown ids return an empty set

package mapcache

import (
	"bytes"
	"encoding/json"
	"sync"
)

// MarkerStore holds one ordered marker set per map id. Records are opaque
// JSON and come back byte for byte. Map ids are not checked against the robot.
type MarkerStore struct {
	mu   sync.RWMutex
	sets map[int][]json.RawMessage
}

// NewMarkerStore creates an empty store.
func NewMarkerStore() *MarkerStore {
	return &MarkerStore{sets: make(map[int][]json.RawMessage)}
}

// Save replaces the marker set of mapID with a copy of markers.
func (s *MarkerStore) Save(mapID int, markers []json.RawMessage) {
	stored := cloneRecords(markers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[mapID] = stored
}

// Load returns a copy of the marker set of mapID. found is false, and the
// set empty, when nothing was saved.
func (s *MarkerStore) Load(mapID int) (markers []json.RawMessage, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sets[mapID]
	if !ok {
		return []json.RawMessage{}, false
	}
	return cloneRecords(stored), true
}

// Len returns the number of map ids with a saved set.
func (s *MarkerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}

func cloneRecords(in []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(in))
	for i, rec := range in {
		out[i] = bytes.Clone(rec)
	}
	return out
}
