// Package state holds the derived session state shown to displays.
package state

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mpapenbr/racecoach/pkg/model"
)

const speechLogSize = 50

// Store has a single writer (the ingestion path) and any number of readers.
// Readers always get a deep copy.
type Store struct {
	mu       sync.RWMutex
	snap     model.Snapshot
	distance atomic.Uint64 // float64 bits of the current lap distance
}

func NewStore(sessionID string) *Store {
	return &Store{snap: model.Snapshot{
		SessionID: sessionID,
		Mastery:   map[int]model.CornerMastery{},
	}}
}

// Update applies f to the snapshot and increments the version.
func (s *Store) Update(f func(snap *model.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.snap)
	s.snap.Version++
	s.distance.Store(math.Float64bits(s.snap.Distance))
}

func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Distance returns the current lap distance without locking.
func (s *Store) Distance() float64 {
	return math.Float64frombits(s.distance.Load())
}

// Spoken appends a message to the speech log. Only the latest entries are kept.
func (s *Store) Spoken(text string, at time.Time) {
	s.Update(func(snap *model.Snapshot) {
		snap.SpeechLog = append(snap.SpeechLog, model.SpokenMessage{Text: text, Time: at})
		if n := len(snap.SpeechLog); n > speechLogSize {
			snap.SpeechLog = append([]model.SpokenMessage(nil), snap.SpeechLog[n-speechLogSize:]...)
		}
	})
}
