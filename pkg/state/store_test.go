package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racecoach/pkg/model"
)

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore("sid")
	s.Update(func(snap *model.Snapshot) {
		snap.Distance = 420
		snap.Laps = append(snap.Laps, model.LapEntry{LapNo: 1, LapTime: 90})
		snap.Mastery[1] = model.CornerMastery{Turn: 1, Score: 70}
	})
	got := s.Snapshot()
	got.Laps[0].LapTime = 1
	got.Mastery[1] = model.CornerMastery{}

	again := s.Snapshot()
	assert.Equal(t, 90.0, again.Laps[0].LapTime)
	assert.Equal(t, 70.0, again.Mastery[1].Score)
	assert.Equal(t, uint64(1), again.Version)
	assert.Equal(t, "sid", again.SessionID)
	assert.Equal(t, 420.0, s.Distance())
}

func TestSpeechLog(t *testing.T) {
	s := NewStore("sid")
	now := time.Now()
	for i := range 60 {
		s.Spoken(fmt.Sprintf("msg %d", i), now)
	}
	got := s.Snapshot().SpeechLog
	assert.Len(t, got, speechLogSize)
	assert.Equal(t, "msg 10", got[0].Text)
	assert.Equal(t, "msg 59", got[len(got)-1].Text)
}

func TestConcurrentReaders(t *testing.T) {
	s := NewStore("sid")
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				snap := s.Snapshot()
				_ = snap.Distance
				_ = s.Distance()
			}
		}()
	}
	for i := range 100 {
		s.Update(func(snap *model.Snapshot) { snap.Distance = float64(i) })
	}
	wg.Wait()
	assert.Equal(t, 99.0, s.Distance())
}
