package model

import (
	"maps"
	"slices"
)

type SectorColor string

const (
	SectorNone   SectorColor = ""
	SectorPurple SectorColor = "purple"
	SectorGreen  SectorColor = "green"
	SectorYellow SectorColor = "yellow"
)

type LapEntry struct {
	LapNo   int       `json:"lapNo"`
	LapTime float64   `json:"lapTime"`
	Result  LapResult `json:"result"`
	IsBest  bool      `json:"isBest"`
}

// Snapshot is the read-only view on the derived state of a session.
// Consumers always receive a deep copy.
type Snapshot struct {
	SessionID     string                `json:"sessionId"`
	Version       uint64                `json:"version"`
	Active        bool                  `json:"active"`
	LapNo         int                   `json:"lapNo"`
	LapTime       float64               `json:"lapTime"`
	Distance      float64               `json:"distance"`
	Speed         float64               `json:"speed"`
	Gear          int                   `json:"gear"`
	Sector        int                   `json:"sector"`
	Position      Vec2                  `json:"position"`
	LiveDelta     float64               `json:"liveDelta"`
	LapInvalid    bool                  `json:"lapInvalid"`
	SectorColors  [3]SectorColor        `json:"sectorColors"`
	Laps          []LapEntry            `json:"laps"`
	Fastest       *LapEntry             `json:"fastest,omitempty"`
	Corners       []Corner              `json:"corners"`
	TrackOutline  []Vec2                `json:"trackOutline"`
	ReferenceBins []float64             `json:"referenceBins"`
	LiveBins      []float64             `json:"liveBins"`
	BinDeltas     []float64             `json:"binDeltas"`
	LastLapDeltas []float64             `json:"lastLapDeltas"`
	CornerMetrics []CornerMetric        `json:"cornerMetrics"`
	Mastery       map[int]CornerMastery `json:"mastery"`
	Consistency   ConsistencyStats      `json:"consistency"`
	Profile       DriverProfile         `json:"profile"`
	Skills        SkillScores           `json:"skills"`
	Optimal       OptimalLap            `json:"optimal"`
	Report        *SessionReport        `json:"report,omitempty"`
	SpeechLog     []SpokenMessage       `json:"speechLog"`
}

// Clone returns a deep copy
func (s *Snapshot) Clone() Snapshot {
	ret := *s
	ret.Laps = slices.Clone(s.Laps)
	if s.Fastest != nil {
		f := *s.Fastest
		ret.Fastest = &f
	}
	ret.Corners = slices.Clone(s.Corners)
	ret.TrackOutline = slices.Clone(s.TrackOutline)
	ret.ReferenceBins = slices.Clone(s.ReferenceBins)
	ret.LiveBins = slices.Clone(s.LiveBins)
	ret.BinDeltas = slices.Clone(s.BinDeltas)
	ret.LastLapDeltas = slices.Clone(s.LastLapDeltas)
	ret.CornerMetrics = slices.Clone(s.CornerMetrics)
	ret.Mastery = maps.Clone(s.Mastery)
	ret.Consistency = s.Consistency.Clone()
	ret.Profile.Tags = slices.Clone(s.Profile.Tags)
	if s.Report != nil {
		r := s.Report.Clone()
		ret.Report = &r
	}
	ret.SpeechLog = slices.Clone(s.SpeechLog)
	return ret
}

func (c ConsistencyStats) Clone() ConsistencyStats {
	c.CornerTimeStd = maps.Clone(c.CornerTimeStd)
	c.BrakePointStd = maps.Clone(c.BrakePointStd)
	return c
}

func (r *SessionReport) Clone() SessionReport {
	ret := *r
	ret.WorstCorners = slices.Clone(r.WorstCorners)
	if r.MostImproved != nil {
		m := *r.MostImproved
		ret.MostImproved = &m
	}
	ret.PracticeFocus = slices.Clone(r.PracticeFocus)
	ret.ProfileTags = slices.Clone(r.ProfileTags)
	ret.Consistency = r.Consistency.Clone()
	return ret
}
