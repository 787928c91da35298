package model

import "time"

type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// CoachingMessage is a single candidate cue. It is never modified after it
// was handed to the scheduler.
type CoachingMessage struct {
	Text           string    `json:"text"`
	Category       string    `json:"category"`
	Priority       Priority  `json:"priority"`
	AnchorDistance float64   `json:"anchorDistance"`
	ValidRange     float64   `json:"validRange"`
	EnqueueTime    time.Time `json:"enqueueTime"`
	Forced         bool      `json:"forced"`
	Seq            uint64    `json:"seq"`
}

// SpokenMessage is an entry of the speech log shown to displays.
type SpokenMessage struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}
