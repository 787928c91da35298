package model

type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Damage holds component wear in percent (0..100)
type Damage struct {
	FrontLeftWing  float64 `json:"frontLeftWing"`
	FrontRightWing float64 `json:"frontRightWing"`
	RearWing       float64 `json:"rearWing"`
	Floor          float64 `json:"floor"`
}

// TelemetrySample is one decoded update of the player car.
// Missing values are expected to be zero, nothing is mandatory.
type TelemetrySample struct {
	SessionTime    float64 `json:"sessionTime"`
	Distance       float64 `json:"lapDistance"`
	LapTime        float64 `json:"currentLapTime"`
	LastLapTime    float64 `json:"lastLapTime"`
	Speed          float64 `json:"speed"`
	Throttle       float64 `json:"throttle"`
	Brake          float64 `json:"brake"`
	Gear           int     `json:"gear"`
	Steer          float64 `json:"steer"`
	HasSteer       bool    `json:"hasSteer"`
	Position       Vec2    `json:"position"`
	HasPosition    bool    `json:"hasPosition"`
	LapNo          int     `json:"lapNum"`
	Sector         int     `json:"sector"`      // 0-based
	Sector1Time    float64 `json:"sector1Time"`
	Sector2Time    float64 `json:"sector2Time"` // cumulative
	LapInvalid     bool    `json:"lapInvalid"`
	Warnings       int     `json:"warnings"`
	CornerWarnings int     `json:"cornerWarnings"`
	Penalties      int     `json:"penalties"`
	Damage         *Damage `json:"damage,omitempty"`
}

// Clamp returns a copy with pedal and steering inputs forced into their ranges
// and negative timing values reset to zero.
func (s TelemetrySample) Clamp() TelemetrySample {
	s.Throttle = clamp(s.Throttle, 0, 1)
	s.Brake = clamp(s.Brake, 0, 1)
	s.Steer = clamp(s.Steer, -1, 1)
	if s.Speed < 0 {
		s.Speed = 0
	}
	if s.LapTime < 0 {
		s.LapTime = 0
	}
	if s.LastLapTime < 0 {
		s.LastLapTime = 0
	}
	if s.Sector < 0 || s.Sector > 2 {
		s.Sector = 0
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type SessionEventKind int

const (
	EventCollisionCar SessionEventKind = iota + 1
	EventCollisionEnv
	EventSessionEnd
)

// SessionEvent is a discrete event reported besides the sample stream.
type SessionEvent struct {
	Kind SessionEventKind `json:"kind"`
}
