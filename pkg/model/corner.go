package model

type CornerSource string

const (
	SourceBraking  CornerSource = "braking"
	SourceSteering CornerSource = "steering"
)

// Corner is derived from the shape of the reference lap.
// The index is 1-based and only stable while the reference lap is unchanged.
type Corner struct {
	Index            int          `json:"index"`
	Source           CornerSource `json:"source"`
	Start            float64      `json:"start"`
	Apex             float64      `json:"apex"`
	End              float64      `json:"end"`
	Exit             float64      `json:"exit"` // anchor for feedback after the corner
	EntrySpeed       float64      `json:"entrySpeed"`
	ApexSpeed        float64      `json:"apexSpeed"`
	ExitSpeed        float64      `json:"exitSpeed"`
	MinGear          int          `json:"minGear"`
	BrakeOnset       float64      `json:"brakeOnset"`
	HasBrakeOnset    bool         `json:"hasBrakeOnset"`
	ThrottleOnset    float64      `json:"throttleOnset"`
	HasThrottleOnset bool         `json:"hasThrottleOnset"`
}

func (c *Corner) IsBrakingZone() bool {
	return c.Source == SourceBraking
}
