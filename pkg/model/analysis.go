package model

import "time"

type CornerCause string

const (
	CauseBrakeEarlier    CornerCause = "brake earlier"
	CauseExitSpeedLow    CornerCause = "exit speed low"
	CauseOverSlowedApex  CornerCause = "over-slowed apex"
	CauseCarryEntrySpeed CornerCause = "carry entry speed"
	CauseThrottleLate    CornerCause = "throttle late"
	CauseClean           CornerCause = "clean"
)

// CornerMetric describes how one lap drove one corner compared to the
// reference lap. Deltas are live minus reference.
type CornerMetric struct {
	Turn             int         `json:"turn"`
	LapNo            int         `json:"lapNo"`
	EntrySpeed       float64     `json:"entrySpeed"`
	ApexSpeed        float64     `json:"apexSpeed"`
	ExitSpeed        float64     `json:"exitSpeed"`
	ApexDistance     float64     `json:"apexDistance"`
	BrakeOnset       float64     `json:"brakeOnset"`
	HasBrakeOnset    bool        `json:"hasBrakeOnset"`
	ThrottleOnset    float64     `json:"throttleOnset"`
	HasThrottleOnset bool        `json:"hasThrottleOnset"`
	Elapsed          float64     `json:"elapsed"`
	TimeDelta        float64     `json:"timeDelta"`
	EntrySpeedDelta  float64     `json:"entrySpeedDelta"`
	ApexSpeedDelta   float64     `json:"apexSpeedDelta"`
	ExitSpeedDelta   float64     `json:"exitSpeedDelta"`
	ApexDistDelta    float64     `json:"apexDistDelta"`
	BrakeOnsetDelta  float64     `json:"brakeOnsetDelta"`
	ThrottleDelta    float64     `json:"throttleDelta"`
	Cause            CornerCause `json:"cause"`
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

type CornerMastery struct {
	Turn             int         `json:"turn"`
	Laps             int         `json:"laps"`
	MeanDelta        float64     `json:"meanDelta"`
	StdDelta         float64     `json:"stdDelta"`
	MeanBrakeDelta   float64     `json:"meanBrakeDelta"`
	MeanApexDelta    float64     `json:"meanApexDelta"`
	PaceScore        float64     `json:"paceScore"`
	ConsistencyScore float64     `json:"consistencyScore"`
	Score            float64     `json:"score"`
	Trend            Trend       `json:"trend"`
	Improvement      float64     `json:"improvement"` // first half mean - second half mean
	DominantCause    CornerCause `json:"dominantCause"`
}

type ConsistencyStats struct {
	Laps          int             `json:"laps"`
	LapTimeStd    float64         `json:"lapTimeStd"`
	LapTimeMean   float64         `json:"lapTimeMean"`
	SectorStd     [3]float64      `json:"sectorStd"`
	CornerTimeStd map[int]float64 `json:"cornerTimeStd"`
	BrakePointStd map[int]float64 `json:"brakePointStd"`
	MeanBrakeStd  float64         `json:"meanBrakeStd"`
	MeanCornerStd float64         `json:"meanCornerStd"`
	OverallScore  float64         `json:"overallScore"`
}

type DriverProfile struct {
	Tags         []string `json:"tags"`
	Laps         int      `json:"laps"`
	PeakBrake    float64  `json:"peakBrake"`
	BrakeRate    float64  `json:"brakeRate"`    // pedal units per second
	ThrottleJerk float64  `json:"throttleJerk"` // pedal units per second
	SteeringRate float64  `json:"steeringRate"` // steering units per second
}

type SkillScores struct {
	BrakingPrecision   float64 `json:"brakingPrecision"`
	ThrottleSmoothness float64 `json:"throttleSmoothness"`
	CornerExit         float64 `json:"cornerExit"`
	Consistency        float64 `json:"consistency"`
	LineAdherence      float64 `json:"lineAdherence"`
}

// Named returns the scores in a fixed order together with their display names.
func (s SkillScores) Named() []NamedScore {
	return []NamedScore{
		{Name: "braking precision", Score: s.BrakingPrecision},
		{Name: "throttle smoothness", Score: s.ThrottleSmoothness},
		{Name: "corner exit", Score: s.CornerExit},
		{Name: "consistency", Score: s.Consistency},
		{Name: "line adherence", Score: s.LineAdherence},
	}
}

type NamedScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type OptimalLap struct {
	ReferenceTime float64    `json:"referenceTime"`
	BestSectors   [3]float64 `json:"bestSectors"`
	SectorOptimal float64    `json:"sectorOptimal"`
	SectorGain    float64    `json:"sectorGain"`
	BinOptimal    float64    `json:"binOptimal"`
	BinGain       float64    `json:"binGain"`
}

type CornerLoss struct {
	Turn      int         `json:"turn"`
	MeanDelta float64     `json:"meanDelta"`
	Cause     CornerCause `json:"cause"`
}

type SessionReport struct {
	GeneratedAt   time.Time        `json:"generatedAt"`
	LapsAnalyzed  int              `json:"lapsAnalyzed"`
	Final         bool             `json:"final"`
	WorstCorners  []CornerLoss     `json:"worstCorners"`
	MostImproved  *CornerLoss      `json:"mostImproved,omitempty"`
	Improvement   float64          `json:"improvement"`
	BestSkillArea string           `json:"bestSkillArea"`
	PracticeFocus []string         `json:"practiceFocus"`
	ProfileTags   []string         `json:"profileTags"`
	Skills        SkillScores      `json:"skills"`
	Consistency   ConsistencyStats `json:"consistency"`
	Optimal       OptimalLap       `json:"optimal"`
}
