package coach

// cooldown categories
const (
	CategoryBrake    = "brake"
	CategoryGear     = "gear"
	CategoryThrottle = "throttle"
	CategorySpeed    = "speed"
	CategoryPositive = "positive"
	CategoryInvalid  = "invalid"
	CategoryDamage   = "damage"
	CategoryCrash    = "crash"
	CategoryCorner   = "corner"
)

// Config holds the thresholds of the coaching rules.
// Speeds are km/h, distances meters, times seconds.
type Config struct {
	Cooldowns   map[string]float64 `mapstructure:"cooldowns"` // minimum distance between cues of a category
	MinDistance float64            `mapstructure:"minDistance"`

	BrakeWarnFrom      float64 `mapstructure:"brakeWarnFrom"`
	BrakeWarnTo        float64 `mapstructure:"brakeWarnTo"`
	BrakeWarnMargin    float64 `mapstructure:"brakeWarnMargin"` // required speed above the apex speed
	BrakeNowThrottle   float64 `mapstructure:"brakeNowThrottle"`
	BrakeNowBrake      float64 `mapstructure:"brakeNowBrake"`
	GearMargin         int     `mapstructure:"gearMargin"`
	ThrottleRef        float64 `mapstructure:"throttleRef"`
	ThrottleLive       float64 `mapstructure:"throttleLive"`
	ThrottleBrake      float64 `mapstructure:"throttleBrake"`
	SpeedDeficit       float64 `mapstructure:"speedDeficit"`
	SpeedGain          float64 `mapstructure:"speedGain"`
	SpeedCeiling       float64 `mapstructure:"speedCeiling"`
	CornerLead         float64 `mapstructure:"cornerLead"`
	CornerBrake        float64 `mapstructure:"cornerBrake"`
	CornerThrottle     float64 `mapstructure:"cornerThrottle"`
	BrakeTolerance     float64 `mapstructure:"brakeTolerance"`
	SpeedTolerance     float64 `mapstructure:"speedTolerance"`
	ThrottleTolerance  float64 `mapstructure:"throttleTolerance"`
	CloseLap           float64 `mapstructure:"closeLap"`
	OkLap              float64 `mapstructure:"okLap"`
	DeltaCallout       float64 `mapstructure:"deltaCallout"`
	DefaultValidRange  float64 `mapstructure:"defaultValidRange"`
	FeedbackValidRange float64 `mapstructure:"feedbackValidRange"`
}

func DefaultCooldowns() map[string]float64 {
	return map[string]float64{
		CategoryBrake:    120,
		CategoryGear:     80,
		CategoryThrottle: 150,
		CategorySpeed:    200,
		CategoryPositive: 300,
		CategoryInvalid:  300,
		CategoryDamage:   500,
		CategoryCrash:    200,
		CategoryCorner:   200,
	}
}

func DefaultConfig() Config {
	return Config{
		Cooldowns:          DefaultCooldowns(),
		MinDistance:        50,
		BrakeWarnFrom:      80,
		BrakeWarnTo:        120,
		BrakeWarnMargin:    60,
		BrakeNowThrottle:   0.3,
		BrakeNowBrake:      0.2,
		GearMargin:         1,
		ThrottleRef:        0.8,
		ThrottleLive:       0.3,
		ThrottleBrake:      0.1,
		SpeedDeficit:       15,
		SpeedGain:          10,
		SpeedCeiling:       200,
		CornerLead:         50,
		CornerBrake:        0.2,
		CornerThrottle:     0.5,
		BrakeTolerance:     10,
		SpeedTolerance:     5,
		ThrottleTolerance:  15,
		CloseLap:           0.5,
		OkLap:              2.0,
		DeltaCallout:       0.1,
		DefaultValidRange:  200,
		FeedbackValidRange: 150,
	}
}
