package analytics

type Config struct {
	MasteryWindow     int     `mapstructure:"masteryWindow"`
	ConsistencyWindow int     `mapstructure:"consistencyWindow"`
	ProfileWindow     int     `mapstructure:"profileWindow"`
	ReportEvery       int     `mapstructure:"reportEvery"`
	CornerLead        float64 `mapstructure:"cornerLead"` // measuring starts this far before a corner
	BrakeOn           float64 `mapstructure:"brakeOn"`
	ThrottleOn        float64 `mapstructure:"throttleOn"`
	LossThreshold     float64 `mapstructure:"lossThreshold"` // seconds
	BrakeTolerance    float64 `mapstructure:"brakeTolerance"`
	SpeedTolerance    float64 `mapstructure:"speedTolerance"`
	ThrottleTolerance float64 `mapstructure:"throttleTolerance"`
	TrendThreshold    float64 `mapstructure:"trendThreshold"` // seconds
}

func DefaultConfig() Config {
	return Config{
		MasteryWindow:     12,
		ConsistencyWindow: 10,
		ProfileWindow:     10,
		ReportEvery:       3,
		CornerLead:        50,
		BrakeOn:           0.2,
		ThrottleOn:        0.5,
		LossThreshold:     0.05,
		BrakeTolerance:    10,
		SpeedTolerance:    5,
		ThrottleTolerance: 15,
		TrendThreshold:    0.05,
	}
}
