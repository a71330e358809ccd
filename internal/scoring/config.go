package scoring

import "time"

// Category identifies one risk-data source.
type Category string

const (
	CategoryCrime         Category = "crime"
	CategoryTimeOfDay     Category = "time_of_day"
	CategoryLocation      Category = "location_safety"
	CategoryEnvironmental Category = "environmental"
	CategoryBehavioral    Category = "behavioral"
	CategoryNetwork       Category = "network"
)

// AllCategories is the fixed source universe; confidence is always computed
// against this total, not against the enabled subset.
var AllCategories = []Category{
	CategoryCrime,
	CategoryTimeOfDay,
	CategoryLocation,
	CategoryEnvironmental,
	CategoryBehavioral,
	CategoryNetwork,
}

// Config controls which sources run, how they are weighted and how often a
// fresh pass is computed.
type Config struct {
	EnableCrime         bool `json:"enableCrime"`
	EnableTimeOfDay     bool `json:"enableTimeOfDay"`
	EnableLocation      bool `json:"enableLocation"`
	EnableEnvironmental bool `json:"enableEnvironmental"`
	EnableBehavioral    bool `json:"enableBehavioral"`
	EnableNetwork       bool `json:"enableNetwork"`

	// Weights per category; unset entries fall back to the defaults below.
	Weights map[Category]float64 `json:"weights,omitempty"`

	// UpdateInterval is how long a cached result stays fresh.
	UpdateInterval time.Duration `json:"updateInterval"`

	// FanoutTimeout bounds the combined source fetches so a slow provider
	// cannot stall an analysis pass.
	FanoutTimeout time.Duration `json:"fanoutTimeout"`

	// UserSensitivity multiplies the final score; clamped to [0.5, 1.5].
	UserSensitivity float64 `json:"userSensitivity"`

	// Smoothing is the exponential weight given to the newest score when a
	// previous result exists. 1 disables smoothing.
	Smoothing float64 `json:"smoothing"`

	// HistorySize bounds the retained result history.
	HistorySize int `json:"historySize"`
}

var defaultWeights = map[Category]float64{
	CategoryCrime:         0.35,
	CategoryTimeOfDay:     0.15,
	CategoryLocation:      0.20,
	CategoryEnvironmental: 0.10,
	CategoryBehavioral:    0.10,
	CategoryNetwork:       0.10,
}

// DefaultConfig enables every source with the stock weights.
func DefaultConfig() Config {
	return Config{
		EnableCrime:         true,
		EnableTimeOfDay:     true,
		EnableLocation:      true,
		EnableEnvironmental: true,
		EnableBehavioral:    true,
		EnableNetwork:       true,
		UpdateInterval:      60 * time.Second,
		FanoutTimeout:       400 * time.Millisecond,
		UserSensitivity:     1.0,
		Smoothing:           0.6,
		HistorySize:         100,
	}
}

func (c Config) normalized() Config {
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = 60 * time.Second
	}
	if c.FanoutTimeout <= 0 {
		c.FanoutTimeout = 400 * time.Millisecond
	}
	if c.UserSensitivity < 0.5 {
		c.UserSensitivity = 0.5
	}
	if c.UserSensitivity > 1.5 {
		c.UserSensitivity = 1.5
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		c.Smoothing = 1
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 100
	}
	return c
}

// Enabled reports whether the category's source should run.
func (c Config) Enabled(cat Category) bool {
	switch cat {
	case CategoryCrime:
		return c.EnableCrime
	case CategoryTimeOfDay:
		return c.EnableTimeOfDay
	case CategoryLocation:
		return c.EnableLocation
	case CategoryEnvironmental:
		return c.EnableEnvironmental
	case CategoryBehavioral:
		return c.EnableBehavioral
	case CategoryNetwork:
		return c.EnableNetwork
	}
	return false
}

// Weight returns the configured weight for the category.
func (c Config) Weight(cat Category) float64 {
	if w, ok := c.Weights[cat]; ok && w > 0 {
		return w
	}
	return defaultWeights[cat]
}
