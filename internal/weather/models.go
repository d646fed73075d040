package weather

// Units is the OpenWeatherMap unit system used for temperatures.
type Units string

const (
	UnitsStandard Units = "standard"
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Suffix returns the temperature suffix printed after a formatted value.
func (u Units) Suffix() string {
	switch u {
	case UnitsImperial:
		return " °F"
	case UnitsStandard:
		return " K"
	default:
		return " °C"
	}
}

// Target identifies a single request: one city in one language.
type Target struct {
	City string `json:"city"`
	Lang string `json:"lang"`
}

// Key returns a canonical string key for logging and indexing.
func (t Target) Key() string {
	return t.City + ":" + t.Lang
}

// Observation is one decoded current-weather response for a Target.
type Observation struct {
	Target      Target
	Place       string
	Temperature float64

	// Descriptions in provider order; the first one is the primary condition.
	Descriptions []string
}

// PrimaryDescription returns the first description, or "" if the provider sent none.
func (o Observation) PrimaryDescription() string {
	if len(o.Descriptions) == 0 {
		return ""
	}
	return o.Descriptions[0]
}

// Row is one persisted record: a city's temperature with its description
// in the primary and secondary language.
type Row struct {
	ID                   int64   `json:"id"`
	Place                string  `json:"place"`
	Temperature          float64 `json:"temperature"`
	DescriptionPrimary   string  `json:"descriptionPrimary"`
	DescriptionSecondary string  `json:"descriptionSecondary"`
}
