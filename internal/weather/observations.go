package weather

import (
	"fmt"
	"strings"
)

// ObservationSet holds the observations of one fetch cycle keyed by Target,
// together with the city and language order the cycle was built from.
type ObservationSet struct {
	cities []string
	langs  []string
	byKey  map[Target]Observation
}

// NewObservationSet creates an empty set for the given cities and languages.
// The first language is the primary one, the second the secondary one.
func NewObservationSet(cities, langs []string) *ObservationSet {
	return &ObservationSet{
		cities: append([]string(nil), cities...),
		langs:  append([]string(nil), langs...),
		byKey:  make(map[Target]Observation, len(cities)*len(langs)),
	}
}

// Targets returns every request target of the set, cities in outer order
// and languages in inner order.
func (s *ObservationSet) Targets() []Target {
	return BuildTargets(s.cities, s.langs)
}

// Put records an observation under its target.
func (s *ObservationSet) Put(obs Observation) {
	s.byKey[obs.Target] = obs
}

// Get returns the observation for a target, if it was fetched.
func (s *ObservationSet) Get(t Target) (Observation, bool) {
	obs, ok := s.byKey[t]
	return obs, ok
}

// Len returns the number of observations present.
func (s *ObservationSet) Len() int {
	return len(s.byKey)
}

// Missing returns the targets with no observation, in target order.
func (s *ObservationSet) Missing() []Target {
	var missing []Target
	for _, t := range s.Targets() {
		if _, ok := s.byKey[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Rows pairs the two language observations of every city into one Row.
// Place and temperature come from the primary-language observation. If any
// target is missing no rows are returned and the error is an
// *IncompleteBatchError.
func (s *ObservationSet) Rows() ([]Row, error) {
	if len(s.langs) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrLanguageCount, len(s.langs))
	}
	if missing := s.Missing(); len(missing) > 0 {
		return nil, &IncompleteBatchError{Missing: missing, Present: s.Len()}
	}

	primary, secondary := s.langs[0], s.langs[1]
	rows := make([]Row, 0, len(s.cities))
	for _, city := range s.cities {
		p := s.byKey[Target{City: city, Lang: primary}]
		sec := s.byKey[Target{City: city, Lang: secondary}]
		rows = append(rows, Row{
			Place:                p.Place,
			Temperature:          p.Temperature,
			DescriptionPrimary:   p.PrimaryDescription(),
			DescriptionSecondary: sec.PrimaryDescription(),
		})
	}
	return rows, nil
}

// IncompleteBatchError reports targets whose observation never arrived.
type IncompleteBatchError struct {
	Missing []Target
	Present int
}

func (e *IncompleteBatchError) Error() string {
	keys := make([]string, 0, len(e.Missing))
	for _, t := range e.Missing {
		keys = append(keys, t.Key())
	}
	return fmt.Sprintf("incomplete observation batch: %d present, missing %s", e.Present, strings.Join(keys, ", "))
}

// BuildTargets returns cities × langs, cities in outer order.
func BuildTargets(cities, langs []string) []Target {
	targets := make([]Target, 0, len(cities)*len(langs))
	for _, city := range cities {
		for _, lang := range langs {
			targets = append(targets, Target{City: city, Lang: lang})
		}
	}
	return targets
}
