package scenario

import "fmt"

// Mission is an ego-agent assignment. A fixed mission has a Route; an
// endless mission has a Begin point and an ordered Via sequence and runs
// until externally stopped. Exactly one of Route and Begin must be set.
type Mission struct {
	Route *Route    `json:"route,omitempty"`
	Begin *Endpoint `json:"begin,omitempty"`
	Via   []Via     `json:"via,omitempty"`

	// StartTime is an optional delay in seconds before the mission begins.
	StartTime float64 `json:"startTime,omitempty"`
}

// NewMission builds a fixed mission over the given route.
func NewMission(route Route) Mission {
	return Mission{Route: &route}
}

// NewEndlessMission builds an open-ended mission from a begin point and an
// ordered via sequence.
func NewEndlessMission(begin Endpoint, via ...Via) Mission {
	return Mission{Begin: &begin, Via: via}
}

// Endless reports whether the mission has no terminal point.
func (m Mission) Endless() bool { return m.Begin != nil }

// Validate checks structural well-formedness at construction time. Spatial
// validity (edges and lanes existing in the network, offsets within edge
// length) is the resolver's job.
func (m Mission) Validate() error {
	if (m.Route == nil) == (m.Begin == nil) {
		return fmt.Errorf("mission must have exactly one of a route or a begin point")
	}
	if m.StartTime < 0 {
		return fmt.Errorf("mission start time %f is negative", m.StartTime)
	}
	if m.Route != nil {
		if len(m.Via) > 0 {
			return fmt.Errorf("via sequence is only valid on an endless mission")
		}
		return m.Route.Validate()
	}
	if err := m.Begin.Validate(); err != nil {
		return fmt.Errorf("mission begin: %w", err)
	}
	for i, v := range m.Via {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("via %d: %w", i, err)
		}
	}
	return nil
}
