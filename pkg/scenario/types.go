// Package scenario defines the declarative scenario specification consumed by
// the compiler: a map reference, ego missions, and named background-traffic
// variants. Values are plain data; all network-dependent resolution happens
// inside the compiler.
package scenario

import (
	"encoding/json"
	"fmt"
)

// MapSpec identifies the source road network for a scenario.
type MapSpec struct {
	// Source is a path to either the network file itself or a scenario
	// directory containing map.net.xml.
	Source string `json:"source"`

	// ShiftToOrigin translates the network so its lower-left corner is (0,0).
	ShiftToOrigin bool `json:"shiftToOrigin,omitempty"`

	// LanepointSpacing is the sampling resolution in meters used for
	// geometric queries along lanes. Zero means the configured default.
	LanepointSpacing float64 `json:"lanepointSpacing,omitempty"`
}

// Offset is a distance in meters from the start of a lane, or the
// end-of-lane marker "max". It marshals as a JSON number or the string "max".
type Offset struct {
	Meters float64
	Max    bool
}

// OffsetMax returns the end-of-lane marker.
func OffsetMax() Offset { return Offset{Max: true} }

// OffsetMeters returns a fixed offset.
func OffsetMeters(m float64) Offset { return Offset{Meters: m} }

// MarshalJSON implements json.Marshaler.
func (o Offset) MarshalJSON() ([]byte, error) {
	if o.Max {
		return json.Marshal("max")
	}
	return json.Marshal(o.Meters)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Offset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "max" {
			return fmt.Errorf("invalid lane offset %q: want a number or \"max\"", s)
		}
		*o = Offset{Max: true}
		return nil
	}
	var m float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid lane offset: %w", err)
	}
	*o = Offset{Meters: m}
	return nil
}

// Endpoint is a symbolic route endpoint: an edge, a lane index on that edge,
// and an offset along the lane.
type Endpoint struct {
	Edge   string `json:"edge"`
	Lane   int    `json:"lane"`
	Offset Offset `json:"offset"`
}

// Validate checks structural well-formedness. Whether the edge and lane
// exist in the network is checked later by the resolver.
func (e Endpoint) Validate() error {
	if e.Edge == "" {
		return fmt.Errorf("endpoint has empty edge reference")
	}
	if e.Lane < 0 {
		return fmt.Errorf("endpoint on edge %q has negative lane index %d", e.Edge, e.Lane)
	}
	if !e.Offset.Max && e.Offset.Meters < 0 {
		return fmt.Errorf("endpoint on edge %q has negative offset %f", e.Edge, e.Offset.Meters)
	}
	return nil
}

// Route is a fixed begin/end pair for a mission.
type Route struct {
	Begin Endpoint `json:"begin"`
	End   Endpoint `json:"end"`
}

// Validate checks both endpoints.
func (r Route) Validate() error {
	if err := r.Begin.Validate(); err != nil {
		return fmt.Errorf("route begin: %w", err)
	}
	if err := r.End.Validate(); err != nil {
		return fmt.Errorf("route end: %w", err)
	}
	return nil
}

// JunctionEdgeResolver names the edge crossed inside a junction by the lane
// pair used to enter and leave it. The compiler resolves it to the concrete
// connector edge.
type JunctionEdgeResolver struct {
	StartEdge string `json:"startEdge"`
	StartLane int    `json:"startLane"`
	EndEdge   string `json:"endEdge"`
	EndLane   int    `json:"endLane"`
}

// Validate checks structural well-formedness.
func (j JunctionEdgeResolver) Validate() error {
	if j.StartEdge == "" || j.EndEdge == "" {
		return fmt.Errorf("junction resolver has empty edge reference")
	}
	if j.StartLane < 0 || j.EndLane < 0 {
		return fmt.Errorf("junction resolver %s/%d -> %s/%d has negative lane index",
			j.StartEdge, j.StartLane, j.EndEdge, j.EndLane)
	}
	return nil
}

// Via is a hinted waypoint on a mission. The point of interest is either a
// named edge or a junction-edge resolution request; exactly one must be set.
// RequiredSpeed is advisory to traffic-following logic, in m/s.
type Via struct {
	Edge          string                `json:"edge,omitempty"`
	Junction      *JunctionEdgeResolver `json:"junction,omitempty"`
	LaneIndex     int                   `json:"laneIndex"`
	LaneOffset    float64               `json:"laneOffset"`
	RequiredSpeed float64               `json:"requiredSpeed"`
}

// Validate checks structural well-formedness.
func (v Via) Validate() error {
	if (v.Edge == "") == (v.Junction == nil) {
		return fmt.Errorf("via must reference exactly one of an edge or a junction")
	}
	if v.Junction != nil {
		if err := v.Junction.Validate(); err != nil {
			return err
		}
	}
	if v.LaneIndex < 0 {
		return fmt.Errorf("via has negative lane index %d", v.LaneIndex)
	}
	if v.LaneOffset < 0 {
		return fmt.Errorf("via has negative lane offset %f", v.LaneOffset)
	}
	return nil
}
