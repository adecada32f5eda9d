// Package model holds the concrete, simulator-legal entities a compilation
// produces. Where pkg/scenario is symbolic (edge names, "max" offsets,
// junction requests), model is fully resolved: every point names an existing
// lane and carries its interpolated position.
package model

import "github.com/scenc/scenc/pkg/scenario"

// Point is a resolved lane/offset point. Position is the interpolated
// coordinate in net-local meters.
type Point struct {
	Edge     string     `json:"edge"`
	Lane     int        `json:"lane"`
	Offset   float64    `json:"offset"`
	Position [2]float64 `json:"position"`
}

// ViaPoint is a resolved via with its advisory speed hint, carried through
// from the specification unchanged.
type ViaPoint struct {
	Point
	RequiredSpeed float64 `json:"requiredSpeed"`
}

// MissionKind discriminates compiled mission records.
type MissionKind string

const (
	MissionFixed   MissionKind = "fixed"
	MissionEndless MissionKind = "endless"
)

// Mission is one compiled ego mission. Fixed missions carry Begin and End;
// endless missions carry Begin and the resolved via sequence. Path-finding
// between Begin and End is the backing simulator's responsibility.
type Mission struct {
	Kind      MissionKind `json:"kind"`
	StartTime float64     `json:"startTime,omitempty"`
	Begin     Point       `json:"begin"`
	End       *Point      `json:"end,omitempty"`
	Via       []ViaPoint  `json:"via,omitempty"`
}

// Spawn is one time-stamped vehicle spawn record.
type Spawn struct {
	ID         string
	Depart     float64
	Actor      string
	RouteEdges []string
}

// Traffic is one compiled traffic variant: the actor profiles it references
// and its spawn schedule sorted by depart time.
type Traffic struct {
	Name   string
	Types  []scenario.TrafficActor
	Spawns []Spawn
}

// MapReference is what the runtime loader needs to re-open the map the
// artifacts were compiled against.
type MapReference struct {
	Source           string  `json:"source"`
	ShiftToOrigin    bool    `json:"shiftToOrigin"`
	LanepointSpacing float64 `json:"lanepointSpacing"`
}

// Artifacts is the complete output of one compilation, keyed by the
// fingerprint that identifies the specification it was built from.
type Artifacts struct {
	Fingerprint string
	Map         MapReference
	Missions    []Mission
	Traffic     []Traffic
}
