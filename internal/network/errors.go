package network

import (
	"fmt"
	"strings"
)

// UnknownEdgeError reports a reference to an edge absent from the network.
type UnknownEdgeError struct {
	EdgeID string
}

func (e *UnknownEdgeError) Error() string {
	return fmt.Sprintf("unknown edge %q", e.EdgeID)
}

// UnknownLaneError reports a lane index that does not exist on an edge.
type UnknownLaneError struct {
	EdgeID string
	Lane   int
	Lanes  int
}

func (e *UnknownLaneError) Error() string {
	return fmt.Sprintf("edge %q has no lane %d (%d lanes)", e.EdgeID, e.Lane, e.Lanes)
}

// InvalidOffsetError reports an offset beyond the end of a lane.
type InvalidOffsetError struct {
	EdgeID string
	Lane   int
	Offset float64
	Length float64
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("offset %.2fm exceeds lane %s_%d length %.2fm",
		e.Offset, e.EdgeID, e.Lane, e.Length)
}

// AmbiguousJunctionError reports a junction-edge resolution request matched
// by more than one connector edge.
type AmbiguousJunctionError struct {
	StartEdge  string
	StartLane  int
	EndEdge    string
	EndLane    int
	Candidates []string
}

func (e *AmbiguousJunctionError) Error() string {
	return fmt.Sprintf("junction crossing %s_%d -> %s_%d is ambiguous: connectors %s",
		e.StartEdge, e.StartLane, e.EndEdge, e.EndLane, strings.Join(e.Candidates, ", "))
}
