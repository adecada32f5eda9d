// Package resolver turns symbolic scenario references into concrete network
// entities. Resolution is pure given a network: identical input always
// yields identical output, independent of call order, so missions and
// via-points resolved separately agree on shared junctions.
package resolver

import (
	"fmt"

	"github.com/scenc/scenc/internal/model"
	"github.com/scenc/scenc/internal/network"
	"github.com/scenc/scenc/pkg/scenario"
)

// maxOffsetEpsilon keeps "max" offsets strictly on the edge.
const maxOffsetEpsilon = 0.01

// Resolver resolves endpoints, vias, and junction-edge requests against one
// network. Junction resolutions are memoized for the lifetime of the
// resolver (one compilation pass), so repeated requests for the same
// crossing never diverge.
type Resolver struct {
	net       *network.Network
	junctions map[scenario.JunctionEdgeResolver]string
}

// New creates a resolver over the given network.
func New(net *network.Network) *Resolver {
	return &Resolver{
		net:       net,
		junctions: make(map[scenario.JunctionEdgeResolver]string),
	}
}

// Endpoint resolves a symbolic endpoint to a concrete point. "max" offsets
// resolve to lane length minus a small epsilon; fixed offsets beyond the
// lane length fail with InvalidOffsetError.
func (r *Resolver) Endpoint(ep scenario.Endpoint) (model.Point, error) {
	return r.point(ep.Edge, ep.Lane, ep.Offset)
}

// JunctionEdge resolves a junction-edge request to the single connector edge
// traversed between the start and end lanes.
func (r *Resolver) JunctionEdge(req scenario.JunctionEdgeResolver) (string, error) {
	if id, ok := r.junctions[req]; ok {
		return id, nil
	}
	if _, err := r.net.Edge(req.StartEdge); err != nil {
		return "", err
	}
	if _, err := r.net.Edge(req.EndEdge); err != nil {
		return "", err
	}

	seen := make(map[string]bool)
	var candidates []string
	for _, c := range r.net.Connections() {
		if c.FromEdge != req.StartEdge || c.ToEdge != req.EndEdge {
			continue
		}
		if c.FromLane != req.StartLane || c.ToLane != req.EndLane {
			continue
		}
		if c.Via == "" {
			continue
		}
		edge, ok := r.net.EdgeOfLane(c.Via)
		if !ok {
			return "", fmt.Errorf("connection %s_%d -> %s_%d references unknown internal lane %s",
				c.FromEdge, c.FromLane, c.ToEdge, c.ToLane, c.Via)
		}
		if !seen[edge.ID] {
			seen[edge.ID] = true
			candidates = append(candidates, edge.ID)
		}
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no connector edge for junction crossing %s_%d -> %s_%d",
			req.StartEdge, req.StartLane, req.EndEdge, req.EndLane)
	case 1:
		r.junctions[req] = candidates[0]
		return candidates[0], nil
	default:
		return "", &network.AmbiguousJunctionError{
			StartEdge:  req.StartEdge,
			StartLane:  req.StartLane,
			EndEdge:    req.EndEdge,
			EndLane:    req.EndLane,
			Candidates: candidates,
		}
	}
}

// Via resolves one via hint. Junction vias resolve to a point on the
// connector edge actually crossed; the required-speed hint is carried
// through unchanged.
func (r *Resolver) Via(v scenario.Via) (model.ViaPoint, error) {
	edgeID := v.Edge
	if v.Junction != nil {
		id, err := r.JunctionEdge(*v.Junction)
		if err != nil {
			return model.ViaPoint{}, err
		}
		edgeID = id
	}
	p, err := r.point(edgeID, v.LaneIndex, scenario.OffsetMeters(v.LaneOffset))
	if err != nil {
		return model.ViaPoint{}, err
	}
	return model.ViaPoint{Point: p, RequiredSpeed: v.RequiredSpeed}, nil
}

// Mission resolves a whole mission to its compiled record.
func (r *Resolver) Mission(m scenario.Mission) (model.Mission, error) {
	if m.Endless() {
		begin, err := r.Endpoint(*m.Begin)
		if err != nil {
			return model.Mission{}, fmt.Errorf("mission begin: %w", err)
		}
		vias := make([]model.ViaPoint, 0, len(m.Via))
		for i, v := range m.Via {
			vp, err := r.Via(v)
			if err != nil {
				return model.Mission{}, fmt.Errorf("via %d: %w", i, err)
			}
			vias = append(vias, vp)
		}
		return model.Mission{
			Kind:      model.MissionEndless,
			StartTime: m.StartTime,
			Begin:     begin,
			Via:       vias,
		}, nil
	}

	begin, err := r.Endpoint(m.Route.Begin)
	if err != nil {
		return model.Mission{}, fmt.Errorf("route begin: %w", err)
	}
	end, err := r.Endpoint(m.Route.End)
	if err != nil {
		return model.Mission{}, fmt.Errorf("route end: %w", err)
	}
	return model.Mission{
		Kind:      model.MissionFixed,
		StartTime: m.StartTime,
		Begin:     begin,
		End:       &end,
	}, nil
}

func (r *Resolver) point(edgeID string, laneIdx int, off scenario.Offset) (model.Point, error) {
	edge, err := r.net.Edge(edgeID)
	if err != nil {
		return model.Point{}, err
	}
	lane, err := edge.Lane(laneIdx)
	if err != nil {
		return model.Point{}, err
	}
	offset := off.Meters
	if off.Max {
		offset = lane.Length - maxOffsetEpsilon
		if offset < 0 {
			offset = 0
		}
	} else if offset > lane.Length {
		return model.Point{}, &network.InvalidOffsetError{
			EdgeID: edgeID,
			Lane:   laneIdx,
			Offset: offset,
			Length: lane.Length,
		}
	}
	pos := network.PointAtOffset(lane, offset)
	return model.Point{
		Edge:     edgeID,
		Lane:     laneIdx,
		Offset:   offset,
		Position: [2]float64{pos.X, pos.Y},
	}, nil
}
