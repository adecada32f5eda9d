// Package network models the road network the compiler resolves scenario
// references against: directed edges composed of lanes with real geometry,
// and the junction connections between them.
package network

import (
	"math"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Lane is one lane of an edge. Shape is the lane centerline in net-local
// meters; Length is the driving length along the shape.
type Lane struct {
	ID     string
	Index  int
	Speed  float64
	Length float64
	Shape  geom.LineString
}

// Edge is a directed road segment. Connector edges inside junctions carry
// Internal=true and ids starting with ':'.
type Edge struct {
	ID       string
	From     string
	To       string
	Internal bool
	Lanes    []Lane
}

// Lane returns the lane with the given index.
func (e *Edge) Lane(index int) (*Lane, error) {
	if index < 0 || index >= len(e.Lanes) {
		return nil, &UnknownLaneError{EdgeID: e.ID, Lane: index, Lanes: len(e.Lanes)}
	}
	return &e.Lanes[index], nil
}

// Connection is one junction connection between two lanes, traversing the
// internal lane Via when the junction has internal geometry.
type Connection struct {
	FromEdge string
	ToEdge   string
	FromLane int
	ToLane   int
	Via      string // internal lane id, "" if none
}

// Network is an immutable road network snapshot.
type Network struct {
	edges       map[string]*Edge
	laneEdge    map[string]string // lane id -> owning edge id
	connections []Connection
	drivable    []string // sorted non-internal edge ids
	geo         *GeoReference
}

// Edge returns the edge with the given id.
func (n *Network) Edge(id string) (*Edge, error) {
	e, ok := n.edges[id]
	if !ok {
		return nil, &UnknownEdgeError{EdgeID: id}
	}
	return e, nil
}

// EdgeOfLane returns the edge owning the given lane id.
func (n *Network) EdgeOfLane(laneID string) (*Edge, bool) {
	id, ok := n.laneEdge[laneID]
	if !ok {
		return nil, false
	}
	return n.edges[id], true
}

// DrivableEdges returns the ids of all non-internal edges in sorted order.
func (n *Network) DrivableEdges() []string {
	return n.drivable
}

// Connections returns every junction connection.
func (n *Network) Connections() []Connection {
	return n.connections
}

// Geo returns the geodetic reference of the network, if the source file
// declared one.
func (n *Network) Geo() *GeoReference {
	return n.geo
}

// PointAtOffset interpolates the concrete position offset meters along a
// lane's shape. Offsets are clamped to [0, shape length].
func PointAtOffset(l *Lane, offset float64) geom.XY {
	seq := l.Shape.Coordinates()
	if seq.Length() == 0 {
		return geom.XY{}
	}
	if offset <= 0 {
		return seq.GetXY(0)
	}
	remaining := offset
	for i := 0; i+1 < seq.Length(); i++ {
		a, b := seq.GetXY(i), seq.GetXY(i+1)
		seg := math.Hypot(b.X-a.X, b.Y-a.Y)
		if seg == 0 {
			continue
		}
		if remaining <= seg {
			t := remaining / seg
			return geom.XY{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
		}
		remaining -= seg
	}
	return seq.GetXY(seq.Length() - 1)
}

// NearestLane finds the drivable lane closest to a net-local point,
// returning the owning edge id, the lane index, and the offset along the
// lane of the closest centerline point. ok is false when the network has no
// drivable lanes.
func (n *Network) NearestLane(x, y float64) (edgeID string, laneIndex int, offset float64, ok bool) {
	best := math.Inf(1)
	for _, id := range n.drivable {
		e := n.edges[id]
		for i := range e.Lanes {
			d, off := nearestOnLane(&e.Lanes[i], x, y)
			if d < best {
				best = d
				edgeID, laneIndex, offset, ok = id, e.Lanes[i].Index, off, true
			}
		}
	}
	return edgeID, laneIndex, offset, ok
}

// nearestOnLane projects (x, y) onto a lane centerline, returning the
// distance to the closest point and its offset along the lane.
func nearestOnLane(l *Lane, x, y float64) (dist, offset float64) {
	seq := l.Shape.Coordinates()
	dist = math.Inf(1)
	walked := 0.0
	for i := 0; i+1 < seq.Length(); i++ {
		a, b := seq.GetXY(i), seq.GetXY(i+1)
		seg := math.Hypot(b.X-a.X, b.Y-a.Y)
		if seg == 0 {
			continue
		}
		t := ((x-a.X)*(b.X-a.X) + (y-a.Y)*(b.Y-a.Y)) / (seg * seg)
		t = math.Max(0, math.Min(1, t))
		px, py := a.X+t*(b.X-a.X), a.Y+t*(b.Y-a.Y)
		if d := math.Hypot(x-px, y-py); d < dist {
			dist = d
			offset = walked + t*seg
		}
		walked += seg
	}
	return dist, offset
}

// Lanepoints samples a lane's centerline every spacing meters, always
// including the final point of the shape.
func Lanepoints(l *Lane, spacing float64) []geom.XY {
	if spacing <= 0 {
		return nil
	}
	length := l.Shape.Length()
	var points []geom.XY
	for d := 0.0; d < length; d += spacing {
		points = append(points, PointAtOffset(l, d))
	}
	points = append(points, PointAtOffset(l, length))
	return points
}

func newNetwork(edges map[string]*Edge, conns []Connection, geo *GeoReference) *Network {
	n := &Network{
		edges:       edges,
		laneEdge:    make(map[string]string),
		connections: conns,
		geo:         geo,
	}
	for id, e := range edges {
		for _, l := range e.Lanes {
			n.laneEdge[l.ID] = id
		}
		if !e.Internal {
			n.drivable = append(n.drivable, id)
		}
	}
	sort.Strings(n.drivable)
	return n
}
