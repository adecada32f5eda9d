package network

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
)

// NetFileName is the network file the loader expects inside a scenario
// directory.
const NetFileName = "map.net.xml"

// xmlNet mirrors the subset of the simulator's network schema the compiler
// needs: location metadata, edges with lanes, and junction connections.
type xmlNet struct {
	XMLName     xml.Name        `xml:"net"`
	Location    *xmlLocation    `xml:"location"`
	Edges       []xmlEdge       `xml:"edge"`
	Connections []xmlConnection `xml:"connection"`
}

type xmlLocation struct {
	NetOffset     string `xml:"netOffset,attr"`
	OrigBoundary  string `xml:"origBoundary,attr"`
	ProjParameter string `xml:"projParameter,attr"`
}

type xmlEdge struct {
	ID       string    `xml:"id,attr"`
	From     string    `xml:"from,attr"`
	To       string    `xml:"to,attr"`
	Function string    `xml:"function,attr"`
	Lanes    []xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID     string  `xml:"id,attr"`
	Index  int     `xml:"index,attr"`
	Speed  float64 `xml:"speed,attr"`
	Length float64 `xml:"length,attr"`
	Shape  string  `xml:"shape,attr"`
}

type xmlConnection struct {
	From     string `xml:"from,attr"`
	To       string `xml:"to,attr"`
	FromLane int    `xml:"fromLane,attr"`
	ToLane   int    `xml:"toLane,attr"`
	Via      string `xml:"via,attr"`
}

// ResolveSource maps a MapSpec source to the concrete network file: either
// the path itself, or <dir>/map.net.xml when the path is a directory.
func ResolveSource(source string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return "", fmt.Errorf("map source %s: %w", source, err)
	}
	if info.IsDir() {
		return filepath.Join(source, NetFileName), nil
	}
	return source, nil
}

// Load reads a network file. With shiftToOrigin set, all lane shapes are
// translated so the network's lower-left bound is (0, 0).
func Load(path string, shiftToOrigin bool) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading network file: %w", err)
	}
	return Parse(data, shiftToOrigin)
}

// Parse builds a Network from raw network-file bytes.
func Parse(data []byte, shiftToOrigin bool) (*Network, error) {
	var raw xmlNet
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing network file: %w", err)
	}

	edges := make(map[string]*Edge, len(raw.Edges))
	minX, minY := math.Inf(1), math.Inf(1)
	for _, xe := range raw.Edges {
		e := &Edge{
			ID:       xe.ID,
			From:     xe.From,
			To:       xe.To,
			Internal: xe.Function == "internal" || strings.HasPrefix(xe.ID, ":"),
		}
		for _, xl := range xe.Lanes {
			shape, err := parseShape(xl.Shape)
			if err != nil {
				return nil, fmt.Errorf("lane %s: %w", xl.ID, err)
			}
			length := xl.Length
			if length == 0 {
				length = shape.Length()
			}
			e.Lanes = append(e.Lanes, Lane{
				ID:     xl.ID,
				Index:  xl.Index,
				Speed:  xl.Speed,
				Length: length,
				Shape:  shape,
			})
			seq := shape.Coordinates()
			for i := 0; i < seq.Length(); i++ {
				xy := seq.GetXY(i)
				minX = math.Min(minX, xy.X)
				minY = math.Min(minY, xy.Y)
			}
		}
		if len(e.Lanes) == 0 {
			return nil, fmt.Errorf("edge %s has no lanes", e.ID)
		}
		edges[e.ID] = e
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("network has no edges")
	}

	if shiftToOrigin && (minX != 0 || minY != 0) {
		for _, e := range edges {
			for i := range e.Lanes {
				shifted, err := translate(e.Lanes[i].Shape, -minX, -minY)
				if err != nil {
					return nil, fmt.Errorf("lane %s: %w", e.Lanes[i].ID, err)
				}
				e.Lanes[i].Shape = shifted
			}
		}
	}

	conns := make([]Connection, 0, len(raw.Connections))
	for _, xc := range raw.Connections {
		conns = append(conns, Connection{
			FromEdge: xc.From,
			ToEdge:   xc.To,
			FromLane: xc.FromLane,
			ToLane:   xc.ToLane,
			Via:      xc.Via,
		})
	}

	var geo *GeoReference
	if raw.Location != nil {
		g, err := newGeoReference(raw.Location)
		if err != nil {
			return nil, err
		}
		geo = g
	}
	return newNetwork(edges, conns, geo), nil
}

// parseShape parses a "x,y x,y ..." attribute into a LineString.
func parseShape(s string) (geom.LineString, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return geom.LineString{}, fmt.Errorf("shape needs at least 2 points, got %d", len(fields))
	}
	flat := make([]float64, 0, len(fields)*2)
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return geom.LineString{}, fmt.Errorf("invalid shape point %q", f)
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return geom.LineString{}, fmt.Errorf("invalid shape point %q", f)
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return geom.LineString{}, fmt.Errorf("invalid shape point %q", f)
		}
		flat = append(flat, x, y)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("invalid shape %q: %w", s, err)
	}
	return ls, nil
}

func translate(ls geom.LineString, dx, dy float64) (geom.LineString, error) {
	seq := ls.Coordinates()
	flat := make([]float64, 0, seq.Length()*2)
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		flat = append(flat, xy.X+dx, xy.Y+dy)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}
