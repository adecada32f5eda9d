package network

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

// GeoReference converts geographic coordinates into net-local meters for
// networks whose source file declares a projected location. Networks are
// stored in EPSG:3857 meters minus the declared net offset, so points of
// interest given as lon/lat can be placed on the map.
type GeoReference struct {
	OffsetX float64
	OffsetY float64
}

// newGeoReference builds a GeoReference from the network's location
// metadata. Networks without a real projection ("!") have no geodetic
// reference and return nil.
func newGeoReference(loc *xmlLocation) (*GeoReference, error) {
	if loc.ProjParameter == "" || loc.ProjParameter == "!" {
		return nil, nil
	}
	ox, oy, err := parseOffset(loc.NetOffset)
	if err != nil {
		return nil, fmt.Errorf("invalid net offset %q: %w", loc.NetOffset, err)
	}
	return &GeoReference{OffsetX: ox, OffsetY: oy}, nil
}

// ToLocal projects a lon/lat coordinate into net-local meters.
func (g *GeoReference) ToLocal(longitude, latitude float64) (x, y float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	px, py, _ := f(longitude, latitude, 0)
	return px + g.OffsetX, py + g.OffsetY
}

func parseOffset(s string) (x, y float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want \"x,y\"")
	}
	x, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	y, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
