package network

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNetXML is a four-approach intersection: two inbound edges feeding two
// outbound edges over internal connector edges.
const testNetXML = `<?xml version="1.0" encoding="UTF-8"?>
<net version="1.9">
    <location netOffset="0.00,0.00" convBoundary="-80,0,110,200" origBoundary="-80,0,110,200" projParameter="!"/>
    <edge id=":c_0" function="internal">
        <lane id=":c_0_0" index="0" speed="13.89" length="15.00" shape="14,100 0,114"/>
    </edge>
    <edge id=":c_1" function="internal">
        <lane id=":c_1_0" index="0" speed="13.89" length="15.00" shape="10,100 30,110"/>
    </edge>
    <edge id=":c_2" function="internal">
        <lane id=":c_2_0" index="0" speed="13.89" length="15.00" shape="20,120 0,110"/>
    </edge>
    <edge id=":c_3" function="internal">
        <lane id=":c_3_0" index="0" speed="13.89" length="15.00" shape="20,120 30,110"/>
    </edge>
    <edge id="edge-south-SN" from="node-south" to="node-center">
        <lane id="edge-south-SN_0" index="0" speed="13.89" length="100.00" shape="10,0 10,100"/>
        <lane id="edge-south-SN_1" index="1" speed="13.89" length="100.00" shape="14,0 14,100"/>
    </edge>
    <edge id="edge-north-NS" from="node-north" to="node-center">
        <lane id="edge-north-NS_0" index="0" speed="13.89" length="80.00" shape="20,200 20,120"/>
    </edge>
    <edge id="edge-west-EW" from="node-center" to="node-west">
        <lane id="edge-west-EW_0" index="0" speed="13.89" length="80.00" shape="0,110 -80,110"/>
        <lane id="edge-west-EW_1" index="1" speed="13.89" length="80.00" shape="0,114 -80,114"/>
    </edge>
    <edge id="edge-east-WE" from="node-center" to="node-east">
        <lane id="edge-east-WE_0" index="0" speed="13.89" length="80.00" shape="30,110 110,110"/>
    </edge>
    <connection from="edge-south-SN" to="edge-west-EW" fromLane="1" toLane="1" via=":c_0_0"/>
    <connection from="edge-south-SN" to="edge-east-WE" fromLane="0" toLane="0" via=":c_1_0"/>
    <connection from="edge-north-NS" to="edge-west-EW" fromLane="0" toLane="0" via=":c_2_0"/>
    <connection from="edge-north-NS" to="edge-east-WE" fromLane="0" toLane="0" via=":c_3_0"/>
</net>
`

func TestParse(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)

	edge, err := net.Edge("edge-south-SN")
	require.NoError(t, err)
	assert.Equal(t, "node-south", edge.From)
	assert.Equal(t, "node-center", edge.To)
	assert.False(t, edge.Internal)
	require.Len(t, edge.Lanes, 2)
	assert.Equal(t, 100.0, edge.Lanes[1].Length)
	assert.Equal(t, 13.89, edge.Lanes[0].Speed)

	internal, err := net.Edge(":c_0")
	require.NoError(t, err)
	assert.True(t, internal.Internal)

	assert.Equal(t,
		[]string{"edge-east-WE", "edge-north-NS", "edge-south-SN", "edge-west-EW"},
		net.DrivableEdges())
	assert.Len(t, net.Connections(), 4)
	assert.Nil(t, net.Geo(), "projParameter ! means no geodetic reference")
}

func TestParse_UnknownEdge(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)

	_, err = net.Edge("edge-nowhere")
	require.Error(t, err)
	var unknown *UnknownEdgeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "edge-nowhere", unknown.EdgeID)
}

func TestEdge_LaneBounds(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)
	edge, err := net.Edge("edge-south-SN")
	require.NoError(t, err)

	lane, err := edge.Lane(1)
	require.NoError(t, err)
	assert.Equal(t, "edge-south-SN_1", lane.ID)

	_, err = edge.Lane(2)
	var unknown *UnknownLaneError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 2, unknown.Lane)
	assert.Equal(t, 2, unknown.Lanes)

	_, err = edge.Lane(-1)
	assert.ErrorAs(t, err, &unknown)
}

func TestEdgeOfLane(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)

	edge, ok := net.EdgeOfLane("edge-west-EW_1")
	require.True(t, ok)
	assert.Equal(t, "edge-west-EW", edge.ID)

	_, ok = net.EdgeOfLane("no-such-lane")
	assert.False(t, ok)
}

func TestParse_ShiftToOrigin(t *testing.T) {
	net, err := Parse([]byte(testNetXML), true)
	require.NoError(t, err)

	// minX is -80 (west end), minY is 0, so everything shifts +80 in x.
	edge, err := net.Edge("edge-west-EW")
	require.NoError(t, err)
	start := edge.Lanes[0].Shape.Coordinates().GetXY(0)
	assert.InDelta(t, 80.0, start.X, 1e-9)
	assert.InDelta(t, 110.0, start.Y, 1e-9)

	end := edge.Lanes[0].Shape.Coordinates().GetXY(1)
	assert.InDelta(t, 0.0, end.X, 1e-9)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("<net><edge id='e'"), false)
	assert.Error(t, err)

	_, err = Parse([]byte(`<net><edge id="e"></edge></net>`), false)
	assert.Error(t, err, "edge without lanes")

	_, err = Parse([]byte(`<net></net>`), false)
	assert.Error(t, err, "no edges")

	_, err = Parse([]byte(`<net><edge id="e"><lane id="e_0" index="0" shape="1,1"/></edge></net>`), false)
	assert.Error(t, err, "single-point shape")
}

func TestParse_DegenerateShape(t *testing.T) {
	// Two coincident points pass field parsing but fail line string
	// construction; the error names the offending lane.
	_, err := Parse([]byte(`<net><edge id="e"><lane id="e_0" index="0" shape="5,5 5,5"/></edge></net>`), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e_0")
}

func TestNearestLane(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)

	// beside the south approach, closest to its inner lane
	edge, lane, offset, ok := net.NearestLane(15, 30)
	require.True(t, ok)
	assert.Equal(t, "edge-south-SN", edge)
	assert.Equal(t, 1, lane)
	assert.InDelta(t, 30.0, offset, 1e-9)

	// beside the west exit, partway along it
	edge, lane, offset, ok = net.NearestLane(-40, 116)
	require.True(t, ok)
	assert.Equal(t, "edge-west-EW", edge)
	assert.Equal(t, 1, lane)
	assert.InDelta(t, 40.0, offset, 1e-9)

	// before the lane start, snapped to offset 0
	edge, lane, offset, ok = net.NearestLane(10, -20)
	require.True(t, ok)
	assert.Equal(t, "edge-south-SN", edge)
	assert.Equal(t, 0, lane)
	assert.Equal(t, 0.0, offset)
}

func TestNearestLane_NoDrivableLanes(t *testing.T) {
	const internalOnlyXML = `<net>
    <edge id=":c_0" function="internal">
        <lane id=":c_0_0" index="0" speed="13.89" length="15.00" shape="14,100 0,114"/>
    </edge>
</net>`
	net, err := Parse([]byte(internalOnlyXML), false)
	require.NoError(t, err)

	_, _, _, ok := net.NearestLane(0, 0)
	assert.False(t, ok)
}

func TestPointAtOffset(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)
	edge, err := net.Edge("edge-south-SN")
	require.NoError(t, err)
	lane := &edge.Lanes[0] // "10,0 10,100"

	p := PointAtOffset(lane, 0)
	assert.Equal(t, 10.0, p.X)
	assert.Equal(t, 0.0, p.Y)

	p = PointAtOffset(lane, 40)
	assert.InDelta(t, 40.0, p.Y, 1e-9)

	// clamped beyond shape length
	p = PointAtOffset(lane, 500)
	assert.InDelta(t, 100.0, p.Y, 1e-9)

	p = PointAtOffset(lane, -3)
	assert.Equal(t, 0.0, p.Y)
}

func TestLanepoints(t *testing.T) {
	net, err := Parse([]byte(testNetXML), false)
	require.NoError(t, err)
	edge, err := net.Edge("edge-south-SN")
	require.NoError(t, err)
	lane := &edge.Lanes[0]

	points := Lanepoints(lane, 10)
	require.Len(t, points, 11, "every 10m over 100m plus the final point")
	assert.Equal(t, 0.0, points[0].Y)
	assert.InDelta(t, 100.0, points[len(points)-1].Y, 1e-9)
	for i := 1; i < len(points)-1; i++ {
		assert.InDelta(t, float64(i)*10, points[i].Y, 1e-9)
	}

	assert.Nil(t, Lanepoints(lane, 0))
	assert.Nil(t, Lanepoints(lane, -1))
}

func TestLoad_FromFileAndDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, NetFileName)
	require.NoError(t, os.WriteFile(path, []byte(testNetXML), 0644))

	resolved, err := ResolveSource(dir)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	resolved, err = ResolveSource(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	net, err := Load(resolved, false)
	require.NoError(t, err)
	assert.Len(t, net.DrivableEdges(), 4)

	_, err = ResolveSource(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestGeoReference(t *testing.T) {
	const projectedXML = `<?xml version="1.0" encoding="UTF-8"?>
<net version="1.9">
    <location netOffset="-500000.00,-4000000.00" origBoundary="8.0,36.0,8.1,36.1" projParameter="+proj=merc +a=6378137 +b=6378137"/>
    <edge id="e1" from="a" to="b">
        <lane id="e1_0" index="0" speed="13.89" length="100.00" shape="0,0 100,0"/>
    </edge>
</net>
`
	net, err := Parse([]byte(projectedXML), false)
	require.NoError(t, err)
	geo := net.Geo()
	require.NotNil(t, geo)
	assert.Equal(t, -500000.0, geo.OffsetX)
	assert.Equal(t, -4000000.0, geo.OffsetY)

	// longitude 0 projects to x=0 in web mercator, so local x is the offset
	x, y := geo.ToLocal(0, 0)
	assert.InDelta(t, -500000.0, x, 1e-6)
	assert.InDelta(t, -4000000.0, y, 1e-6)

	// projection is monotonic in longitude
	x2, _ := geo.ToLocal(1, 0)
	assert.Greater(t, x2, x)
	assert.False(t, math.IsNaN(x2))
}

func TestGeoReference_InvalidOffset(t *testing.T) {
	const badXML = `<net>
    <location netOffset="garbage" origBoundary="0,0,1,1" projParameter="+proj=merc"/>
    <edge id="e1" from="a" to="b">
        <lane id="e1_0" index="0" speed="13.89" length="100.00" shape="0,0 100,0"/>
    </edge>
</net>`
	_, err := Parse([]byte(badXML), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "net offset")
}

func TestLaneLength_DefaultsToShapeLength(t *testing.T) {
	const xmlNoLength = `<net>
    <edge id="e1" from="a" to="b">
        <lane id="e1_0" index="0" speed="13.89" shape="0,0 30,40"/>
    </edge>
</net>`
	net, err := Parse([]byte(xmlNoLength), false)
	require.NoError(t, err)
	edge, err := net.Edge("e1")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, edge.Lanes[0].Length, 1e-9)
}
