package geo

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, size float64) *shp.Polygon {
	pl := shp.NewPolyLine([][]shp.Point{{
		{X: minX, Y: minY},
		{X: minX, Y: minY + size},
		{X: minX + size, Y: minY + size},
		{X: minX + size, Y: minY},
		{X: minX, Y: minY},
	}})
	p := shp.Polygon(*pl)
	return &p
}

func writeShapefile(t *testing.T, fields []shp.Field, names []string, shapes []shp.Shape) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "areas.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))
	for i, s := range shapes {
		n := w.Write(s)
		require.NoError(t, w.WriteAttribute(int(n), 0, names[i]))
	}
	w.Close()
	return path
}

func TestLoadAreas_Shapefile(t *testing.T) {
	path := writeShapefile(t,
		[]shp.Field{shp.StringField("NAME", 32)},
		[]string{"Little Havana", ""},
		[]shp.Shape{square(-80.24, 25.76, 0.02), square(-80.30, 25.70, 0.02)},
	)

	areas, err := LoadAreas(path)
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "Little Havana", areas[0].Name)
	assert.InDelta(t, 25.77, areas[0].Lat, 1e-9)
	assert.InDelta(t, -80.23, areas[0].Lng, 1e-9)
	assert.InDelta(t, 0.01414, areas[0].Radius, 1e-4)
}

func TestLoadAreas_ShapefileWithoutNameField(t *testing.T) {
	path := writeShapefile(t,
		[]shp.Field{shp.StringField("GEOID", 10)},
		[]string{"12086"},
		[]shp.Shape{square(-80.24, 25.76, 0.02)},
	)

	_, err := LoadAreas(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no NAME field")
}

func TestPolygonArea(t *testing.T) {
	a := polygonArea("Box", square(0, 0, 2).Points)
	assert.Equal(t, Area{Name: "Box", Lat: 1, Lng: 1, Radius: a.Radius}, a)
	assert.InDelta(t, 1.41421, a.Radius, 1e-4)
}
