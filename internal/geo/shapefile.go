package geo

import (
	"math"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// areaNameField is the attribute holding each polygon's area name.
const areaNameField = "name"

// loadShapefileAreas turns every named polygon of a shapefile into the
// smallest circle around its bounding box.
func loadShapefileAreas(path string) ([]Area, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), areaNameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: shapefile %s has no %s field", path, strings.ToUpper(areaNameField))
	}

	var areas []Area
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if !ok || name == "" || len(poly.Points) == 0 {
			skipped++
			continue
		}
		areas = append(areas, polygonArea(name, poly.Points))
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "geo: read shapefile %s", path)
	}
	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records", zap.String("path", path), zap.Int("skipped", skipped))
	}
	if len(areas) == 0 {
		return nil, eris.Errorf("geo: %s defines no areas", path)
	}
	return areas, nil
}

func polygonArea(name string, pts []shp.Point) Area {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	halfW, halfH := (maxX-minX)/2, (maxY-minY)/2
	return Area{
		Name:   name,
		Lat:    minY + halfH,
		Lng:    minX + halfW,
		Radius: math.Hypot(halfW, halfH),
	}
}
