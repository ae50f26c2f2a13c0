package geo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Center is a map viewport.
type Center struct {
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
	Zoom int     `json:"zoom" yaml:"zoom"`
}

// MiamiCenter is the default viewport.
var MiamiCenter = Center{Lat: 25.7617, Lng: -80.1918, Zoom: 11}

// Area is a named circle in degree space. Radius is in degrees, the same
// unit as coordinate deltas.
type Area struct {
	Name   string  `json:"name" yaml:"name"`
	Lat    float64 `json:"lat" yaml:"lat"`
	Lng    float64 `json:"lng" yaml:"lng"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// DefaultAreas returns the Miami sub-areas.
func DefaultAreas() []Area {
	return []Area{
		{Name: "Downtown Miami", Lat: 25.7743, Lng: -80.1937, Radius: 0.05},
		{Name: "Brickell", Lat: 25.7663, Lng: -80.1918, Radius: 0.03},
		{Name: "Wynwood", Lat: 25.8011, Lng: -80.1994, Radius: 0.04},
		{Name: "Design District", Lat: 25.8054, Lng: -80.1918, Radius: 0.03},
		{Name: "Coconut Grove", Lat: 25.7286, Lng: -80.2374, Radius: 0.04},
		{Name: "South Beach", Lat: 25.7907, Lng: -80.1300, Radius: 0.05},
		{Name: "Aventura", Lat: 25.9565, Lng: -80.1390, Radius: 0.04},
		{Name: "Doral", Lat: 25.8195, Lng: -80.3553, Radius: 0.05},
	}
}

// LoadAreas reads areas from a YAML file with a top-level "areas" list, or
// from a polygon shapefile (.shp) with a NAME attribute.
func LoadAreas(path string) ([]Area, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return loadShapefileAreas(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read areas %s", path)
	}

	var doc struct {
		Areas []Area `yaml:"areas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "geo: parse areas")
	}
	if len(doc.Areas) == 0 {
		return nil, eris.Errorf("geo: %s defines no areas", path)
	}
	for i, a := range doc.Areas {
		if a.Name == "" {
			return nil, eris.Errorf("geo: area %d has no name", i)
		}
		if a.Radius <= 0 {
			return nil, eris.Errorf("geo: area %q radius must be positive", a.Name)
		}
	}
	return doc.Areas, nil
}

// stateCenters places a state's interest on the map at its largest metro.
var stateCenters = map[string][2]float64{
	"Florida":        {25.7617, -80.1918},
	"California":     {34.0522, -118.2437},
	"New York":       {40.7128, -74.0060},
	"Texas":          {29.7604, -95.3698},
	"Illinois":       {41.8781, -87.6298},
	"Pennsylvania":   {39.9526, -75.1652},
	"Ohio":           {39.9612, -82.9988},
	"Georgia":        {33.7490, -84.3880},
	"North Carolina": {35.2271, -80.8431},
	"Michigan":       {42.3314, -83.0458},
	"Virginia":       {37.5407, -77.4360},
	"Washington":     {47.6062, -122.3321},
	"Arizona":        {33.4484, -112.0740},
	"Massachusetts":  {42.3601, -71.0589},
	"Tennessee":      {36.1627, -86.7816},
	"Indiana":        {39.7684, -86.1581},
	"Missouri":       {38.6270, -90.1994},
	"Maryland":       {39.2904, -76.6122},
	"Wisconsin":      {43.0731, -89.4012},
	"Colorado":       {39.7392, -104.9903},
}
