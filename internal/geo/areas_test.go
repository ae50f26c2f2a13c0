package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "areas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultAreas(t *testing.T) {
	areas := DefaultAreas()
	require.Len(t, areas, 8)
	for _, a := range areas {
		assert.NotEmpty(t, a.Name)
		assert.Greater(t, a.Radius, 0.0)
	}
}

func TestLoadAreas(t *testing.T) {
	path := writeFile(t, `
areas:
  - name: Ybor City
    lat: 27.9600
    lng: -82.4370
    radius: 0.03
  - name: Westshore
    lat: 27.9500
    lng: -82.5250
    radius: 0.04
`)
	areas, err := LoadAreas(path)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, Area{Name: "Ybor City", Lat: 27.96, Lng: -82.437, Radius: 0.03}, areas[0])
}

func TestLoadAreas_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "areas: []\n", "defines no areas"},
		{"no name", "areas:\n  - lat: 1\n    lng: 2\n    radius: 0.1\n", "has no name"},
		{"bad radius", "areas:\n  - name: X\n    radius: 0\n", "radius must be positive"},
		{"not yaml", "areas: [\n", "parse areas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAreas(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadAreas(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
