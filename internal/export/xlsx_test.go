package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/LeadTechMaster/API/internal/model"
)

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func TestWriteListings(t *testing.T) {
	var buf bytes.Buffer
	err := WriteListings(&buf, []model.Business{
		{
			Name: "Joe's Movers", Platform: model.PlatformMaps,
			Rating: model.Float(4.8), Reviews: model.Int(500),
			Address: "1 Main St", Phone: "(305) 555-0100",
			Latitude: model.Float(25.77), Longitude: model.Float(-80.19),
			Website: "https://joes.example", Query: "movers", Location: "Miami, FL", Position: 1,
		},
		{Name: "New Listing", Platform: model.PlatformYelp, Position: 2},
	})
	require.NoError(t, err)

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[ListingsSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, listingHeader, rowToStrings(sheet.Rows[0]))
	assert.Equal(t, []string{
		"Joe's Movers", "maps", "4.8", "500", "1 Main St", "(305) 555-0100",
		"25.77", "-80.19", "https://joes.example", "movers", "Miami, FL", "1",
	}, rowToStrings(sheet.Rows[1]))

	blank := rowToStrings(sheet.Rows[2])
	assert.Equal(t, "New Listing", blank[0])
	assert.Equal(t, "yelp", blank[1])
	assert.Empty(t, blank[2], "absent rating")
	assert.Empty(t, blank[3], "absent reviews")
	assert.Empty(t, blank[6], "absent latitude")
}

func TestWriteListings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteListings(&buf, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 1, "header only")
}
