// Package export writes stored listings to spreadsheets.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/LeadTechMaster/API/internal/model"
)

// ListingsSheet is the name of the sheet WriteListings creates.
const ListingsSheet = "Listings"

var listingHeader = []string{
	"Name", "Platform", "Rating", "Reviews", "Address", "Phone",
	"Latitude", "Longitude", "Website", "Query", "Location", "Position",
}

// WriteListings writes businesses as an xlsx workbook with one header row
// and one row per listing. Absent ratings, review counts and coordinates are
// left blank.
func WriteListings(w io.Writer, businesses []model.Business) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(ListingsSheet)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range listingHeader {
		header.AddCell().SetString(h)
	}

	for _, b := range businesses {
		row := sheet.AddRow()
		row.AddCell().SetString(b.Name)
		row.AddCell().SetString(string(b.Platform))
		floatCell(row, b.Rating)
		if b.Reviews != nil {
			row.AddCell().SetInt(*b.Reviews)
		} else {
			row.AddCell()
		}
		row.AddCell().SetString(b.Address)
		row.AddCell().SetString(b.Phone)
		floatCell(row, b.Latitude)
		floatCell(row, b.Longitude)
		row.AddCell().SetString(b.Website)
		row.AddCell().SetString(b.Query)
		row.AddCell().SetString(b.Location)
		row.AddCell().SetInt(b.Position)
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

func floatCell(row *xlsx.Row, v *float64) {
	c := row.AddCell()
	if v != nil {
		c.SetFloat(*v)
	}
}
