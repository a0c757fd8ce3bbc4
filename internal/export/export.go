// Package export writes the filtered infection table as a downloadable file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/dataset"
	"hai-map-go/internal/types"
)

const (
	CSVFilename  = "HA-Infections.csv"
	XLSXFilename = "HA-Infections.xlsx"
	sheetName    = "Infections"
)

// Criteria narrows an export. Empty or "all" fields match everything;
// InfectionType compares against the normalized category.
type Criteria struct {
	State         string
	HospitalID    string
	InfectionType string
}

// Select returns the records the criteria keep, in source order.
func Select(records []types.InfectionRecord, c Criteria) []types.InfectionRecord {
	return aggregator.Filter(records, aggregator.Criteria{
		State:         c.State,
		HospitalID:    c.HospitalID,
		InfectionType: c.InfectionType,
	})
}

func row(r types.InfectionRecord) []string {
	out := make([]string, len(dataset.Columns))
	for i, col := range dataset.Columns {
		out[i] = dataset.Field(r, col)
	}
	return out
}

// WriteCSV writes a header row followed by every selected record. Cells with
// commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, records []types.InfectionRecord, c Criteria) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(dataset.Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	n := 0
	for _, r := range Select(records, c) {
		if err := cw.Write(row(r)); err != nil {
			return n, fmt.Errorf("write row %d: %w", n+1, err)
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}

// WriteXLSX writes the same table as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []types.InfectionRecord, c Criteria) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(dataset.Columns))
	for i, col := range dataset.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	for _, r := range Select(records, c) {
		cells := row(r)
		values := make([]any, len(cells))
		for i, v := range cells {
			values[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return n, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return n, fmt.Errorf("write row %d: %w", n+1, err)
		}
		n++
	}
	if _, err := f.WriteTo(w); err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}
