package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/geo"
	"hai-map-go/internal/logger"
	"hai-map-go/internal/types"
)

// Columns is the infection table layout, in export order.
var Columns = []string{
	"facility_id", "hospital_id", "address", "city", "state",
	"zip_code", "county_name", "measure_name", "compared_to_national",
	"score", "start_date", "end_date", "lat", "lon",
}

var requiredColumns = []string{"hospital_id", "state", "measure_name", "score", "start_date"}

// Field returns the record's cell for a column name; unknown columns are "".
func Field(r types.InfectionRecord, column string) string {
	switch column {
	case "facility_id":
		return r.FacilityID
	case "hospital_id":
		return r.HospitalID
	case "address":
		return r.Address
	case "city":
		return r.City
	case "state":
		return r.State
	case "zip_code":
		return r.ZipCode
	case "county_name":
		return r.CountyName
	case "measure_name":
		return r.MeasureName
	case "compared_to_national":
		return r.ComparedToNational
	case "score":
		return r.ScoreRaw
	case "start_date":
		return r.StartDate
	case "end_date":
		return r.EndDate
	case "lat":
		return r.Lat
	case "lon":
		return r.Lon
	}
	return ""
}

// Parse turns a header row plus data rows into records. Short rows leave the
// missing cells empty.
func Parse(rows [][]string) ([]types.InfectionRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	out := make([]types.InfectionRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		score := get("score")
		out = append(out, types.InfectionRecord{
			FacilityID:         get("facility_id"),
			HospitalID:         get("hospital_id"),
			Address:            get("address"),
			City:               get("city"),
			State:              get("state"),
			ZipCode:            get("zip_code"),
			CountyName:         get("county_name"),
			MeasureName:        get("measure_name"),
			ComparedToNational: get("compared_to_national"),
			ScoreRaw:           score,
			Score:              aggregator.ParseScore(score),
			StartDate:          get("start_date"),
			EndDate:            get("end_date"),
			Lat:                get("lat"),
			Lon:                get("lon"),
		})
	}
	return out, nil
}

// ReadCSV parses a comma-separated infection table.
func ReadCSV(r io.Reader) ([]types.InfectionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Parse(rows)
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]types.InfectionRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return Parse(rows)
}

func isWorkbook(p string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(path.Ext(p))
	return ext == ".xlsx" || ext == ".xlsm"
}

// LoadRecords reads the infection table at p; .xlsx is read as a workbook and
// anything else as CSV.
func (s Source) LoadRecords(ctx context.Context, p string) ([]types.InfectionRecord, error) {
	log := logger.New().WithField("component", "dataset.loader").WithField("path", p)
	b, err := s.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	var records []types.InfectionRecord
	if isWorkbook(p) {
		records, err = ReadXLSX(bytes.NewReader(b))
	} else {
		records, err = ReadCSV(bytes.NewReader(b))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p, err)
	}
	log.WithField("records", len(records)).Info("infection table loaded")
	return records, nil
}

// LoadGeo reads the state boundary FeatureCollection at p.
func (s Source) LoadGeo(ctx context.Context, p string) (*geo.FeatureCollection, error) {
	b, err := s.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	fc, err := geo.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p, err)
	}
	logger.New().WithField("component", "dataset.loader").
		WithField("path", p).
		WithField("features", len(fc.Features)).
		Info("boundaries loaded")
	return fc, nil
}
