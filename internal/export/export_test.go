package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hai-map-go/internal/dataset"
	"hai-map-go/internal/types"
)

func fixture() []types.InfectionRecord {
	return []types.InfectionRecord{
		{FacilityID: "1", HospitalID: "Mercy", Address: "1 Main St, Suite \"B\"", State: "Texas", MeasureName: "CAUTI: Observed Cases", ScoreRaw: "4", Score: 4, StartDate: "1/1/21"},
		{FacilityID: "2", HospitalID: "Hope", State: "Texas", MeasureName: "MRSA Observed Cases", ScoreRaw: "Not Available", StartDate: "1/1/20"},
		{FacilityID: "3", HospitalID: "Grace", State: "Ohio", MeasureName: "Catheter Associated Urinary Tract Infections (ICU + select Wards): Observed Cases", ScoreRaw: "2", Score: 2, StartDate: "1/1/19"},
	}
}

func TestSelect(t *testing.T) {
	assert.Len(t, Select(fixture(), Criteria{}), 3)
	assert.Len(t, Select(fixture(), Criteria{State: "Texas"}), 2)
	assert.Len(t, Select(fixture(), Criteria{State: types.All, InfectionType: "CAUTI"}), 2)
	assert.Len(t, Select(fixture(), Criteria{HospitalID: "Hope", InfectionType: "CAUTI"}), 0)
}

func TestWriteCSVEscapesCells(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, fixture(), Criteria{State: "Texas"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, dataset.Columns, rows[0])
	assert.Equal(t, "1 Main St, Suite \"B\"", rows[1][2], "address survives the round trip")
	assert.Equal(t, "Not Available", rows[2][9], "raw score text is exported")
}

func TestWriteCSVEmptySelection(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, fixture(), Criteria{HospitalID: "Nobody"})
	require.NoError(t, err)
	assert.Zero(t, n)
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteXLSX(&buf, fixture(), Criteria{HospitalID: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "hospital_id", rows[0][1])
	assert.Equal(t, "Grace", rows[1][1])
	assert.Equal(t, "Ohio", rows[1][4])
}
