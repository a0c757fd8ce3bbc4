package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boundaries = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"NAME":"Kansas"},"geometry":{"type":"Polygon","coordinates":[[[-100,35],[-98,35],[-98,37],[-100,37],[-100,35]]]}}]}`

const table = `hospital_id,state,measure_name,compared_to_national,score,start_date,lat,lon
Wichita General,Kansas,CAUTI: Observed Cases,Worse than the National Benchmark,5,1/1/20,36,-99
Topeka Mercy,Kansas,MRSA Observed Cases,,2,6/1/21,36.5,-98.5
`

func workspace(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	for _, k := range []string{"GEO_PATH", "DATA_PATH", "CONFIG_PATH", "FETCH_MAX_RETRIES"} {
		t.Setenv(k, "")
	}
	dir = t.TempDir()
	geoPath := filepath.Join(dir, "states.geojson")
	dataPath := filepath.Join(dir, "healthcare_data.csv")
	require.NoError(t, os.WriteFile(geoPath, []byte(boundaries), 0o644))
	require.NoError(t, os.WriteFile(dataPath, []byte(table), 0o644))
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("geo_path: "+geoPath+"\ndata_path: "+dataPath+"\n"), 0o644))
	return dir, cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatesCommand(t *testing.T) {
	_, cfg := workspace(t)
	out, err := run(t, "states", "--config", cfg, "--year", "all", "--type", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Kansas")
	assert.Contains(t, out, "7")

	out, err = run(t, "states", "--config", cfg, "--year", "21", "--type", "all")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Kansas", "2"}, strings.Fields(lines[1]))
}

func TestHospitalsCommand(t *testing.T) {
	_, cfg := workspace(t)
	out, err := run(t, "hospitals", "Kansas", "--config", cfg, "--year", "all", "--type", "CAUTI")
	require.NoError(t, err)
	assert.Contains(t, out, "Wichita General")
	assert.NotContains(t, out, "Topeka Mercy")
}

func TestRenderCommand(t *testing.T) {
	dir, cfg := workspace(t)
	out := filepath.Join(dir, "map.svg")
	_, err := run(t, "render", "--config", cfg, "--year", "all", "--type", "all", "--select", "Kansas", "-o", out)
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("<svg ")))
	assert.Contains(t, string(b), `class="hospital"`)
}

func TestExportCommand(t *testing.T) {
	dir, cfg := workspace(t)
	out := filepath.Join(dir, "rows.csv")
	_, err := run(t, "export", "--config", cfg, "--year", "all", "--type", "all", "--state", "Kansas", "--hospital", "Topeka Mercy", "--format", "csv", "-o", out)
	require.NoError(t, err)
	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Topeka Mercy", rows[1][1])

	_, err = run(t, "export", "--config", cfg, "--format", "pdf")
	assert.ErrorContains(t, err, "unknown format")
}

func TestMissingInputsFail(t *testing.T) {
	dir, _ := workspace(t)
	cfg := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("geo_path: "+filepath.Join(dir, "nope.geojson")+"\n"), 0o644))
	_, err := run(t, "states", "--config", cfg, "--year", "all", "--type", "all")
	assert.Error(t, err)
}
