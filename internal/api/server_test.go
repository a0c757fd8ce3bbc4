package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hai-map-go/internal/config"
	"hai-map-go/internal/controller"
	"hai-map-go/internal/geo"
	"hai-map-go/internal/logger"
	"hai-map-go/internal/types"
)

const boundaries = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"NAME":"Kansas"},"geometry":{"type":"Polygon","coordinates":[[[-100,35],[-98,35],[-98,37],[-100,37],[-100,35]]]}},
{"type":"Feature","properties":{"NAME":"Texas"},"geometry":{"type":"Polygon","coordinates":[[[-100,30],[-97,30],[-97,33],[-100,30]]]}}]}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fc, err := geo.Decode([]byte(boundaries))
	require.NoError(t, err)
	records := []types.InfectionRecord{
		{HospitalID: "Wichita General", State: "Kansas", MeasureName: "CAUTI: Observed Cases", ComparedToNational: "Worse than the National Benchmark", ScoreRaw: "5", Score: 5, StartDate: "1/1/20", Lat: "36", Lon: "-99"},
		{HospitalID: "Wichita General", State: "Kansas", MeasureName: "MRSA Observed Cases", ScoreRaw: "2", Score: 2, StartDate: "6/1/21", Lat: "36", Lon: "-99"},
		{HospitalID: "Austin, Hope", State: "Texas", MeasureName: "CAUTI: Observed Cases", ScoreRaw: "7", Score: 7, StartDate: "1/1/21", Lat: "31", Lon: "-98"},
	}
	return NewServer(controller.New(&controller.Data{Geo: fc, Records: records}, config.Default()))
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(logger.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(logger.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(logger.RequestIDHeader))
}

func TestMethodMismatch(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodGet, "/api/events", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodPost, "/map.svg", "").Code)
}

func TestOptionsAndSuggest(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/options?state=Kansas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts struct {
		SliderValues []string `json:"slider_values"`
		States       []string `json:"states"`
		Hospitals    []string `json:"hospitals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"all", "20", "21"}, opts.SliderValues)
	assert.Equal(t, []string{"Kansas", "Texas"}, opts.States)
	assert.Equal(t, []string{"Wichita General"}, opts.Hospitals)

	rec = do(s, http.MethodGet, "/api/options/suggest?field=state&q=TEX", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Texas"}, got)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/options/suggest?field=city", "").Code)
}

func TestEventsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodPost, "/api/events", `{"type":"select_state","value":"Kansas"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var v controller.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "Kansas", v.State.SelectedState)
	require.Len(t, v.Hospitals, 1)
	assert.Equal(t, 7.0, v.Hospitals[0].TotalScore)
	assert.Greater(t, v.Camera.K, 1.0)

	rec = do(s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selected_state": "Kansas"`)

	rec = do(s, http.MethodPost, "/api/events", `{"type":"reset"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v = controller.View{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Empty(t, v.State.SelectedState)
	assert.Empty(t, v.Hospitals)
	assert.Equal(t, geo.Identity, v.Camera)
}

func TestEventsRejectBadPayloads(t *testing.T) {
	s := newTestServer(t)
	for name, body := range map[string]string{
		"not json":      `{`,
		"unknown type":  `{"type":"zoom"}`,
		"missing state": `{"type":"select_state"}`,
		"extra field":   `{"type":"reset","foo":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/api/events", body).Code)
		})
	}
}

func TestAggregates(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/aggregates/states?year=21", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var states map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	assert.Equal(t, map[string]float64{"Kansas": 2, "Texas": 7}, states)

	rec = do(s, http.MethodGet, "/api/aggregates/hospitals?state=Kansas&type=CAUTI", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hospitals []types.HospitalAggregate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hospitals))
	require.Len(t, hospitals, 1)
	assert.Equal(t, 5.0, hospitals[0].TotalScore)
	assert.Equal(t, "Worse than the National Benchmark", hospitals[0].Benchmark)

	rec = do(s, http.MethodGet, "/api/aggregates/hospitals?state=Maine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/aggregates/hospitals", "").Code)
}

func TestMapSVG(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/map.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), `class="hospital"`)

	rec = do(s, http.MethodGet, "/map.svg?select=Texas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="hospital"`)
	assert.Contains(t, rec.Body.String(), `href="/linegraph?hospital=Austin%2C+Hope"`)

	rec = do(s, http.MethodGet, "/map.svg?reset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="hospital"`)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/map.svg?select=", "").Code)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/export.csv?state=Texas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="HA-Infections.csv"`, rec.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Austin, Hope", rows[1][1])
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/export.xlsx?hospital=Wichita+General", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="HA-Infections.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "workbooks are zip archives")
}

func TestLineGraph(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/linegraph?hospital=Wichita+General", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/linegraph?hospital=Nobody", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/linegraph", "").Code)
}
