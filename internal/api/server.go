// Package api serves the map, its aggregates, exports and drill-down charts
// over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/controller"
	"hai-map-go/internal/drilldown"
	"hai-map-go/internal/export"
	"hai-map-go/internal/filter"
	"hai-map-go/internal/geo"
	"hai-map-go/internal/logger"
	"hai-map-go/internal/types"
)

type Server struct {
	ctrl *controller.Controller
	mux  *http.ServeMux
}

func NewServer(ctrl *controller.Controller) *Server {
	s := &Server{ctrl: ctrl, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/options", s.handleOptions)
	s.mux.HandleFunc("GET /api/options/suggest", s.handleSuggest)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("POST /api/events", s.handleEvent)
	s.mux.HandleFunc("GET /api/aggregates/states", s.handleStateAggregates)
	s.mux.HandleFunc("GET /api/aggregates/hospitals", s.handleHospitalAggregates)
	s.mux.HandleFunc("GET /map.svg", s.handleMap)
	s.mux.HandleFunc("GET /export.csv", s.handleExportCSV)
	s.mux.HandleFunc("GET /export.xlsx", s.handleExportXLSX)
	s.mux.HandleFunc("GET /linegraph", s.handleLineGraph)
}

// ServeHTTP echoes the request id and logs each request once it completes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := logger.RequestID(r)
	r.Header.Set(logger.RequestIDHeader, id)
	w.Header().Set(logger.RequestIDHeader, id)

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	logger.New().WithRequest(r).
		WithField("status", rec.status).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("request served")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func handlerLog(r *http.Request, handler string) *logrus.Entry {
	return logger.New().WithRequest(r).WithField("handler", handler)
}

func writeJSON(w http.ResponseWriter, log *logrus.Entry, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	handlerLog(r, "healthz").Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "options")
	writeJSON(w, log, http.StatusOK, filter.BuildOptions(s.ctrl.Records(), r.URL.Query().Get("state")))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "suggest")
	q := r.URL.Query()
	opts := filter.BuildOptions(s.ctrl.Records(), q.Get("state"))

	var candidates []string
	switch q.Get("field") {
	case "state":
		candidates = opts.States
	case "hospital":
		candidates = opts.Hospitals
	case "infection":
		candidates = opts.InfectionTypes
	default:
		log.WithField("field", q.Get("field")).Warn("unknown suggest field")
		http.Error(w, "field must be one of state, hospital, infection", http.StatusBadRequest)
		return
	}
	writeJSON(w, log, http.StatusOK, filter.Suggest(candidates, q.Get("q")))
}

type stateResponse struct {
	State  filter.State  `json:"state"`
	Camera geo.Transform `json:"camera"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v := s.ctrl.View()
	writeJSON(w, handlerLog(r, "state"), http.StatusOK, stateResponse{State: v.State, Camera: v.Camera})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, handlerLog(r, "view"), http.StatusOK, s.ctrl.View())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "events")
	var ev filter.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		log.WithError(err).Warn("bad event payload")
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}
	if _, err := s.ctrl.Dispatch(ev); err != nil {
		log.WithError(err).Warn("event rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.WithField("event", ev.Type).WithField("value", ev.Value).Info("event applied")
	writeJSON(w, log, http.StatusOK, s.ctrl.View())
}

func (s *Server) handleStateAggregates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agg := aggregator.AggregateByState(s.ctrl.Records(), orAll(q.Get("year")), orAll(q.Get("type")))
	writeJSON(w, handlerLog(r, "aggregates.states"), http.StatusOK, agg)
}

func (s *Server) handleHospitalAggregates(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "aggregates.hospitals")
	q := r.URL.Query()
	state := q.Get("state")
	if state == "" {
		http.Error(w, "missing state", http.StatusBadRequest)
		return
	}
	agg := aggregator.AggregateByHospital(s.ctrl.Records(), state, orAll(q.Get("year")), orAll(q.Get("type")))
	writeJSON(w, log, http.StatusOK, agg)
}

// handleMap applies the interaction carried in the query, then draws the
// current view. Reset runs first and a selection last.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "map")
	q := r.URL.Query()

	var events []filter.Event
	if q.Has("reset") {
		events = append(events, filter.Event{Type: filter.Reset})
	}
	if q.Has("year") {
		events = append(events, filter.Event{Type: filter.SetYear, Value: q.Get("year")})
	}
	if q.Has("type") {
		events = append(events, filter.Event{Type: filter.SetInfectionType, Value: q.Get("type")})
	}
	if q.Has("select") {
		events = append(events, filter.Event{Type: filter.SelectState, Value: q.Get("select")})
	}
	for _, ev := range events {
		if _, err := s.ctrl.Dispatch(ev); err != nil {
			log.WithError(err).Warn("event rejected")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var buf bytes.Buffer
	if err := s.ctrl.RenderMap(&buf); err != nil {
		log.WithError(err).Error("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func exportCriteria(r *http.Request) export.Criteria {
	q := r.URL.Query()
	return export.Criteria{
		State:         orAll(q.Get("state")),
		HospitalID:    orAll(q.Get("hospital")),
		InfectionType: orAll(q.Get("infection")),
	}
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "export.csv")
	attachment(w, "text/csv", export.CSVFilename)
	n, err := export.WriteCSV(w, s.ctrl.Records(), exportCriteria(r))
	if err != nil {
		log.WithError(err).Error("export failed")
		return
	}
	log.WithField("rows", n).Info("csv exported")
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "export.xlsx")
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFilename)
	n, err := export.WriteXLSX(w, s.ctrl.Records(), exportCriteria(r))
	if err != nil {
		log.WithError(err).Error("export failed")
		return
	}
	log.WithField("rows", n).Info("workbook exported")
}

func (s *Server) handleLineGraph(w http.ResponseWriter, r *http.Request) {
	log := handlerLog(r, "linegraph")
	q := r.URL.Query()
	hospital := q.Get("hospital")
	width, _ := strconv.Atoi(q.Get("width"))
	height, _ := strconv.Atoi(q.Get("height"))

	lines, err := drilldown.Lines(s.ctrl.Records(), hospital)
	if errors.Is(err, drilldown.ErrUnknownHospital) {
		log.WithField("hospital", hospital).Warn("unknown hospital")
		http.Error(w, "unknown hospital", http.StatusNotFound)
		return
	}
	if len(lines) == 0 {
		http.Error(w, drilldown.ErrNoObservations.Error(), http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := drilldown.Render(&buf, hospital, lines, width, height); err != nil {
		log.WithError(err).Error("chart render failed")
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func orAll(v string) string {
	if v == "" {
		return types.All
	}
	return v
}
