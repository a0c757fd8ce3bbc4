// Package controller owns the single interaction state of the map. Events are
// applied one at a time; views are rebuilt from the records on every read.
package controller

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/config"
	"hai-map-go/internal/dataset"
	"hai-map-go/internal/filter"
	"hai-map-go/internal/geo"
	"hai-map-go/internal/logger"
	"hai-map-go/internal/render"
	"hai-map-go/internal/types"
)

// Data is the loaded input: state boundaries and the infection table.
type Data struct {
	Geo     *geo.FeatureCollection
	Records []types.InfectionRecord
}

// Load reads both inputs concurrently. Either failure fails the whole load.
func Load(ctx context.Context, cfg config.Config) (*Data, error) {
	src := dataset.Source{MaxRetries: cfg.Fetch.MaxRetries, Timeout: cfg.Fetch.Timeout}
	var d Data
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fc, err := src.LoadGeo(ctx, cfg.GeoPath)
		if err != nil {
			return fmt.Errorf("load boundaries: %w", err)
		}
		d.Geo = fc
		return nil
	})
	g.Go(func() error {
		records, err := src.LoadRecords(ctx, cfg.DataPath)
		if err != nil {
			return fmt.Errorf("load infections: %w", err)
		}
		d.Records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// View is what the map shows for one filter state.
type View struct {
	State       filter.State              `json:"state"`
	States      types.StateAggregate      `json:"states"`
	Hospitals   []types.HospitalAggregate `json:"hospitals"`
	Camera      geo.Transform             `json:"camera"`
	ColorDomain [2]float64                `json:"color_domain"`
}

// Viewport is the drawing surface and the projection fitted to it.
type Viewport struct {
	Width, Height float64
	Projection    *geo.AlbersUSA
}

func NewViewport(m config.MapConfig) Viewport {
	return Viewport{
		Width:      m.Width,
		Height:     m.Height,
		Projection: geo.NewAlbersUSA(m.Scale, m.Width/2, m.Height/2),
	}
}

// BuildView derives the view of st from the data alone. Hospital aggregates
// and the fitted camera exist only while a state is selected.
func BuildView(d *Data, vp Viewport, domain config.ColorConfig, st filter.State) View {
	v := View{
		State:       st,
		States:      aggregator.AggregateByState(d.Records, st.Year, st.InfectionType),
		Hospitals:   []types.HospitalAggregate{},
		Camera:      geo.Identity,
		ColorDomain: [2]float64{domain.DomainMin, domain.DomainMax},
	}
	if !st.HasSelection() {
		return v
	}
	if hs := aggregator.AggregateByHospital(d.Records, st.SelectedState, st.Year, st.InfectionType); hs != nil {
		v.Hospitals = hs
	}
	if d.Geo == nil {
		return v
	}
	if f, ok := d.Geo.Find(st.SelectedState); ok {
		if shape, ok := geo.ProjectFeature(vp.Projection, f); ok {
			v.Camera = geo.Fit(shape.Bounds, vp.Width, vp.Height)
		}
	}
	return v
}

type Controller struct {
	data     *Data
	cfg      config.Config
	viewport Viewport

	mu    sync.RWMutex
	state filter.State
}

func New(d *Data, cfg config.Config) *Controller {
	return &Controller{
		data:     d,
		cfg:      cfg,
		viewport: NewViewport(cfg.Map),
		state:    filter.Initial(),
	}
}

func (c *Controller) Records() []types.InfectionRecord { return c.data.Records }

func (c *Controller) State() filter.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dispatch validates ev and applies it to the current state.
func (c *Controller) Dispatch(ev filter.Event) (filter.State, error) {
	if err := ev.Validate(); err != nil {
		return filter.State{}, err
	}
	c.mu.Lock()
	prev := c.state
	c.state = filter.Reduce(c.state, ev)
	next := c.state
	c.mu.Unlock()

	logger.New().WithField("component", "controller").
		WithField("event", ev.Type).
		WithField("value", ev.Value).
		WithField("from", prev.SelectedState).
		WithField("to", next.SelectedState).
		Debug("event applied")
	return next, nil
}

// View builds the view of the current state.
func (c *Controller) View() View {
	return BuildView(c.data, c.viewport, c.cfg.Color, c.State())
}

// Scene turns a view into a drawable map scene.
func (c *Controller) Scene(v View) render.Scene {
	var features []geo.Feature
	if c.data.Geo != nil {
		features = c.data.Geo.Features
	}
	return render.Scene{
		Width:         c.viewport.Width,
		Height:        c.viewport.Height,
		Projection:    c.viewport.Projection,
		Features:      features,
		Totals:        v.States,
		SelectedState: v.State.SelectedState,
		InfectionType: v.State.InfectionType,
		Hospitals:     v.Hospitals,
		Camera:        v.Camera,
		Scale:         render.Scale{Min: v.ColorDomain[0], Max: v.ColorDomain[1]},
		Links:         render.DefaultLinks(),
	}
}

// RenderMap draws the current view as SVG.
func (c *Controller) RenderMap(w io.Writer) error {
	return render.Map(w, c.Scene(c.View()))
}
