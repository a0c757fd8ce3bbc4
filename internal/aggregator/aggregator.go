package aggregator

import (
	"math"
	"strconv"
	"strings"
	"time"

	"hai-map-go/internal/normalize"
	"hai-map-go/internal/types"
)

// Criteria selects records. Empty or "all" fields match everything.
type Criteria struct {
	Year          string
	InfectionType string
	State         string
	HospitalID    string
}

func wildcard(v string) bool {
	return v == "" || v == types.All
}

// Match reports whether r passes every non-wildcard criterion.
func (c Criteria) Match(r types.InfectionRecord) bool {
	if !wildcard(c.State) && r.State != c.State {
		return false
	}
	if !wildcard(c.HospitalID) && r.HospitalID != c.HospitalID {
		return false
	}
	if !wildcard(c.Year) && RecordYear(r) != c.Year {
		return false
	}
	if !wildcard(c.InfectionType) && normalize.InfectionName(r.MeasureName) != c.InfectionType {
		return false
	}
	return true
}

// Filter returns the records matching c, in input order.
func Filter(records []types.InfectionRecord, c Criteria) []types.InfectionRecord {
	var out []types.InfectionRecord
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// RecordYear is the third "/"-separated component of start_date ("20" for "6/1/20").
func RecordYear(r types.InfectionRecord) string {
	parts := strings.Split(r.StartDate, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// ParseScore coerces a score cell to a number; anything unparseable is 0.
func ParseScore(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// ParseDate parses "M/D/YY" dates. Unparseable dates return the zero time,
// which orders before every real date.
func ParseDate(s string) time.Time {
	t, err := time.Parse("1/2/06", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AggregateByState sums scores by state over records matching year and infectionType.
func AggregateByState(records []types.InfectionRecord, year, infectionType string) types.StateAggregate {
	c := Criteria{Year: year, InfectionType: infectionType}
	out := types.StateAggregate{}
	for _, r := range records {
		if !c.Match(r) {
			continue
		}
		out[r.State] += r.Score
	}
	return out
}

type categoryTotal struct {
	score  float64
	latest types.InfectionRecord
	date   time.Time
}

type hospitalGroup struct {
	first      types.InfectionRecord
	categories map[string]*categoryTotal
	order      []string
	latest     types.InfectionRecord
	latestDate time.Time
	labels     map[string]int
	labelOrder []string
}

func (g *hospitalGroup) add(r types.InfectionRecord, category string) {
	d := ParseDate(r.StartDate)
	ct, ok := g.categories[category]
	if !ok {
		ct = &categoryTotal{latest: r, date: d}
		g.categories[category] = ct
		g.order = append(g.order, category)
	} else if d.After(ct.date) {
		ct.latest, ct.date = r, d
	}
	ct.score += r.Score

	if d.After(g.latestDate) {
		g.latest, g.latestDate = r, d
	}

	label := benchmarkLabel(r)
	if _, seen := g.labels[label]; !seen {
		g.labelOrder = append(g.labelOrder, label)
	}
	g.labels[label]++
}

func benchmarkLabel(r types.InfectionRecord) string {
	if r.ComparedToNational == "" {
		return types.NoData
	}
	return r.ComparedToNational
}

// groupHospitals indexes records by hospital then category in a single pass,
// returning groups in first-seen hospital order.
func groupHospitals(records []types.InfectionRecord) ([]string, map[string]*hospitalGroup) {
	groups := map[string]*hospitalGroup{}
	var order []string
	for _, r := range records {
		g, ok := groups[r.HospitalID]
		if !ok {
			g = &hospitalGroup{
				first:      r,
				categories: map[string]*categoryTotal{},
				latest:     r,
				latestDate: ParseDate(r.StartDate),
				labels:     map[string]int{},
			}
			groups[r.HospitalID] = g
			order = append(order, r.HospitalID)
		}
		g.add(r, normalize.InfectionName(r.MeasureName))
	}
	return order, groups
}

func (g *hospitalGroup) mostFrequentBenchmark() string {
	best, count := types.NoData, 0
	for _, label := range g.labelOrder {
		if n := g.labels[label]; n > count {
			best, count = label, n
		}
	}
	return best
}

// AggregateByHospital groups the state's records by hospital. Year and
// infectionType narrow the records first; hospitals left with no records are
// omitted. With infectionType "all" the total spans every category.
func AggregateByHospital(records []types.InfectionRecord, state, year, infectionType string) []types.HospitalAggregate {
	filtered := Filter(records, Criteria{State: state, Year: year, InfectionType: infectionType})
	order, groups := groupHospitals(filtered)

	out := make([]types.HospitalAggregate, 0, len(order))
	for _, id := range order {
		g := groups[id]
		agg := types.HospitalAggregate{
			HospitalID:            id,
			Benchmark:             benchmarkLabel(g.latest),
			MostFrequentBenchmark: g.mostFrequentBenchmark(),
			Lon:                   g.first.Lon,
			Lat:                   g.first.Lat,
		}
		if wildcard(infectionType) {
			for _, c := range g.order {
				agg.TotalScore += g.categories[c].score
			}
		} else if ct, ok := g.categories[infectionType]; ok {
			agg.TotalScore = ct.score
			agg.Benchmark = benchmarkLabel(ct.latest)
		}
		out = append(out, agg)
	}
	return out
}

// HospitalCategoryTotals sums one hospital's scores per normalized category.
func HospitalCategoryTotals(records []types.InfectionRecord, hospitalID string) map[string]float64 {
	out := map[string]float64{}
	for _, r := range records {
		if r.HospitalID != hospitalID {
			continue
		}
		out[normalize.InfectionName(r.MeasureName)] += r.Score
	}
	return out
}

// Total sums every value of a state aggregate.
func Total(agg types.StateAggregate) float64 {
	var sum float64
	for _, v := range agg {
		sum += v
	}
	return sum
}
