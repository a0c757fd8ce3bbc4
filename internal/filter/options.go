package filter

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/normalize"
	"hai-map-go/internal/types"
)

// Options are the distinct values offered by the filter controls.
type Options struct {
	Years          []string `json:"years"`
	SliderValues   []string `json:"slider_values"`
	InfectionTypes []string `json:"infection_types"`
	States         []string `json:"states"`
	Hospitals      []string `json:"hospitals"`
}

func sortedDistinct(records []types.InfectionRecord, key func(types.InfectionRecord) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Years lists the distinct record years in string order.
func Years(records []types.InfectionRecord) []string {
	return sortedDistinct(records, aggregator.RecordYear)
}

// InfectionTypes lists normalized categories in first-seen order.
func InfectionTypes(records []types.InfectionRecord) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		c := normalize.InfectionName(r.MeasureName)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func States(records []types.InfectionRecord) []string {
	return sortedDistinct(records, func(r types.InfectionRecord) string { return r.State })
}

// Hospitals lists hospital ids, narrowed to one state unless state is "all".
func Hospitals(records []types.InfectionRecord, state string) []string {
	if state != "" && state != types.All {
		records = aggregator.Filter(records, aggregator.Criteria{State: state})
	}
	return sortedDistinct(records, func(r types.InfectionRecord) string { return r.HospitalID })
}

// SliderValues prefixes the years with "all" so slider position 0 means every year.
func SliderValues(years []string) []string {
	return append([]string{types.All}, years...)
}

// YearAt maps a slider position to its year, clamping out-of-range positions.
func YearAt(values []string, index int) string {
	if len(values) == 0 {
		return types.All
	}
	if index < 0 {
		index = 0
	}
	if index >= len(values) {
		index = len(values) - 1
	}
	return values[index]
}

// BuildOptions gathers every control's values; hospitals follow state.
func BuildOptions(records []types.InfectionRecord, state string) Options {
	years := Years(records)
	return Options{
		Years:          years,
		SliderValues:   SliderValues(years),
		InfectionTypes: InfectionTypes(records),
		States:         States(records),
		Hospitals:      Hospitals(records, state),
	}
}

// Suggest keeps the options containing query, ignoring case, in their original order.
func Suggest(options []string, query string) []string {
	// a Caser is stateful, so each call folds with its own
	folder := cases.Fold()
	q := folder.String(strings.TrimSpace(query))
	out := []string{}
	for _, o := range options {
		if strings.Contains(folder.String(o), q) {
			out = append(out, o)
		}
	}
	return out
}
