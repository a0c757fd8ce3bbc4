package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hai-map-go/internal/types"
)

func TestReduceTransitions(t *testing.T) {
	s := Initial()
	assert.False(t, s.HasSelection())

	s = Reduce(s, Event{Type: SetYear, Value: "21"})
	s = Reduce(s, Event{Type: SelectState, Value: "Texas"})
	assert.Equal(t, State{Year: "21", InfectionType: types.All, SelectedState: "Texas"}, s)

	s = Reduce(s, Event{Type: SetInfectionType, Value: "CAUTI"})
	assert.True(t, s.HasSelection(), "filter changes keep the selection")
	assert.Equal(t, "CAUTI", s.InfectionType)

	s = Reduce(s, Event{Type: Reset})
	assert.Equal(t, State{Year: "21", InfectionType: "CAUTI"}, s)

	s = Reduce(s, Event{Type: SetYear})
	assert.Equal(t, types.All, s.Year)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := Initial()
	_ = Reduce(before, Event{Type: SelectState, Value: "Ohio"})
	assert.Equal(t, Initial(), before)
}

func TestEventValidate(t *testing.T) {
	assert.NoError(t, Event{Type: Reset}.Validate())
	assert.NoError(t, Event{Type: SetYear, Value: "20"}.Validate())
	assert.Error(t, Event{Type: SelectState}.Validate())
	assert.Error(t, Event{Type: "zoom"}.Validate())
}

func records() []types.InfectionRecord {
	return []types.InfectionRecord{
		{HospitalID: "Zeta", State: "Texas", MeasureName: "CAUTI: Observed Cases", StartDate: "1/1/21"},
		{HospitalID: "Alpha", State: "Ohio", MeasureName: "MRSA Observed Cases", StartDate: "1/1/20"},
		{HospitalID: "Beta", State: "Texas", MeasureName: "Catheter Associated Urinary Tract Infections (ICU + select Wards): Observed Cases", StartDate: "1/1/19"},
		{HospitalID: "Alpha", State: "Ohio", MeasureName: "SSI - Colon Surgery: Observed Cases", StartDate: "5/1/20"},
	}
}

func TestBuildOptions(t *testing.T) {
	opts := BuildOptions(records(), types.All)
	assert.Equal(t, []string{"19", "20", "21"}, opts.Years)
	assert.Equal(t, []string{"all", "19", "20", "21"}, opts.SliderValues)
	assert.Equal(t, []string{"CAUTI", "MRSA bacteremia", "SSI: Colon"}, opts.InfectionTypes)
	assert.Equal(t, []string{"Ohio", "Texas"}, opts.States)
	assert.Equal(t, []string{"Alpha", "Beta", "Zeta"}, opts.Hospitals)

	assert.Equal(t, []string{"Beta", "Zeta"}, BuildOptions(records(), "Texas").Hospitals)
	assert.Empty(t, Hospitals(records(), "Maine"))
}

func TestYearAt(t *testing.T) {
	values := SliderValues([]string{"20", "21"})
	assert.Equal(t, "all", YearAt(values, 0))
	assert.Equal(t, "21", YearAt(values, 2))
	assert.Equal(t, "21", YearAt(values, 9))
	assert.Equal(t, "all", YearAt(values, -1))
	assert.Equal(t, "all", YearAt(nil, 3))
}

func TestSuggest(t *testing.T) {
	opts := []string{"New York", "New Mexico", "Texas", "Nevada"}
	assert.Equal(t, []string{"New York", "New Mexico"}, Suggest(opts, "new"))
	assert.Equal(t, []string{"Texas"}, Suggest(opts, " TEX "))
	assert.Equal(t, opts, Suggest(opts, ""))
	assert.Empty(t, Suggest(opts, "zz"))
}
