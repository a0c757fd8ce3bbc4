// Package filter holds the interaction state of the map and the reducer that
// advances it. Rendering and aggregation read State; only Reduce changes it.
package filter

import (
	"fmt"

	"hai-map-go/internal/types"
)

type State struct {
	Year          string `json:"year"`
	InfectionType string `json:"infection_type"`
	SelectedState string `json:"selected_state,omitempty"`
}

// Initial is the no-state-selected state with every filter at "all".
func Initial() State {
	return State{Year: types.All, InfectionType: types.All}
}

func (s State) HasSelection() bool {
	return s.SelectedState != ""
}

type EventType string

const (
	SelectState      EventType = "select_state"
	SetYear          EventType = "set_year"
	SetInfectionType EventType = "set_infection_type"
	Reset            EventType = "reset"
)

type Event struct {
	Type  EventType `json:"type"`
	Value string    `json:"value,omitempty"`
}

func (e Event) Validate() error {
	switch e.Type {
	case SelectState:
		if e.Value == "" {
			return fmt.Errorf("%s requires a state name", e.Type)
		}
	case SetYear, SetInfectionType, Reset:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func orAll(v string) string {
	if v == "" {
		return types.All
	}
	return v
}

// Reduce returns the state after ev. Filter changes keep the selection; reset
// clears the selection and keeps the filters.
func Reduce(s State, ev Event) State {
	switch ev.Type {
	case SelectState:
		s.SelectedState = ev.Value
	case SetYear:
		s.Year = orAll(ev.Value)
	case SetInfectionType:
		s.InfectionType = orAll(ev.Value)
	case Reset:
		s.SelectedState = ""
	}
	return s
}
