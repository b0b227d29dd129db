package form

import (
	"math"

	"github.com/signalsfoundry/tradespace-search/core"
)

// MinMaxRange is a min, max and alternatives-count triple. The count follows
// the bounds: equal bounds force a single alternative and separating them
// again restores two.
type MinMaxRange struct {
	Min   *Input
	Max   *Input
	Count *LinkedInput
}

// NewMinMaxRange wires a triple. unit labels the count, e.g. "alternatives".
func NewMinMaxRange(name string, lo, hi float64, count int, unit string) *MinMaxRange {
	m := &MinMaxRange{
		Min:   NewInput(name+"Min", lo),
		Max:   NewInput(name+"Max", hi),
		Count: NewLinkedInput(name+"Num", float64(count), NewUnitLabel(unit)),
	}

	// Runs before the bound handlers below.
	for _, in := range []*Input{m.Min, m.Max, m.Count.Number} {
		in.OnChange(func(*Input) { m.adjustCount() })
	}
	m.Min.OnChange(func(in *Input) {
		if m.Max.Value() < in.Value() {
			m.Max.Set(in.Value())
			m.Max.Trigger()
		}
	})
	m.Max.OnChange(func(in *Input) {
		if m.Min.Value() > in.Value() {
			m.Min.Set(in.Value())
			m.Min.Trigger()
		}
	})
	return m
}

func (m *MinMaxRange) adjustCount() {
	if m.Min.Value() == m.Max.Value() {
		m.Count.Assign(1)
	} else if m.Count.Value() == 1 {
		m.Count.Assign(2)
	}
}

// Steps is the alternatives count with any fraction dropped.
func (m *MinMaxRange) Steps() int { return int(math.Trunc(m.Count.Value())) }

// RangeInput snapshots the triple.
func (m *MinMaxRange) RangeInput() core.RangeInput {
	return core.RangeInput{Min: m.Min.Value(), Max: m.Max.Value(), Steps: m.Steps()}
}
