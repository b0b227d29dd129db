package form

import "strings"

// Input is a single numeric widget. Set writes the value without notifying
// anyone; Change behaves like a user edit and runs the change handlers.
type Input struct {
	name     string
	value    float64
	handlers []func(*Input)
}

// NewInput constructs an input holding v.
func NewInput(name string, v float64) *Input {
	return &Input{name: name, value: v}
}

func (in *Input) Name() string   { return in.name }
func (in *Input) Value() float64 { return in.value }

// Set writes v without running handlers.
func (in *Input) Set(v float64) { in.value = v }

// Change writes v and runs the change handlers.
func (in *Input) Change(v float64) {
	in.value = v
	in.Trigger()
}

// Trigger runs the change handlers in registration order.
func (in *Input) Trigger() {
	for _, fn := range in.handlers {
		fn(in)
	}
}

// OnChange registers fn to run after every change.
func (in *Input) OnChange(fn func(*Input)) {
	in.handlers = append(in.handlers, fn)
}

// UnitLabel is a unit caption such as "days" whose plural suffix follows the
// value of the input it belongs to.
type UnitLabel struct {
	text string
}

func NewUnitLabel(text string) *UnitLabel { return &UnitLabel{text: text} }

func (l *UnitLabel) Text() string { return l.text }

// Pluralize drops a trailing "s" when v is exactly 1 and adds one when v is
// greater than 1. Other values leave the text alone.
func (l *UnitLabel) Pluralize(v float64) {
	switch {
	case v == 1:
		l.text = strings.TrimSuffix(l.text, "s")
	case v > 1:
		if !strings.HasSuffix(l.text, "s") {
			l.text += "s"
		}
	}
}

// LinkedInput pairs a slider with a number box that always show the same
// value.
type LinkedInput struct {
	Range  *Input
	Number *Input
	Labels []*UnitLabel
}

// NewLinkedInput wires a slider and a number box at v. Labels are pluralized
// for the initial value.
func NewLinkedInput(name string, v float64, labels ...*UnitLabel) *LinkedInput {
	l := &LinkedInput{
		Range:  NewInput(name+"Range", v),
		Number: NewInput(name, v),
		Labels: labels,
	}

	l.Range.OnChange(func(r *Input) {
		if l.Number.Value() != r.Value() {
			l.Number.Set(r.Value())
			l.Number.Trigger()
		}
	})
	l.Number.OnChange(func(n *Input) {
		if l.Range.Value() != n.Value() {
			l.Range.Set(n.Value())
		}
		l.pluralize(n.Value())
	})

	l.pluralize(v)
	return l
}

// Value is the number box value.
func (l *LinkedInput) Value() float64 { return l.Number.Value() }

// Assign writes v to both sides and updates the labels without running any
// change handler.
func (l *LinkedInput) Assign(v float64) {
	l.Number.Set(v)
	l.Range.Set(v)
	l.pluralize(v)
}

func (l *LinkedInput) pluralize(v float64) {
	for _, lbl := range l.Labels {
		lbl.Pluralize(v)
	}
}
