package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/signalsfoundry/tradespace-search/model"
)

// ErrInvalidRange is returned for range inputs that cannot be expanded.
var ErrInvalidRange = errors.New("invalid range")

// RangeInput is a min/max/step-count triple as entered on the form.
type RangeInput struct {
	Min   float64
	Max   float64
	Steps int
}

// Scalar returns a single-step range at v.
func Scalar(v float64) RangeInput { return RangeInput{Min: v, Max: v, Steps: 1} }

// Validate enforces Steps >= 1.
func (r RangeInput) Validate() error {
	if r.Steps < 1 {
		return fmt.Errorf("%w: step count must be at least 1 (got %d)", ErrInvalidRange, r.Steps)
	}
	return nil
}

// ParseRangeInput coerces the three raw widget strings.
func ParseRangeInput(min, max, steps string) (RangeInput, error) {
	lo, err := strconv.ParseFloat(strings.TrimSpace(min), 64)
	if err != nil {
		return RangeInput{}, fmt.Errorf("%w: min %q: %v", ErrInvalidRange, min, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(max), 64)
	if err != nil {
		return RangeInput{}, fmt.Errorf("%w: max %q: %v", ErrInvalidRange, max, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(steps))
	if err != nil {
		return RangeInput{}, fmt.Errorf("%w: step count %q: %v", ErrInvalidRange, steps, err)
	}
	r := RangeInput{Min: lo, Max: hi, Steps: n}
	if err := r.Validate(); err != nil {
		return RangeInput{}, err
	}
	return r, nil
}

// FormatQuantitativeRange summarises the range: a scalar when there is a
// single step, otherwise a QuantitativeRange descriptor.
func FormatQuantitativeRange(r RangeInput) (model.Quantity, error) {
	if err := r.Validate(); err != nil {
		return model.Quantity{}, err
	}
	if r.Steps == 1 {
		return model.ScalarQuantity(r.Min), nil
	}
	return model.RangeQuantity(model.QuantitativeRange{
		MinValue:    r.Min,
		MaxValue:    r.Max,
		NumberSteps: r.Steps,
		StepSize:    (r.Max - r.Min) / float64(r.Steps-1),
	}), nil
}

// ListQuantitativeRange enumerates every value of the range, min first and
// max last.
func ListQuantitativeRange(r RangeInput) ([]float64, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	list := make([]float64, 0, r.Steps)
	list = append(list, r.Min)
	for i := 1; i < r.Steps; i++ {
		list = append(list, r.Min+(float64(i)/float64(r.Steps-1))*(r.Max-r.Min))
	}
	return list, nil
}
