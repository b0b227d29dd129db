package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TypeQuantitativeRange and TypeQuantitativeValue are the "@type" tags of the
// two numeric descriptor objects understood by the analysis service.
const (
	TypeQuantitativeRange = "QuantitativeRange"
	TypeQuantitativeValue = "QuantitativeValue"
)

// QuantitativeRange describes a swept numeric parameter.
type QuantitativeRange struct {
	MinValue    float64 `json:"minValue"`
	MaxValue    float64 `json:"maxValue"`
	NumberSteps int     `json:"numberSteps"`
	StepSize    float64 `json:"stepSize"`
	Type        string  `json:"@type"`
}

// QuantitativeValue is a closed interval without a step count, used for the
// mission target bounds.
type QuantitativeValue struct {
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
	Type     string  `json:"@type"`
}

// NewQuantitativeValue builds a tagged interval.
func NewQuantitativeValue(min, max float64) QuantitativeValue {
	return QuantitativeValue{MinValue: min, MaxValue: max, Type: TypeQuantitativeValue}
}

// Contains reports whether v lies in [MinValue, MaxValue].
func (q QuantitativeValue) Contains(v float64) bool {
	return v >= q.MinValue && v <= q.MaxValue
}

// Quantity is either a scalar or a QuantitativeRange. On the wire a scalar is
// a bare JSON number.
type Quantity struct {
	Scalar float64
	Range  *QuantitativeRange
}

// ScalarQuantity wraps a single value.
func ScalarQuantity(v float64) Quantity { return Quantity{Scalar: v} }

// RangeQuantity wraps a range descriptor.
func RangeQuantity(r QuantitativeRange) Quantity {
	if r.Type == "" {
		r.Type = TypeQuantitativeRange
	}
	return Quantity{Range: &r}
}

// IsRange reports whether the quantity carries a range descriptor.
func (q Quantity) IsRange() bool { return q.Range != nil }

// Values enumerates the quantity: the scalar itself or every step of the range.
func (q Quantity) Values() []float64 {
	if q.Range == nil {
		return []float64{q.Scalar}
	}
	n := q.Range.NumberSteps
	if n <= 1 {
		return []float64{q.Range.MinValue}
	}
	out := make([]float64, n)
	for i := range n {
		out[i] = q.Range.MinValue + float64(i)/float64(n-1)*(q.Range.MaxValue-q.Range.MinValue)
	}
	return out
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Range != nil {
		return json.Marshal(q.Range)
	}
	return json.Marshal(q.Scalar)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty quantity")
	}
	if data[0] == '{' {
		var r QuantitativeRange
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode quantitative range: %w", err)
		}
		*q = Quantity{Range: &r}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode quantity: %w", err)
	}
	*q = Quantity{Scalar: v}
	return nil
}
