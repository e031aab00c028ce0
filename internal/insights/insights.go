// Package insights summarizes the measurements recorded for an optimization.
package insights

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/store"
)

// TargetSummary holds descriptive statistics of one target.
type TargetSummary struct {
	Name   string         `json:"name"`
	Mode   objective.Mode `json:"mode"`
	Count  int            `json:"count"`
	Mean   float64        `json:"mean"`
	StdDev float64        `json:"std_dev"`
	Min    float64        `json:"min"`
	Max    float64        `json:"max"`
}

// Entry is a measurement selected by the report.
type Entry struct {
	MeasurementID int64                  `json:"measurement_id"`
	Parameters    map[string]interface{} `json:"parameters"`
	TargetValues  map[string]float64     `json:"target_values"`
}

// Report is the summary of an optimization's measurements.
type Report struct {
	Measurements int             `json:"measurements"`
	Targets      []TargetSummary `json:"targets"`
	// Best is set for single-target objectives.
	Best *Entry `json:"best,omitempty"`
	// ParetoFront is set for multi-target objectives.
	ParetoFront       []Entry            `json:"pareto_front,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// Summarize computes the report of ms against obj. Measurements lacking a
// value for some target are ignored for that target's statistics and for
// best/front selection.
func Summarize(obj objective.Descriptor, ms []store.Measurement) Report {
	r := Report{Measurements: len(ms), Targets: make([]TargetSummary, 0, len(obj.Targets))}

	for _, t := range obj.Targets {
		values := make([]float64, 0, len(ms))
		for _, m := range ms {
			if v, ok := m.TargetValues[t.Name]; ok && !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		r.Targets = append(r.Targets, summarize(t, values))
	}

	complete := make([]store.Measurement, 0, len(ms))
	for _, m := range ms {
		if hasAll(obj, m) {
			complete = append(complete, m)
		}
	}
	if len(complete) == 0 {
		return r
	}

	if obj.IsPareto() {
		r.ParetoFront = paretoFront(obj, complete)
		return r
	}

	t := obj.Targets[0]
	best := complete[0]
	for _, m := range complete[1:] {
		if Score(t, m.TargetValues[t.Name]) > Score(t, best.TargetValues[t.Name]) {
			best = m
		}
	}
	e := entry(best)
	r.Best = &e
	return r
}

func summarize(t objective.Target, values []float64) TargetSummary {
	s := TargetSummary{Name: t.Name, Mode: t.Mode, Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		s.StdDev = 0
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	return s
}

// Score maps a target value onto a scale where larger is better: the value
// itself for MAX, its negation for MIN and the negated distance to the
// middle of the bounds for MATCH.
func Score(t objective.Target, v float64) float64 {
	switch t.Mode {
	case objective.ModeMin:
		return -v
	case objective.ModeMatch:
		if t.Bounds == nil {
			return -math.Abs(v)
		}
		mid := (t.Bounds.Lower + t.Bounds.Upper) / 2
		return -math.Abs(v - mid)
	default:
		return v
	}
}

// paretoFront returns the non-dominated measurements in recording order.
func paretoFront(obj objective.Descriptor, ms []store.Measurement) []Entry {
	scores := make([][]float64, len(ms))
	for i, m := range ms {
		scores[i] = make([]float64, len(obj.Targets))
		for j, t := range obj.Targets {
			scores[i][j] = Score(t, m.TargetValues[t.Name])
		}
	}

	front := make([]Entry, 0)
	for i := range ms {
		dominated := false
		for j := range ms {
			if i != j && dominates(scores[j], scores[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, entry(ms[i]))
		}
	}
	sort.SliceStable(front, func(a, b int) bool { return front[a].MeasurementID < front[b].MeasurementID })
	return front
}

// dominates reports whether a is at least as good as b everywhere and
// strictly better somewhere.
func dominates(a, b []float64) bool {
	strictly := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			strictly = true
		}
	}
	return strictly
}

func hasAll(obj objective.Descriptor, m store.Measurement) bool {
	for _, t := range obj.Targets {
		v, ok := m.TargetValues[t.Name]
		if !ok || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func entry(m store.Measurement) Entry {
	return Entry{MeasurementID: m.ID, Parameters: m.Parameters, TargetValues: m.TargetValues}
}
