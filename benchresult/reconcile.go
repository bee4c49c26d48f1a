// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchresult

import (
	"errors"
	"fmt"

	"github.com/aclements/go-moremath/stats"
)

// A Point is one normalized chart entry: one variant (V3) or one named
// sub-benchmark (V1), in payload order.
type Point struct {
	Label string

	// Time is the aggregated CPU time for this entry. V3 entries
	// average their samples; V1 entries carry the reported value
	// directly.
	Time float64

	// Memory is the aggregated maximum resident memory in kB. V1
	// payloads predate the memory metric and report 0 here; see
	// HasMemory.
	Memory float64
}

// ErrEmptySampleSet reports an aggregation over zero samples. The
// reconciler's presence guard makes this unreachable from Reconcile,
// but the guard is checked rather than assumed.
var ErrEmptySampleSet = errors.New("benchresult: empty sample set")

// mean returns the unweighted arithmetic mean of xs.
func mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySampleSet
	}
	return stats.Sample{Xs: xs}.Mean(), nil
}

// Reconcile normalizes a decoded payload into chart points.
//
// For V3 payloads, each (tab, run) pair whose run has time samples
// becomes one point: the label is the payload's tab title when echoed,
// otherwise titles[i] (the submitting session's titles), otherwise a
// positional name; time and memory are unweighted means over the
// samples. A run with no time samples is dropped, not zero-filled: a
// variant that failed to build disappears from the chart.
//
// For V1 payloads, each named sub-benchmark becomes one point with no
// averaging.
//
// An unknown payload reconciles to an empty list and no error.
func Reconcile(p *Payload, titles []string) ([]Point, error) {
	switch p.Kind {
	case KindUnknown:
		return nil, nil
	case KindV1:
		var points []Point
		for _, b := range p.V1.Benchmarks {
			points = append(points, Point{Label: b.Name, Time: float64(b.CPUTime)})
		}
		return points, nil
	case KindV3:
		var points []Point
		for i, run := range p.Runs {
			if len(run.Times) == 0 {
				continue
			}
			times, err := run.Times.Floats()
			if err != nil {
				return nil, err
			}
			t, err := mean(times)
			if err != nil {
				return nil, err
			}
			var m float64
			if len(run.Memories) > 0 {
				mems, err := run.Memories.Floats()
				if err != nil {
					return nil, err
				}
				if m, err = mean(mems); err != nil {
					return nil, err
				}
			}
			points = append(points, Point{Label: label(p, titles, i), Time: t, Memory: m})
		}
		return points, nil
	}
	return nil, fmt.Errorf("benchresult: unsupported payload kind %v", p.Kind)
}

// label picks the display name for the i'th run.
func label(p *Payload, titles []string, i int) string {
	if i < len(p.Tabs) && p.Tabs[i].Title != "" {
		return p.Tabs[i].Title
	}
	if i < len(titles) && titles[i] != "" {
		return titles[i]
	}
	return fmt.Sprintf("tab %d", i+1)
}

// HasMemory reports whether any point carries a memory measurement.
// V1-era points never do.
func HasMemory(points []Point) bool {
	for _, pt := range points {
		if pt.Memory != 0 {
			return true
		}
	}
	return false
}
