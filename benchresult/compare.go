// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchresult

import (
	"fmt"

	"github.com/aclements/go-moremath/stats"
)

// A Series is one variant's raw sample sets, kept alongside the
// averaged Point for statistical comparison between variants.
type Series struct {
	Label    string
	Times    []float64
	Memories []float64
}

// Samples extracts per-variant sample series from a payload. V3 runs
// with no time samples are dropped, mirroring Reconcile. V1 payloads
// yield one single-sample series per sub-benchmark.
func Samples(p *Payload, titles []string) ([]Series, error) {
	switch p.Kind {
	case KindUnknown:
		return nil, nil
	case KindV1:
		var out []Series
		for _, b := range p.V1.Benchmarks {
			out = append(out, Series{Label: b.Name, Times: []float64{float64(b.CPUTime)}})
		}
		return out, nil
	case KindV3:
		var out []Series
		for i, run := range p.Runs {
			if len(run.Times) == 0 {
				continue
			}
			times, err := run.Times.Floats()
			if err != nil {
				return nil, err
			}
			mems, err := run.Memories.Floats()
			if err != nil {
				return nil, err
			}
			out = append(out, Series{Label: label(p, titles, i), Times: times, Memories: mems})
		}
		return out, nil
	}
	return nil, fmt.Errorf("benchresult: unsupported payload kind %v", p.Kind)
}

// DefaultAlpha is the significance level below which two sample sets
// are reported as drawn from different distributions.
const DefaultAlpha = 0.05

// A Comparison is the result of testing whether two variants' time
// samples come from the same distribution.
type Comparison struct {
	// P is the p-value of the null hypothesis that the two sample
	// sets share a distribution.
	P float64

	// N1 and N2 are the two sample sizes.
	N1, N2 int

	// Alpha is the threshold for significance. If P > Alpha the
	// difference is not significant.
	Alpha float64
}

// CompareTimes tests base's and other's time samples with a two-sample
// Welch t-test. If the test cannot run (e.g. too few samples), the
// comparison reports no significant difference.
func CompareTimes(base, other Series) Comparison {
	c := Comparison{N1: len(base.Times), N2: len(other.Times), Alpha: DefaultAlpha}
	t, err := stats.TwoSampleWelchTTest(
		stats.Sample{Xs: base.Times},
		stats.Sample{Xs: other.Times},
		stats.LocationDiffers)
	if err != nil {
		c.P = 1
		return c
	}
	c.P = t.P
	return c
}

// String summarizes the comparison as "p=0.PPP n=N1+N2", shortened to
// "n=N" when the sizes match.
func (c Comparison) String() string {
	var s string
	if c.P != 0 {
		s = fmt.Sprintf("p=%0.3f ", c.P)
	}
	if c.N1 == c.N2 {
		return s + fmt.Sprintf("n=%d", c.N1)
	}
	return s + fmt.Sprintf("n=%d+%d", c.N1, c.N2)
}

// FormatDelta formats the percent difference between the two variants'
// centers. Under the null hypothesis it returns "~": no meaningful
// difference.
func (c Comparison) FormatDelta(old, new float64) string {
	if c.P > c.Alpha {
		return "~"
	}
	if old == new {
		return "0.00%"
	}
	if old == 0 {
		return "?"
	}
	pct := ((new / old) - 1.0) * 100.0
	return fmt.Sprintf("%+.2f%%", pct)
}
