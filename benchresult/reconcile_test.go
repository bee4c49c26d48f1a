// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchresult

import (
	"errors"
	"reflect"
	"testing"
)

func decode(t *testing.T, body string) *Payload {
	t.Helper()
	p, err := Decode([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReconcileV3(t *testing.T) {
	// Variant B has no samples: it is dropped, not zero-filled.
	p := decode(t, `{
		"tabs": [{"title": "A"}, {"title": "B"}],
		"result": [
			{"times": ["1.0", "3.0"], "memories": ["10", "20"]},
			{"times": [], "memories": []}
		]
	}`)
	points, err := Reconcile(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{Label: "A", Time: 2.0, Memory: 15.0}}
	if !reflect.DeepEqual(points, want) {
		t.Errorf("want %+v, got %+v", want, points)
	}
}

func TestReconcileV3LabelFallback(t *testing.T) {
	// POST responses do not echo tabs; labels come from the submitted
	// session's titles, then from position.
	p := decode(t, `{"result": [
		{"times": ["2"], "memories": ["4"]},
		{"times": ["6"], "memories": ["8"]}
	]}`)
	points, err := Reconcile(p, []string{"cstdio"})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("want 2 points, got %+v", points)
	}
	if points[0].Label != "cstdio" {
		t.Errorf("want session title, got %q", points[0].Label)
	}
	if points[1].Label != "tab 2" {
		t.Errorf("want positional label, got %q", points[1].Label)
	}
}

func TestReconcileV1(t *testing.T) {
	// V1 sub-benchmarks are distinct series; no averaging applies.
	p := decode(t, `{"result": {"benchmarks": [{"name": "X", "cpu_time": "5.5"}]}}`)
	points, err := Reconcile(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{Label: "X", Time: 5.5}}
	if !reflect.DeepEqual(points, want) {
		t.Errorf("want %+v, got %+v", want, points)
	}
	if HasMemory(points) {
		t.Errorf("V1 points should carry no memory")
	}
}

func TestReconcileUnknown(t *testing.T) {
	p := decode(t, `{"message": "compilation failed"}`)
	points, err := Reconcile(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 0 {
		t.Errorf("unknown payload should reconcile to nothing, got %+v", points)
	}
}

func TestReconcileBadSample(t *testing.T) {
	p := decode(t, `{"result": [{"times": ["not-a-number"], "memories": []}]}`)
	if _, err := Reconcile(p, nil); err == nil {
		t.Errorf("bad sample did not fail")
	}
}

func TestMeanEmpty(t *testing.T) {
	if _, err := mean(nil); !errors.Is(err, ErrEmptySampleSet) {
		t.Errorf("want ErrEmptySampleSet, got %v", err)
	}
}

func TestSamplesAndCompare(t *testing.T) {
	p := decode(t, `{
		"tabs": [{"title": "A"}, {"title": "B"}],
		"result": [
			{"times": ["10", "10.1", "9.9", "10.2", "9.8"], "memories": ["1"]},
			{"times": ["20", "20.1", "19.9", "20.2", "19.8"], "memories": ["1"]}
		]
	}`)
	series, err := Samples(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 || len(series[0].Times) != 5 {
		t.Fatalf("series: got %+v", series)
	}

	c := CompareTimes(series[0], series[1])
	if c.P > c.Alpha {
		t.Errorf("clearly separated samples reported insignificant: %v", c)
	}
	if got := c.FormatDelta(10, 20); got != "+100.00%" {
		t.Errorf("FormatDelta: want +100.00%%, got %q", got)
	}

	// Identical samples: no significant difference.
	same := CompareTimes(series[0], series[0])
	if got := same.FormatDelta(10, 10); got != "~" && got != "0.00%" {
		t.Errorf("FormatDelta on identical samples: got %q", got)
	}
}

func TestComparisonString(t *testing.T) {
	c := Comparison{P: 0.012, N1: 5, N2: 5}
	if got := c.String(); got != "p=0.012 n=5" {
		t.Errorf("String: got %q", got)
	}
	c = Comparison{P: 0.5, N1: 4, N2: 6}
	if got := c.String(); got != "p=0.500 n=4+6" {
		t.Errorf("String: got %q", got)
	}
}
