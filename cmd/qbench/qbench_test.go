// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchlink"
	"github.com/kingfs/quick-bench-front-end/benchresult"
	"github.com/kingfs/quick-bench-front-end/benchtab"
	"github.com/kingfs/quick-bench-front-end/internal/diff"
)

func TestLoadTabsStripsTokenHarness(t *testing.T) {
	// A token minted from a Compiler Explorer export wraps the code
	// with the benchmark harness; loading it must strip the wrapper so
	// a submission does not carry it twice.
	code := "static void B(benchmark::State& s) {}\nBENCHMARK(B);"
	tok := benchlink.EncodeToken(benchtab.Tab{
		Code: benchlink.ExportCode(code),
		Opts: benchcfg.Default(),
	})
	old := *token
	*token = tok
	defer func() { *token = old }()

	tabs := loadTabs(benchcfg.Default())
	if len(tabs) != 1 {
		t.Fatalf("want one tab, got %d", len(tabs))
	}
	if tabs[0].Code != code {
		t.Errorf("token code not unwrapped:\ngot  %q\nwant %q", tabs[0].Code, code)
	}
}

func TestReport(t *testing.T) {
	points := []benchresult.Point{
		{Label: "A", Time: 100, Memory: 2000},
		{Label: "B", Time: 80, Memory: 1800},
	}
	series := []benchresult.Series{
		{Label: "A", Times: []float64{100.1, 100.2, 99.9, 100.0}},
		{Label: "B", Times: []float64{80.0, 80.2, 79.9, 80.1}},
	}

	var buf bytes.Buffer
	report(&buf, points, series)

	want := "name  time    memory (kB)  delta\n" +
		"A     100.00  2000         \n" +
		"B     80.00   1800         -20.00%\n"
	if d := diff.Diff(want, buf.String()); d != "" {
		t.Errorf("report output mismatch:\n%s", d)
	}
}

func TestReportNoMemoryInsignificant(t *testing.T) {
	points := []benchresult.Point{
		{Label: "base", Time: 2},
		{Label: "other", Time: 2.1},
	}
	// Overlapping samples: the delta must not pretend significance.
	series := []benchresult.Series{
		{Label: "base", Times: []float64{1, 2, 3}},
		{Label: "other", Times: []float64{1.1, 2.1, 3.1}},
	}

	var buf bytes.Buffer
	report(&buf, points, series)

	want := "name   time  delta\n" +
		"base   2.00  \n" +
		"other  2.10  ~\n"
	if d := diff.Diff(want, buf.String()); d != "" {
		t.Errorf("report output mismatch:\n%s", d)
	}
}
