// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchresult

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Chart renders points as bar charts. timePath receives the CPU-time
// chart; memPath, when non-empty and at least one point carries a
// memory measurement, receives the resident-memory chart. The output
// format follows each file's extension (png, svg, pdf, ...).
func Chart(points []Point, timePath, memPath string) error {
	if len(points) == 0 {
		return fmt.Errorf("benchresult: no points to chart")
	}
	if timePath != "" {
		vals := make(plotter.Values, len(points))
		for i, pt := range points {
			vals[i] = pt.Time
		}
		if err := barChart(points, vals, "Compilation CPU time", "time (lower is faster)", timePath); err != nil {
			return err
		}
	}
	if memPath != "" && HasMemory(points) {
		vals := make(plotter.Values, len(points))
		for i, pt := range points {
			vals[i] = pt.Memory
		}
		if err := barChart(points, vals, "Maximum resident memory", "kB", memPath); err != nil {
			return err
		}
	}
	return nil
}

func barChart(points []Point, vals plotter.Values, title, yLabel, path string) error {
	pl := plot.New()
	pl.Title.Text = title
	pl.Y.Label.Text = yLabel
	pl.Y.Min = 0

	bars, err := plotter.NewBarChart(vals, vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = color.NRGBA{0x42, 0x85, 0xf4, 0xff}
	bars.LineStyle.Width = 0

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid, bars)

	labels := make([]string, len(points))
	for i, pt := range points {
		labels[i] = pt.Label
	}
	pl.NominalX(labels...)

	// Widen with the variant count so labels stay readable.
	width := vg.Length(4+2*len(points)) * vg.Centimeter
	height := 10 * vg.Centimeter
	return pl.Save(width, height, path)
}
