// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Qbench submits C++ benchmark variants to a build service and prints
// the timing comparison.
//
// Usage:
//
//	qbench [flags] file.cpp...
//	qbench [flags] -get id
//	qbench [flags] -token token
//
// Each input file becomes one variant, titled after the file. All
// variants share the configuration given by -compiler, -std, -optim,
// and -lib. Qbench prints one table row per variant with the delta
// against the first variant, and a share URL when the server stored
// the submission.
//
// With -get, qbench retrieves a stored submission instead of building.
// With -token, the variant is decoded from a permalink token. With
// -ce, qbench prints a Compiler Explorer link per variant and exits
// without contacting the build service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchlink"
	"github.com/kingfs/quick-bench-front-end/benchresult"
	"github.com/kingfs/quick-bench-front-end/benchsubmit"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

var (
	server   = flag.String("server", benchsubmit.DefaultBaseURL, "submit builds to the service at `url`")
	compiler = flag.String("compiler", benchcfg.Default().Compiler, "compiler `name`, e.g. clang-9.0 or gcc-9.1")
	std      = flag.String("std", benchcfg.Default().CPPVersion, "C++ language `version` (11, 14, 17, 20)")
	optim    = flag.String("optim", benchcfg.Default().Optim, "optimization `level` (0, 1, 2, 3, G, F, S)")
	lib      = flag.String("lib", benchcfg.Default().Lib, "standard library `flavor` (gnu, llvm, msvc)")
	force    = flag.Bool("force", false, "rebuild even if the server has a cached result")
	estimate = flag.Duration("estimate", benchsubmit.DefaultEstimate, "expected build `duration`, paces the progress display")
	getID    = flag.String("get", "", "retrieve the stored submission with `id` instead of building")
	token    = flag.String("token", "", "decode a permalink `token` as an additional variant")
	ce       = flag.Bool("ce", false, "print a Compiler Explorer link per variant and exit")
	pngOut   = flag.String("png", "", "write a bar chart of the timings to `file`")
	svgOut   = flag.String("svg", "", "write a bar chart of the timings to `file`")
	v1       = flag.Bool("v1", false, "talk to a legacy single-variant server")
	verbose  = flag.Bool("v", false, "print verbose log messages")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage of qbench:
	qbench [flags] file.cpp...
	qbench [flags] -get id
	qbench [flags] -token token
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("qbench: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	opts := benchcfg.OptionSet{Compiler: *compiler, CPPVersion: *std, Optim: *optim, Lib: *lib}
	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	sess := benchtab.NewSession()
	tabs := loadTabs(opts)
	if len(tabs) > 0 {
		if err := sess.Rehydrate(tabs); err != nil {
			log.Fatal(err)
		}
	}

	if *ce {
		if len(tabs) == 0 {
			log.Fatal("no variants to export")
		}
		for _, t := range sess.Tabs() {
			fmt.Printf("%s\t%s\n", t.Title, benchlink.BuildLink(t))
		}
		return
	}
	if len(tabs) == 0 && *getID == "" {
		usage()
	}

	client := &benchsubmit.Client{BaseURL: *server}
	ctx := context.Background()

	if *v1 {
		runLegacy(ctx, client, sess)
		return
	}
	run(ctx, client, sess)
}

// loadTabs builds the variant set from the -token flag and the file
// arguments.
func loadTabs(opts benchcfg.OptionSet) []benchtab.Tab {
	var tabs []benchtab.Tab
	if *token != "" {
		t, ok := benchlink.DecodeToken(*token)
		if !ok {
			log.Fatal("cannot decode permalink token")
		}
		// Tokens minted from a Compiler Explorer export carry the
		// benchmark harness around the code; strip it so it is not
		// submitted twice.
		t.Code = benchlink.ImportCode(t.Code)
		tabs = append(tabs, t)
	}
	for _, name := range flag.Args() {
		code, err := os.ReadFile(name)
		if err != nil {
			log.Fatal(err)
		}
		title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		tabs = append(tabs, benchtab.Tab{Title: title, Code: string(code), Opts: opts})
	}
	return tabs
}

func run(ctx context.Context, client *benchsubmit.Client, sess *benchtab.Session) {
	if *force && *getID == "" {
		// The interactive force gating presumes a prior clean run; a
		// one-shot invocation passes the flag straight through.
		done := make(chan struct{})
		go progressLoop(done)
		payload, err := client.Build(ctx, benchsubmit.NewRequest(sess.Tabs(), true))
		close(done)
		clearProgress()
		if err != nil {
			log.Fatal(err)
		}
		reportPayload(payload, titles(sess))
		return
	}

	p := benchsubmit.NewPipeline(client, sess)
	p.Estimate = *estimate
	p.OnProgress = printProgress

	var out benchsubmit.Outcome
	if *getID != "" {
		out = <-p.Fetch(ctx, *getID)
	} else {
		out = <-p.Submit(ctx)
	}
	clearProgress()

	switch out.Kind {
	case benchsubmit.OutcomeOK:
	case benchsubmit.OutcomeEmpty:
		if out.Err != nil {
			log.Fatal(out.Err)
		}
		log.Fatal("empty response from server")
	default:
		log.Fatal(out.Err)
	}
	if out.Message != "" {
		fmt.Fprintln(os.Stderr, out.Message)
	}
	if *verbose && out.Annotation != "" {
		fmt.Fprintln(os.Stderr, out.Annotation)
	}
	if len(out.Points) == 0 {
		os.Exit(1)
	}
	report(os.Stdout, out.Points, out.Series)
	renderCharts(out.Points)
	if loc := p.State().Location; loc != "" {
		fmt.Printf("\n%s/q/%s\n", *server, loc)
	}
}

func runLegacy(ctx context.Context, client *benchsubmit.Client, sess *benchtab.Session) {
	var payload *benchresult.Payload
	var err error
	if *getID != "" {
		payload, err = client.LegacyGet(ctx, *getID)
	} else {
		if sess.Len() != 1 {
			log.Fatal("legacy servers accept a single variant")
		}
		t := sess.Active()
		done := make(chan struct{})
		go progressLoop(done)
		payload, err = client.LegacyBuild(ctx, &benchsubmit.LegacyRequest{
			Code:       t.Code,
			Compiler:   t.Opts.Compiler,
			Optim:      t.Opts.Optim,
			CPPVersion: t.Opts.CPPVersion,
			Force:      *force,
		})
		close(done)
		clearProgress()
	}
	if err != nil {
		log.Fatal(err)
	}
	reportPayload(payload, titles(sess))
}

// reportPayload reconciles and prints a payload obtained outside the
// pipeline.
func reportPayload(payload *benchresult.Payload, titles []string) {
	points, err := benchresult.Reconcile(payload, titles)
	if err != nil {
		log.Fatal(err)
	}
	if payload.Message != "" {
		fmt.Fprintln(os.Stderr, payload.Message)
	}
	if *verbose && payload.Annotation != "" {
		fmt.Fprintln(os.Stderr, payload.Annotation)
	}
	if len(points) == 0 {
		os.Exit(1)
	}
	series, _ := benchresult.Samples(payload, titles)
	report(os.Stdout, points, series)
	renderCharts(points)
	if payload.ID != "" {
		fmt.Printf("\n%s/q/%s\n", *server, payload.ID)
	}
}

// report prints the result table. The delta column compares each
// variant's time samples against the first variant's.
func report(out io.Writer, points []benchresult.Point, series []benchresult.Series) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	hasMem := benchresult.HasMemory(points)
	fmt.Fprint(w, "name\ttime")
	if hasMem {
		fmt.Fprint(w, "\tmemory (kB)")
	}
	fmt.Fprint(w, "\tdelta\n")
	for i, pt := range points {
		fmt.Fprintf(w, "%s\t%.2f", pt.Label, pt.Time)
		if hasMem {
			fmt.Fprintf(w, "\t%.0f", pt.Memory)
		}
		delta := ""
		if i > 0 && i < len(series) {
			c := benchresult.CompareTimes(series[0], series[i])
			delta = c.FormatDelta(points[0].Time, pt.Time)
			if *verbose {
				delta += " (" + c.String() + ")"
			}
		}
		fmt.Fprintf(w, "\t%s\n", delta)
	}
	w.Flush()
}

func renderCharts(points []benchresult.Point) {
	if *pngOut != "" {
		chart(points, *pngOut)
	}
	if *svgOut != "" {
		chart(points, *svgOut)
	}
}

// chart writes the timing chart to path and, when the points carry
// memory measurements, a companion "-mem" chart next to it.
func chart(points []benchresult.Point, path string) {
	ext := filepath.Ext(path)
	mem := strings.TrimSuffix(path, ext) + "-mem" + ext
	if err := benchresult.Chart(points, path, mem); err != nil {
		log.Fatal(err)
	}
}

func titles(sess *benchtab.Session) []string {
	tabs := sess.Tabs()
	out := make([]string, len(tabs))
	for i, t := range tabs {
		out[i] = t.Title
	}
	return out
}

func printProgress(percent float64) {
	fmt.Fprintf(os.Stderr, "\rbuilding... %3.0f%%", percent)
}

func clearProgress() {
	fmt.Fprintf(os.Stderr, "\r%20s\r", "")
}

// progressLoop paces the progress display for requests sent outside
// the pipeline.
func progressLoop(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	percent := 0.0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			percent += 100 / (*estimate).Seconds()
			printProgress(percent)
		}
	}
}
