// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlink

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

func TestCompilerID(t *testing.T) {
	test := func(compiler, want string) {
		t.Helper()
		if got := CompilerID(compiler); got != want {
			t.Errorf("CompilerID(%q): want %q, got %q", compiler, want, got)
		}
	}
	test("clang-9.0", "clang900")
	test("clang-3.8", "clang380")
	test("gcc-9.1", "g91")
	test("gcc-8.3", "g83")
	// Only the first dot is removed from a patch-level version.
	test("clang-10.0.1", "clang100.10")
	test("gcc-10.0.1", "g100.1")
	// Unrecognized families fall through to the gcc scheme; the result
	// may be a bogus external id, by contract.
	test("msvc-19", "g-19")
}

func TestCeAliases(t *testing.T) {
	opts := benchcfg.Default() // c++20, -O3
	if got := ceOptions(opts); got != "-std=c++2a -O3" {
		t.Errorf("ceOptions: got %q", got)
	}
	opts.CPPVersion, opts.Optim = "17", "F"
	if got := ceOptions(opts); got != "-std=c++1z -Ofast" {
		t.Errorf("ceOptions: got %q", got)
	}
	opts.CPPVersion, opts.Optim = "11", "1"
	if got := ceOptions(opts); got != "-std=c++11 -O1" {
		t.Errorf("ceOptions: got %q", got)
	}
}

func TestBuildLink(t *testing.T) {
	tab := benchtab.Tab{
		Code: "static void B(benchmark::State& s) {}\nBENCHMARK(B);",
		Opts: benchcfg.Default(),
	}
	link := BuildLink(tab)
	if !strings.HasPrefix(link, godboltBase) {
		t.Fatalf("unexpected link prefix: %q", link)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(link, godboltBase))
	if err != nil {
		t.Fatalf("link payload is not base64: %v", err)
	}
	var state ceClientState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("link payload is not clientstate JSON: %v", err)
	}
	if len(state.Sessions) != 1 {
		t.Fatalf("want one session, got %+v", state.Sessions)
	}
	sess := state.Sessions[0]
	if sess.Language != "c++" {
		t.Errorf("language: got %q", sess.Language)
	}
	if !strings.HasPrefix(sess.Source, includePrefix) || !strings.HasSuffix(sess.Source, mainSuffix) {
		t.Errorf("source not wrapped with the benchmark harness: %q", sess.Source)
	}
	if len(sess.Compilers) != 1 {
		t.Fatalf("want one compiler, got %+v", sess.Compilers)
	}
	comp := sess.Compilers[0]
	if comp.ID != "clang900" {
		t.Errorf("compiler id: got %q", comp.ID)
	}
	if comp.Options != "-std=c++2a -O3" {
		t.Errorf("options: got %q", comp.Options)
	}
	if len(comp.Libs) != 1 || comp.Libs[0].Name != "benchmark" || comp.Libs[0].Version != benchmarkLibVersion {
		t.Errorf("libs: got %+v", comp.Libs)
	}
}
