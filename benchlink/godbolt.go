// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlink

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

// godboltBase is the Compiler Explorer clientstate endpoint.
const godboltBase = "https://godbolt.org/clientstate/"

// The exported source is wrapped with the google-benchmark harness so
// it compiles standalone in Compiler Explorer.
const (
	includePrefix = "#include <benchmark/benchmark.h>\n"
	mainSuffix    = "\nBENCHMARK_MAIN();"
)

// benchmarkLibVersion pins the benchmark library Compiler Explorer
// should link against.
const benchmarkLibVersion = "140"

// ExportCode wraps a variant's code with the fixed benchmark harness.
func ExportCode(code string) string {
	return includePrefix + code + mainSuffix
}

// ImportCode strips the fixed harness from code that carried it, e.g.
// source arriving through a permalink token.
func ImportCode(code string) string {
	code = strings.Replace(code, includePrefix, "", 1)
	return strings.Replace(code, mainSuffix, "", 1)
}

// CompilerID maps a build-service compiler name to Compiler Explorer's
// identifier. Clang names ("clang-9.0") map by removing the first dot
// and appending a trailing zero ("clang9000" era scheme); any other
// family falls through to the GCC scheme ("gcc-9.1" becomes "g91").
// Only the first dot is removed, so a multi-dot version keeps its later
// dots. An unrecognized family may therefore produce an invalid
// external id; the link is constructed regardless.
func CompilerID(compiler string) string {
	if strings.HasPrefix(compiler, "clang") {
		return "clang" + strings.Replace(suffixAfter(compiler, len("clang-")), ".", "", 1) + "0"
	}
	return "g" + strings.Replace(suffixAfter(compiler, len("gcc-")), ".", "", 1)
}

func suffixAfter(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[n:]
}

// ceVersion maps the language version to Compiler Explorer's spelling.
// Two versions predate their final names there.
func ceVersion(v string) string {
	switch v {
	case "20":
		return "2a"
	case "17":
		return "1z"
	}
	return v
}

// ceOptions renders the flag string for the export link.
func ceOptions(opts benchcfg.OptionSet) string {
	return "-std=c++" + ceVersion(opts.CPPVersion) + " " + opts.OptimFlag()
}

// Compiler Explorer clientstate document, one session with one
// compiler.
type ceClientState struct {
	Sessions []ceSession `json:"sessions"`
}

type ceSession struct {
	ID        int          `json:"id"`
	Language  string       `json:"language"`
	Source    string       `json:"source"`
	Compilers []ceCompiler `json:"compilers"`
}

type ceCompiler struct {
	ID      string  `json:"id"`
	Options string  `json:"options"`
	Libs    []ceLib `json:"libs"`
}

type ceLib struct {
	Name    string `json:"name"`
	Version string `json:"ver"`
}

// BuildLink constructs a Compiler Explorer link for one variant: its
// wrapped source, the aliased compiler id and flags, and the fixed
// benchmark library dependency. Pure string construction; nothing is
// sent anywhere.
func BuildLink(tab benchtab.Tab) string {
	state := ceClientState{
		Sessions: []ceSession{{
			ID:       0,
			Language: "c++",
			Source:   ExportCode(tab.Code),
			Compilers: []ceCompiler{{
				ID:      CompilerID(tab.Opts.Compiler),
				Options: ceOptions(tab.Opts),
				Libs:    []ceLib{{Name: "benchmark", Version: benchmarkLibVersion}},
			}},
		}},
	}
	data, err := json.Marshal(state)
	if err != nil {
		panic(err)
	}
	return godboltBase + base64.StdEncoding.EncodeToString(data)
}
