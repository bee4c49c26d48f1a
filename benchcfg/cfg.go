// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchcfg describes the compiler configuration attached to a
// single code variant: which compiler to run, the language version, the
// optimization level, and the standard library implementation.
//
// An OptionSet is a plain comparable value. Two variants share a
// configuration exactly when their OptionSets compare equal with ==.
package benchcfg

import "fmt"

// An OptionSet is one variant's compiler configuration.
//
// The zero value is not valid; start from Default and replace fields.
type OptionSet struct {
	// Compiler is the build service's compiler name, e.g. "clang-9.0"
	// or "gcc-9.1".
	Compiler string

	// CPPVersion is the C++ language version: "11", "14", "17" or "20".
	CPPVersion string

	// Optim is the optimization level: "0" through "3", or one of the
	// named levels "G" (-Og), "F" (-Ofast), "S" (-Os).
	Optim string

	// Lib selects the standard library implementation: "gnu", "llvm"
	// or "msvc".
	Lib string
}

// Default returns the configuration a fresh session starts with.
func Default() OptionSet {
	return OptionSet{
		Compiler:   "clang-9.0",
		CPPVersion: "20",
		Optim:      "3",
		Lib:        "gnu",
	}
}

// A FieldError reports an OptionSet field holding a value outside its
// allowed set.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("benchcfg: invalid %s %q", e.Field, e.Value)
}

var (
	cppVersions = map[string]bool{"11": true, "14": true, "17": true, "20": true}
	optimLevels = map[string]bool{"0": true, "1": true, "2": true, "3": true, "G": true, "F": true, "S": true}
	stdLibs     = map[string]bool{"gnu": true, "llvm": true, "msvc": true}
)

// Validate checks every field against its allowed value set. The
// compiler name is only required to be non-empty; the build service
// owns the list of installed compilers and this client does not mirror
// it.
func (o OptionSet) Validate() error {
	if o.Compiler == "" {
		return &FieldError{"compiler", o.Compiler}
	}
	if !cppVersions[o.CPPVersion] {
		return &FieldError{"cppVersion", o.CPPVersion}
	}
	if !optimLevels[o.Optim] {
		return &FieldError{"optim", o.Optim}
	}
	if !stdLibs[o.Lib] {
		return &FieldError{"lib", o.Lib}
	}
	return nil
}

// Flags renders the configuration as the conventional compiler flag
// string, e.g. "-std=c++20 -O3". The named optimization levels render
// as their flag spellings (-Og, -Ofast, -Os).
func (o OptionSet) Flags() string {
	return "-std=c++" + o.CPPVersion + " " + o.OptimFlag()
}

// OptimFlag renders just the optimization flag.
func (o OptionSet) OptimFlag() string {
	switch o.Optim {
	case "G":
		return "-Og"
	case "F":
		return "-Ofast"
	case "S":
		return "-Os"
	}
	return "-O" + o.Optim
}

// String returns a one-line human-readable description.
func (o OptionSet) String() string {
	return fmt.Sprintf("%s %s (%s)", o.Compiler, o.Flags(), o.Lib)
}
