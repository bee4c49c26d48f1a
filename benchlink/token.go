// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchlink produces and consumes the shareable encodings of a
// session: the URL-fragment permalink token holding one variant's state,
// and the Compiler Explorer export link.
package benchlink

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

// tokenState is the wire form of a permalink token: base64 over this
// JSON object. The field names are part of the shared-link format and
// must not change.
type tokenState struct {
	Text       string `json:"text"`
	Compiler   string `json:"compiler,omitempty"`
	CPPVersion string `json:"cppVersion,omitempty"`
	Optim      string `json:"optim,omitempty"`
	Lib        string `json:"lib,omitempty"`
}

// EncodeToken packs one variant's code and configuration into a compact
// token suitable for a URL fragment. The token round-trips arbitrary
// Unicode source text.
func EncodeToken(tab benchtab.Tab) string {
	state := tokenState{
		Text:       tab.Code,
		Compiler:   tab.Opts.Compiler,
		CPPVersion: tab.Opts.CPPVersion,
		Optim:      tab.Opts.Optim,
		Lib:        tab.Opts.Lib,
	}
	data, err := json.Marshal(state)
	if err != nil {
		// tokenState contains only strings; Marshal cannot fail.
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeToken unpacks a permalink token, tolerating a leading "#". It
// is best-effort: any malformed input (bad base64, bad JSON, missing
// text) reports ok=false and never an error. Missing configuration
// fields fall back to the defaults.
//
// Tokens are meant to be consumed exactly once; the caller clears the
// fragment after a successful decode.
func DecodeToken(token string) (benchtab.Tab, bool) {
	token = strings.TrimPrefix(token, "#")
	if token == "" {
		return benchtab.Tab{}, false
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return benchtab.Tab{}, false
	}
	var state tokenState
	if err := json.Unmarshal(data, &state); err != nil {
		return benchtab.Tab{}, false
	}
	if state.Text == "" {
		return benchtab.Tab{}, false
	}
	opts := benchcfg.Default()
	if state.Compiler != "" {
		opts.Compiler = state.Compiler
	}
	if state.CPPVersion != "" {
		opts.CPPVersion = state.CPPVersion
	}
	if state.Optim != "" {
		opts.Optim = state.Optim
	}
	if state.Lib != "" {
		opts.Lib = state.Lib
	}
	return benchtab.Tab{Title: benchtab.DefaultTitle, Code: state.Text, Opts: opts}, true
}
