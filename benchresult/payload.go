// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchresult decodes build-service result payloads and
// normalizes them into chart points.
//
// The build service has produced two incompatible payload generations:
// the original single-variant schema ("V1"), where one submission
// carried several named sub-benchmarks, and the multi-variant schema
// ("V3"), where one submission carries several tabs and per-tab sample
// lists. Older payloads carry no version tag, so Decode classifies each
// payload once, up front, into an explicit Kind; every consumer then
// switches exhaustively on the Kind instead of probing fields.
package benchresult

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// A Kind discriminates the supported payload schemas.
type Kind int

const (
	// KindUnknown marks a payload carrying no recognizable result,
	// e.g. a message-only compile-error response. It reconciles to an
	// empty point list.
	KindUnknown Kind = iota

	// KindV1 is the single-variant schema with named sub-benchmarks.
	KindV1

	// KindV3 is the multi-variant schema with per-tab sample lists.
	KindV3
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindV1:
		return "v1"
	case KindV3:
		return "v3"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrEmptyPayload is returned by Decode for an empty body. Callers
// treat it as "nothing arrived", distinct from a malformed body.
var ErrEmptyPayload = errors.New("benchresult: empty payload")

// A TabSpec is the variant description echoed inside a stored V3
// payload. Retrieval responses carry these; responses to a fresh
// submission may omit them.
type TabSpec struct {
	Title      string `json:"title"`
	Code       string `json:"code"`
	Compiler   string `json:"compiler"`
	CPPVersion string `json:"cppVersion"`
	Optim      string `json:"optim"`
	Lib        string `json:"lib"`
}

// A Run holds one tab's raw measurements in a V3 payload, index-aligned
// with the tabs. The wire encodes samples as numeric strings, but some
// producers send plain numbers; RawSamples accepts both.
type Run struct {
	Times    RawSamples `json:"times"`
	Memories RawSamples `json:"memories"`
}

// RawSamples is a list of measurement samples as decimal strings.
type RawSamples []string

// UnmarshalJSON accepts each element as either a JSON string or a JSON
// number.
func (s *RawSamples) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		if len(el) > 0 && el[0] == '"' {
			var v string
			if err := json.Unmarshal(el, &v); err != nil {
				return err
			}
			out = append(out, v)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(el, &n); err != nil {
			return err
		}
		out = append(out, n.String())
	}
	*s = out
	return nil
}

// Floats parses the samples. A sample that is not a decimal number is
// reported rather than silently becoming NaN.
func (s RawSamples) Floats() ([]float64, error) {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("benchresult: bad sample %q", v)
		}
		out = append(out, f)
	}
	return out, nil
}

// A V1Benchmark is one named sub-benchmark of a V1 payload.
type V1Benchmark struct {
	Name    string  `json:"name"`
	CPUTime RawTime `json:"cpu_time"`
}

// RawTime is a single measurement that may arrive as a string or a
// number.
type RawTime float64

func (t *RawTime) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("benchresult: bad cpu_time %q", v)
		}
		*t = RawTime(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*t = RawTime(f)
	return nil
}

// A V1Result is the result block of a V1 payload.
type V1Result struct {
	Benchmarks []V1Benchmark `json:"benchmarks"`
}

// A Payload is one decoded response from the build service.
type Payload struct {
	Kind       Kind
	ID         string
	Message    string
	Annotation string

	// Tabs and Runs are set for KindV3. Tabs may be empty when the
	// server did not echo the variant set.
	Tabs []TabSpec
	Runs []Run

	// V1 is set for KindV1.
	V1 *V1Result
}

// envelope is the superset of both schemas' top-level fields.
type envelope struct {
	ID         string          `json:"id"`
	Message    string          `json:"message"`
	Annotation string          `json:"annotation"`
	Tabs       []TabSpec       `json:"tabs"`
	Result     json.RawMessage `json:"result"`
}

// Decode parses a raw response body and classifies its schema.
//
// An empty body returns ErrEmptyPayload. A body that is not JSON, or
// whose result block does not match the detected schema, returns an
// error. A well-formed body with no recognizable result decodes to
// KindUnknown; its message and annotation are still available.
func Decode(data []byte) (*Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("benchresult: malformed payload: %w", err)
	}
	p := &Payload{
		ID:         env.ID,
		Message:    env.Message,
		Annotation: env.Annotation,
	}

	res := bytes.TrimSpace(env.Result)
	switch {
	case len(res) > 0 && res[0] == '[':
		var runs []Run
		if err := json.Unmarshal(res, &runs); err != nil {
			return nil, fmt.Errorf("benchresult: malformed v3 result: %w", err)
		}
		p.Kind = KindV3
		p.Tabs = env.Tabs
		p.Runs = runs
	case len(res) > 0 && res[0] == '{':
		var v1 V1Result
		if err := json.Unmarshal(res, &v1); err != nil {
			return nil, fmt.Errorf("benchresult: malformed v1 result: %w", err)
		}
		p.Kind = KindV1
		p.V1 = &v1
	case len(env.Tabs) > 0:
		// A stored submission can carry tabs without measurements.
		p.Kind = KindV3
		p.Tabs = env.Tabs
	default:
		p.Kind = KindUnknown
	}
	return p, nil
}
