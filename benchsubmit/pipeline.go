// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchsubmit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchresult"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

const (
	// DefaultMaxCodeSize is the per-tab code size limit checked before
	// anything is sent.
	DefaultMaxCodeSize = 20000

	// DefaultEstimate is the assumed duration of a build, used to pace
	// the progress indicator.
	DefaultEstimate = 120 * time.Second

	// DefaultTick is the progress indicator's update period.
	DefaultTick = time.Second
)

// An OutcomeKind classifies how a submission ended.
type OutcomeKind int

const (
	// OutcomeOK means a payload arrived and was applied; it may carry
	// chart points, a diagnostic message, or both.
	OutcomeOK OutcomeKind = iota

	// OutcomeEmpty means no usable payload arrived (empty body or
	// transport failure). The pipeline state is settled but otherwise
	// untouched.
	OutcomeEmpty

	// OutcomeMalformed means a payload arrived but could not be decoded
	// or reconciled.
	OutcomeMalformed

	// OutcomeRejected means local validation failed; nothing was sent.
	OutcomeRejected

	// OutcomeSuperseded means a newer submission was started before this
	// one's response arrived. The response was discarded.
	OutcomeSuperseded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSuperseded:
		return "superseded"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// An Outcome is the final report of one submission.
type Outcome struct {
	Kind OutcomeKind

	// Seq is the submission's sequence token. Each Submit or Fetch gets
	// the next token; only the response matching the pipeline's current
	// token may touch shared state.
	Seq uint64

	// Points holds the reconciled chart points for OutcomeOK.
	Points []benchresult.Point

	// Series holds the per-variant raw samples behind Points, for
	// statistical comparison between variants.
	Series []benchresult.Series

	// ID is the server-assigned storage id, when the payload carried
	// one.
	ID string

	Message    string
	Annotation string

	// Err details Empty, Malformed, Rejected, and Superseded outcomes.
	Err error
}

// A CodeTooLargeError reports tabs whose code exceeds the size limit.
type CodeTooLargeError struct {
	Limit   int
	Lengths []int
}

func (e *CodeTooLargeError) Error() string {
	max := 0
	for _, n := range e.Lengths {
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("code is %d characters long, above the maximum size of %d", max, e.Limit)
}

// A State is a snapshot of the pipeline's observable state, mirroring
// what a front end renders: the pending flag and progress bar, the
// clean/force pair, the share location, and the last results.
type State struct {
	// Sending reports an in-flight submission.
	Sending bool

	// Progress is the estimated completion percentage of the in-flight
	// submission. It may exceed 100 when the build outlasts the
	// estimate.
	Progress float64

	// Clean reports that the session content is unchanged since the
	// last settled submission.
	Clean bool

	// Force requests a fresh run for content the server already has
	// cached. It can only be armed while clean and resets after every
	// settled submission.
	Force bool

	// Location is the storage id of the last stored submission, used to
	// build the share URL.
	Location string

	Message    string
	Annotation string

	// Points holds the last reconciled chart points.
	Points []benchresult.Point
}

// A Pipeline drives submissions for one session.
//
// All exported methods are safe for concurrent use. The session itself
// is only touched under the pipeline's lock: at submission start (to
// snapshot), and during Fetch (to rehydrate).
type Pipeline struct {
	// MaxCodeSize, Estimate, and Tick override the corresponding
	// defaults when set. They must not be changed after the first
	// submission.
	MaxCodeSize int
	Estimate    time.Duration
	Tick        time.Duration

	// OnProgress, when set, is called from the submission goroutine
	// after every progress advance.
	OnProgress func(percent float64)

	client  *Client
	session *benchtab.Session

	mu    sync.Mutex
	seq   uint64
	state State
	force bool

	// settled and settledGen identify the session content of the last
	// settled submission; Clean derives from them.
	settled    bool
	settledGen uint64
}

// NewPipeline returns a pipeline submitting the given session through
// the given client.
func NewPipeline(c *Client, s *benchtab.Session) *Pipeline {
	return &Pipeline{client: c, session: s}
}

func (p *Pipeline) maxCodeSize() int {
	if p.MaxCodeSize > 0 {
		return p.MaxCodeSize
	}
	return DefaultMaxCodeSize
}

func (p *Pipeline) estimate() time.Duration {
	if p.Estimate > 0 {
		return p.Estimate
	}
	return DefaultEstimate
}

func (p *Pipeline) tick() time.Duration {
	if p.Tick > 0 {
		return p.Tick
	}
	return DefaultTick
}

func (p *Pipeline) cleanLocked() bool {
	return p.settled && !p.state.Sending && p.session.Generation() == p.settledGen
}

// State returns a snapshot of the observable state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state
	st.Clean = p.cleanLocked()
	st.Force = p.force
	st.Points = append([]benchresult.Point(nil), p.state.Points...)
	return st
}

// SetForce arms or clears the force flag. Arming is only honored while
// the session is clean; on a dirty session the flag stays down, since a
// changed session will be rebuilt anyway.
func (p *Pipeline) SetForce(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v && !p.cleanLocked() {
		return
	}
	p.force = v
}

// Submit validates the session and, if it passes, sends it. The
// returned channel delivers exactly one Outcome and is then closed.
//
// Starting a new submission while one is in flight is allowed: the
// newer submission takes over the shared state, and the older one's
// response settles as OutcomeSuperseded when it arrives.
func (p *Pipeline) Submit(ctx context.Context) <-chan Outcome {
	ch := make(chan Outcome, 1)

	p.mu.Lock()
	tabs := p.session.Tabs()

	var oversize []int
	for _, t := range tabs {
		if len(t.Code) > p.maxCodeSize() {
			oversize = append(oversize, len(t.Code))
		}
	}
	if len(oversize) > 0 {
		err := &CodeTooLargeError{Limit: p.maxCodeSize(), Lengths: oversize}
		p.state.Message = err.Error()
		p.mu.Unlock()
		ch <- Outcome{Kind: OutcomeRejected, Err: err, Message: err.Error()}
		close(ch)
		return ch
	}

	p.seq++
	seq := p.seq
	gen := p.session.Generation()
	force := p.cleanLocked() && p.force
	p.state.Sending = true
	p.state.Progress = 0
	p.state.Message = ""
	p.state.Annotation = ""
	p.state.Points = nil
	p.mu.Unlock()

	titles := make([]string, len(tabs))
	for i, t := range tabs {
		titles[i] = t.Title
	}
	req := NewRequest(tabs, force)

	go p.run(ctx, seq, gen, titles, ch, func(ctx context.Context) (*benchresult.Payload, error) {
		return p.client.Build(ctx, req)
	}, nil)
	return ch
}

// Fetch retrieves a stored submission by id, rehydrates the session
// from its echoed tabs, and applies its results. Like Submit, it
// delivers exactly one Outcome and participates in the same sequence:
// a Fetch supersedes an in-flight Submit and vice versa.
func (p *Pipeline) Fetch(ctx context.Context, id string) <-chan Outcome {
	ch := make(chan Outcome, 1)

	p.mu.Lock()
	p.seq++
	seq := p.seq
	gen := p.session.Generation()
	p.state.Sending = true
	p.state.Progress = 0
	p.state.Message = ""
	p.state.Annotation = ""
	p.state.Points = nil
	p.mu.Unlock()

	rehydrate := func(payload *benchresult.Payload) []string {
		if len(payload.Tabs) == 0 {
			return nil
		}
		tabs := make([]benchtab.Tab, len(payload.Tabs))
		for i, ts := range payload.Tabs {
			title := ts.Title
			if title == "" {
				title = fmt.Sprintf("tab %d", i+1)
			}
			tabs[i] = benchtab.Tab{
				Title: title,
				Code:  ts.Code,
				Opts: benchcfg.OptionSet{
					Compiler:   ts.Compiler,
					CPPVersion: ts.CPPVersion,
					Optim:      ts.Optim,
					Lib:        ts.Lib,
				},
			}
		}
		if err := p.session.Rehydrate(tabs); err != nil {
			return nil
		}
		titles := make([]string, len(tabs))
		for i, t := range tabs {
			titles[i] = t.Title
		}
		return titles
	}

	go p.run(ctx, seq, gen, nil, ch, func(ctx context.Context) (*benchresult.Payload, error) {
		return p.client.Get(ctx, id)
	}, rehydrate)
	return ch
}

// run owns one submission: it paces the progress indicator while the
// request is in flight and settles the outcome. The ticker is stopped
// on every exit path.
func (p *Pipeline) run(ctx context.Context, seq, gen uint64, titles []string, ch chan<- Outcome, send func(context.Context) (*benchresult.Payload, error), rehydrate func(*benchresult.Payload) []string) {
	ticker := time.NewTicker(p.tick())
	defer ticker.Stop()

	type result struct {
		payload *benchresult.Payload
		err     error
	}
	done := make(chan result, 1)
	go func() {
		payload, err := send(ctx)
		done <- result{payload, err}
	}()

	step := 100 * p.tick().Seconds() / p.estimate().Seconds()
	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if seq != p.seq {
				p.mu.Unlock()
				continue
			}
			p.state.Progress += step
			percent := p.state.Progress
			cb := p.OnProgress
			p.mu.Unlock()
			if cb != nil {
				cb(percent)
			}
		case r := <-done:
			ch <- p.settle(seq, gen, titles, r.payload, r.err, rehydrate)
			close(ch)
			return
		}
	}
}

// settle applies a response to the shared state, unless a newer
// submission has taken over.
func (p *Pipeline) settle(seq, gen uint64, titles []string, payload *benchresult.Payload, err error, rehydrate func(*benchresult.Payload) []string) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		return Outcome{Kind: OutcomeSuperseded, Seq: seq, Err: err}
	}

	p.state.Sending = false
	p.state.Progress = 0
	p.settled = true
	// Clean-ness compares against the content that was actually sent,
	// so an edit made while the build was in flight keeps the session
	// dirty.
	p.settledGen = gen
	p.force = false

	if err != nil {
		if errors.Is(err, ErrMalformed) {
			p.state.Message = err.Error()
			return Outcome{Kind: OutcomeMalformed, Seq: seq, Err: err}
		}
		// Empty body or transport failure: nothing arrived.
		return Outcome{Kind: OutcomeEmpty, Seq: seq, Err: err}
	}

	if rehydrate != nil {
		if got := rehydrate(payload); got != nil {
			titles = got
		}
		p.settledGen = p.session.Generation()
	}

	out := Outcome{Kind: OutcomeOK, Seq: seq, Message: payload.Message, Annotation: payload.Annotation}
	p.state.Message = payload.Message
	p.state.Annotation = payload.Annotation

	points, rerr := benchresult.Reconcile(payload, titles)
	if rerr != nil {
		rerr = fmt.Errorf("%w: %v", ErrMalformed, rerr)
		p.state.Message = rerr.Error()
		return Outcome{Kind: OutcomeMalformed, Seq: seq, Err: rerr}
	}
	// Reconcile and Samples parse the same measurements; an error here
	// would already have surfaced above.
	series, _ := benchresult.Samples(payload, titles)

	if payload.Kind == benchresult.KindUnknown && payload.Message == "" && payload.Annotation == "" {
		// Well-formed but content-free.
		return Outcome{Kind: OutcomeEmpty, Seq: seq}
	}

	p.state.Points = points
	if payload.ID != "" {
		p.state.Location = payload.ID
	}
	out.Points = points
	out.Series = series
	out.ID = payload.ID
	return out
}
