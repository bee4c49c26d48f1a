// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchtab manages the set of code variants ("tabs") that make
// up a benchmark session.
//
// A Session owns an ordered collection of tabs. Each tab pairs a code
// body and a title with its own compiler configuration, and carries a
// stable identifier that survives insertion and removal of other tabs.
// All mutating operations key tabs by identifier; there is no
// positional API, so removing one tab can never silently rebind
// another tab's title or configuration.
//
// A Session also tracks a generation counter. Every content mutation
// (code, title, options, add, remove, rehydrate) advances it; changing
// the active tab does not. Submission code compares generations to
// decide whether the session still matches what was last sent.
package benchtab

import (
	"errors"
	"fmt"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
)

// DefaultCode is the code body of a freshly created session's tab.
const DefaultCode = `#include <cstdio>

int main() {
    puts("Hello World");
    return 0;
}
`

// DefaultTitle is the title of a freshly created session's tab.
const DefaultTitle = "cstdio"

// An ID identifies one tab within its Session. IDs are opaque, unique
// for the lifetime of the Session, and never reused.
type ID int64

// A Tab is one code variant with its own title and compiler
// configuration.
type Tab struct {
	ID    ID
	Title string
	Code  string
	Opts  benchcfg.OptionSet
}

var (
	// ErrUnknownTab is returned when an operation names a tab ID that
	// is not (or is no longer) part of the session.
	ErrUnknownTab = errors.New("benchtab: unknown tab")

	// ErrLastTab is returned by RemoveTab when removal would leave the
	// session empty.
	ErrLastTab = errors.New("benchtab: cannot remove the last tab")
)

// A Session is the full variant set held by one client.
//
// A Session is not safe for concurrent use; it models the state behind
// a single user's editing surface and is mutated synchronously.
type Session struct {
	tabs   []Tab
	active ID
	nextID ID
	gen    uint64
}

// NewSession returns a session holding one default tab, which is
// active.
func NewSession() *Session {
	s := &Session{}
	t := Tab{
		ID:    s.allocID(),
		Title: DefaultTitle,
		Code:  DefaultCode,
		Opts:  benchcfg.Default(),
	}
	s.tabs = []Tab{t}
	s.active = t.ID
	return s
}

func (s *Session) allocID() ID {
	s.nextID++
	return s.nextID
}

func (s *Session) index(id ID) int {
	for i := range s.tabs {
		if s.tabs[i].ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of tabs.
func (s *Session) Len() int { return len(s.tabs) }

// Generation returns the session's edit counter. It advances on every
// content mutation and never decreases.
func (s *Session) Generation() uint64 { return s.gen }

// Tabs returns a copy of the tabs in order.
func (s *Session) Tabs() []Tab {
	out := make([]Tab, len(s.tabs))
	copy(out, s.tabs)
	return out
}

// Lookup returns the tab with the given ID.
func (s *Session) Lookup(id ID) (Tab, bool) {
	i := s.index(id)
	if i < 0 {
		return Tab{}, false
	}
	return s.tabs[i], true
}

// Active returns the active tab.
func (s *Session) Active() Tab {
	return s.tabs[s.index(s.active)]
}

// ActiveID returns the active tab's ID.
func (s *Session) ActiveID() ID { return s.active }

// SetActive changes the active tab. Selection is not content, so this
// does not advance the generation.
func (s *Session) SetActive(id ID) error {
	if s.index(id) < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownTab, id)
	}
	s.active = id
	return nil
}

// AddTab duplicates the active tab, appends the copy, and returns it.
// The copy's title is the source title with a distinguishing suffix.
// The active tab is unchanged.
func (s *Session) AddTab() Tab {
	src := s.Active()
	t := Tab{
		ID:    s.allocID(),
		Title: src.Title + "2",
		Code:  src.Code,
		Opts:  src.Opts,
	}
	s.tabs = append(s.tabs, t)
	s.gen++
	return t
}

// RemoveTab removes the tab with the given ID. Removing the last
// remaining tab fails with ErrLastTab and leaves the session unchanged.
// If the removed tab was active, its predecessor becomes active (or the
// first tab, when the first was removed).
func (s *Session) RemoveTab(id ID) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownTab, id)
	}
	if len(s.tabs) == 1 {
		return ErrLastTab
	}
	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
	if s.active == id {
		j := i - 1
		if j < 0 {
			j = 0
		}
		s.active = s.tabs[j].ID
	}
	s.gen++
	return nil
}

// SetCode replaces one tab's code body.
func (s *Session) SetCode(id ID, code string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownTab, id)
	}
	s.tabs[i].Code = code
	s.gen++
	return nil
}

// SetTitle replaces one tab's title.
func (s *Session) SetTitle(id ID, title string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownTab, id)
	}
	s.tabs[i].Title = title
	s.gen++
	return nil
}

// SetOptions replaces one tab's compiler configuration.
func (s *Session) SetOptions(id ID, opts benchcfg.OptionSet) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownTab, id)
	}
	s.tabs[i].Opts = opts
	s.gen++
	return nil
}

// CodeUniform reports whether every tab holds the same code body. The
// UI collapses identical tabs into one editable view; this has no
// effect on what gets submitted.
func (s *Session) CodeUniform() bool {
	for _, t := range s.tabs[1:] {
		if t.Code != s.tabs[0].Code {
			return false
		}
	}
	return true
}

// OptionsUniform reports whether every tab holds the same compiler
// configuration.
func (s *Session) OptionsUniform() bool {
	for _, t := range s.tabs[1:] {
		if t.Opts != s.tabs[0].Opts {
			return false
		}
	}
	return true
}

// Rehydrate replaces the whole tab set, e.g. from a stored submission
// retrieved by ID or from a permalink snapshot. Incoming IDs are
// ignored; every tab gets a fresh one. The first tab becomes active.
func (s *Session) Rehydrate(tabs []Tab) error {
	if len(tabs) == 0 {
		return errors.New("benchtab: rehydrate with no tabs")
	}
	fresh := make([]Tab, len(tabs))
	for i, t := range tabs {
		t.ID = s.allocID()
		fresh[i] = t
	}
	s.tabs = fresh
	s.active = fresh[0].ID
	s.gen++
	return nil
}
