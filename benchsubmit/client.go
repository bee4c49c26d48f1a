// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchsubmit sends benchmark sessions to the build service
// and drives the submission lifecycle: local validation, the pending
// state with its estimated progress indicator, and delivery of typed
// outcomes.
package benchsubmit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kingfs/quick-bench-front-end/benchresult"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

// ProtocolVersion is the request protocol generation this client
// speaks. The server's response shape, not this number, decides how a
// payload is decoded; see benchresult.
const ProtocolVersion = 3

// DefaultBaseURL is the public build service.
const DefaultBaseURL = "https://quick-bench.com"

// ErrMalformed wraps response bodies that arrived but could not be
// decoded. Callers distinguish it from transport failures and from
// empty bodies (benchresult.ErrEmptyPayload).
var ErrMalformed = errors.New("benchsubmit: malformed response")

// A Tab is the wire form of one variant in a build request.
type Tab struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Compiler   string `json:"compiler"`
	Optim      string `json:"optim"`
	CPPVersion string `json:"cppVersion"`
	Lib        string `json:"lib"`
}

// A Request is a versioned multi-variant build request.
type Request struct {
	Tabs            []Tab `json:"tabs"`
	ProtocolVersion int   `json:"protocolVersion"`
	Force           bool  `json:"force"`
}

// NewRequest converts a session snapshot into a build request.
func NewRequest(tabs []benchtab.Tab, force bool) *Request {
	req := &Request{ProtocolVersion: ProtocolVersion, Force: force}
	for _, t := range tabs {
		req.Tabs = append(req.Tabs, Tab{
			Code:       t.Code,
			Title:      t.Title,
			Compiler:   t.Opts.Compiler,
			Optim:      t.Opts.Optim,
			CPPVersion: t.Opts.CPPVersion,
			Lib:        t.Opts.Lib,
		})
	}
	return req
}

// A LegacyRequest is the single-variant request understood by V1-era
// servers.
type LegacyRequest struct {
	Code            string `json:"code"`
	Compiler        string `json:"compiler"`
	Optim           string `json:"optim"`
	CPPVersion      string `json:"cppVersion"`
	ProtocolVersion int    `json:"protocolVersion"`
	Force           bool   `json:"force"`
}

// A Client speaks to one build service.
type Client struct {
	// BaseURL is the service root, e.g. "https://quick-bench.com".
	// Empty means DefaultBaseURL.
	BaseURL string

	// HTTPClient is the client to use; nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Client) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// Build submits a multi-variant build request and decodes the
// response.
func (c *Client) Build(ctx context.Context, req *Request) (*benchresult.Payload, error) {
	return c.post(ctx, c.base()+"/build/", req)
}

// Get retrieves a stored submission by id, used to rehydrate a session
// from a permalink.
func (c *Client) Get(ctx context.Context, id string) (*benchresult.Payload, error) {
	return c.get(ctx, c.base()+"/build/"+url.PathEscape(id))
}

// LegacyBuild submits a single-variant request to a V1-era server via
// the unversioned route.
func (c *Client) LegacyBuild(ctx context.Context, req *LegacyRequest) (*benchresult.Payload, error) {
	req.ProtocolVersion = 1
	return c.post(ctx, c.base()+"/", req)
}

// LegacyGet retrieves a stored submission from a V1-era server.
func (c *Client) LegacyGet(ctx context.Context, id string) (*benchresult.Payload, error) {
	return c.get(ctx, c.base()+"/get/"+url.PathEscape(id))
}

func (c *Client) post(ctx context.Context, url string, body interface{}) (*benchresult.Payload, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	return c.do(hreq)
}

func (c *Client) get(ctx context.Context, url string) (*benchresult.Payload, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(hreq)
}

func (c *Client) do(hreq *http.Request) (*benchresult.Payload, error) {
	resp, err := c.httpClient().Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("benchsubmit: %s: %s", hreq.URL.Path, resp.Status)
	}
	p, err := benchresult.Decode(data)
	if err != nil {
		if errors.Is(err, benchresult.ErrEmptyPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}
