// Copyright 2025 The Quick Bench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchlink

import (
	"testing"

	"github.com/kingfs/quick-bench-front-end/benchcfg"
	"github.com/kingfs/quick-bench-front-end/benchtab"
)

func TestTokenRoundTrip(t *testing.T) {
	codes := []string{
		"int main() { return 0; }",
		"// unicode: λ → 中文 🚀\nint main() {}",
		"\t\n\"quotes\" and \\backslashes\\",
	}
	for _, code := range codes {
		opts := benchcfg.OptionSet{Compiler: "gcc-9.1", CPPVersion: "17", Optim: "S", Lib: "llvm"}
		tok := EncodeToken(benchtab.Tab{Code: code, Opts: opts})

		got, ok := DecodeToken(tok)
		if !ok {
			t.Fatalf("DecodeToken failed for %q", code)
		}
		if got.Code != code {
			t.Errorf("code: want %q, got %q", code, got.Code)
		}
		if got.Opts != opts {
			t.Errorf("opts: want %v, got %v", opts, got.Opts)
		}
	}
}

func TestDecodeTokenFragmentPrefix(t *testing.T) {
	tok := EncodeToken(benchtab.Tab{Code: "int x;", Opts: benchcfg.Default()})
	if _, ok := DecodeToken("#" + tok); !ok {
		t.Errorf("leading # not tolerated")
	}
}

func TestDecodeTokenDefaults(t *testing.T) {
	// A token carrying only text picks up default options.
	got, ok := DecodeToken("eyJ0ZXh0IjoiaW50IG1haW4oKSB7fSJ9") // {"text":"int main() {}"}
	if !ok {
		t.Fatal("decode failed")
	}
	if got.Opts != benchcfg.Default() {
		t.Errorf("want default options, got %v", got.Opts)
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	tok := EncodeToken(benchtab.Tab{Code: "int x;", Opts: benchcfg.Default()})
	bad := []string{
		"",
		"#",
		"!!!not-base64!!!",
		"aGVsbG8=",                 // valid base64, not JSON
		"e30=",                     // {}, no text field
		tok[:len(tok)/2],           // truncated
		"#" + tok + "corruption==", // trailing garbage
	}
	for _, s := range bad {
		if _, ok := DecodeToken(s); ok {
			t.Errorf("DecodeToken(%q) succeeded, want failure", s)
		}
	}
}

func TestExportImportCode(t *testing.T) {
	code := "static void Bench(benchmark::State& s) { for (auto _ : s) {} }\nBENCHMARK(Bench);"
	wrapped := ExportCode(code)
	if got := ImportCode(wrapped); got != code {
		t.Errorf("ImportCode(ExportCode): want %q, got %q", code, got)
	}
	// Unwrapped code passes through.
	if got := ImportCode(code); got != code {
		t.Errorf("ImportCode on plain code: got %q", got)
	}
}
