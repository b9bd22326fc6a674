package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestLinePrinter(t *testing.T) {
	var buf bytes.Buffer
	p, err := newLinePrinter(&buf, "info", "")
	if err != nil {
		t.Fatalf("newLinePrinter() error: %v", err)
	}

	p.print("debug", "lua", "hidden")
	p.print("warning", "render", "shader fallback")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line printed below min level: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `msg="shader fallback"`) ||
		!strings.Contains(out, "where=render") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLinePrinter_Filter(t *testing.T) {
	var buf bytes.Buffer
	p, err := newLinePrinter(&buf, "debug", `^physics:`)
	if err != nil {
		t.Fatalf("newLinePrinter() error: %v", err)
	}

	p.print("info", "world", "physics: step took 3ms")
	p.print("info", "world", "render: frame done")

	out := buf.String()
	if !strings.Contains(out, "step took") {
		t.Errorf("matching line missing: %s", out)
	}
	if strings.Contains(out, "frame done") {
		t.Errorf("non-matching line printed: %s", out)
	}
}

func TestLinePrinter_BadFilter(t *testing.T) {
	if _, err := newLinePrinter(&bytes.Buffer{}, "info", "("); err == nil {
		t.Error("newLinePrinter() should reject an invalid regular expression")
	}
}
