package main

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{
		"width=1280",
		"scale=0.5",
		"fullscreen=false",
		"name=player",
		`title="two words"`,
		"pos=[1,2,3]",
		"empty=",
	})
	if err != nil {
		t.Fatalf("parseArgs() error: %v", err)
	}

	want := map[string]any{
		"width":      float64(1280),
		"scale":      0.5,
		"fullscreen": false,
		"name":       "player",
		"title":      "two words",
		"pos":        []any{float64(1), float64(2), float64(3)},
		"empty":      "",
	}
	for k, v := range want {
		if !reflect.DeepEqual(args[k], v) {
			t.Errorf("args[%q] = %#v, want %#v", k, args[k], v)
		}
	}
}

func TestParseArgs_Invalid(t *testing.T) {
	for _, pair := range []string{"novalue", "=x"} {
		if _, err := parseArgs([]string{pair}); err == nil {
			t.Errorf("parseArgs(%q) should fail", pair)
		}
	}
}

func TestParseLine(t *testing.T) {
	name, args, err := parseLine(`lua_system.execute script='print("hi there")' id=7`)
	if err != nil {
		t.Fatalf("parseLine() error: %v", err)
	}
	if name != "lua_system.execute" {
		t.Errorf("name = %q", name)
	}
	if args["script"] != `print("hi there")` {
		t.Errorf("script = %#v", args["script"])
	}
	if args["id"] != float64(7) {
		t.Errorf("id = %#v", args["id"])
	}
}

func TestParseLine_NoArgs(t *testing.T) {
	name, args, err := parseLine("  renderer.reload  ")
	if err != nil {
		t.Fatalf("parseLine() error: %v", err)
	}
	if name != "renderer.reload" || len(args) != 0 {
		t.Errorf("parseLine() = %q, %v", name, args)
	}
}

func TestParseLine_Empty(t *testing.T) {
	if _, _, err := parseLine("   "); !errors.Is(err, errEmptyLine) {
		t.Errorf("parseLine(blank) error = %v, want errEmptyLine", err)
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"a b\tc", []string{"a", "b", "c"}, false},
		{`k="a b"`, []string{`k="a b"`}, false},
		{`k="say \"hi\""`, []string{`k="say \"hi\""`}, false},
		{"k='a b' x", []string{"k=a b", "x"}, false},
		{"k=''", []string{"k="}, false},
		{`k="open`, nil, true},
		{"k='open", nil, true},
	}
	for _, tt := range tests {
		got, err := splitFields(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitFields(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitFields(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
