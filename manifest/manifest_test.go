package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oriumgames/bedrockdb/block"
)

const lamps = `
blocks:
  - name: example:lamp
    version: 17959425
    states:
      - name: lit
        values: [false, true]
      - name: colour
        values: [red, green, blue]
  - name: example:slab
    properties:
      top: true
      height: 3
  - name: example:plain
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(lamps))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Manifest{Blocks: []Block{
		{Name: "example:lamp", Version: 17959425, States: []State{
			{Name: "lit", Values: []any{false, true}},
			{Name: "colour", Values: []any{"red", "green", "blue"}},
		}},
		{Name: "example:slab", Properties: map[string]any{"top": true, "height": 3}},
		{Name: "example:plain"},
	}}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"syntax":           "blocks: [",
		"no blocks":        "version: 1",
		"unknown field":    "blocks:\n  - name: a:b\n    colour: red",
		"bad name":         "blocks:\n  - name: Lamp",
		"negative version": "blocks:\n  - name: a:b\n    version: -1",
		"empty values":     "blocks:\n  - name: a:b\n    states:\n      - name: lit\n        values: []",
		"repeated values":  "blocks:\n  - name: a:b\n    states:\n      - name: lit\n        values: [1, 1]",
		"both forms":       "blocks:\n  - name: a:b\n    properties: {a: 1}\n    states:\n      - name: lit\n        values: [1]",
	} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%v: expected error", name)
		}
	}
}

func TestApply(t *testing.T) {
	m, err := Parse([]byte(lamps))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := block.NewBuilder(false)
	before := b.Len()
	if err := m.Apply(b); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := b.Len() - before; got != 2*3+1+1 {
		t.Fatalf("Apply registered %v states, want 8", got)
	}
	tab, err := b.Finalise()
	if err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	rid, ok := tab.StateToRuntimeID("example:lamp", map[string]any{"lit": true, "colour": "blue"})
	if !ok {
		t.Fatalf("lamp state not registered")
	}
	s, _ := tab.RuntimeIDToState(rid)
	if s.Version != 17959425 {
		t.Fatalf("lamp registered with version %v", s.Version)
	}
	if _, ok := tab.StateToRuntimeID("example:slab", map[string]any{"top": true, "height": int32(3)}); !ok {
		t.Fatalf("slab state not registered")
	}
	rid, ok = tab.StateToRuntimeID("example:plain", nil)
	if !ok {
		t.Fatalf("plain state not registered")
	}
	if s, _ := tab.RuntimeIDToState(rid); s.Version != block.CurrentBlockVersion {
		t.Fatalf("plain registered with version %v", s.Version)
	}
}

func TestApplyDuplicate(t *testing.T) {
	m, err := Parse([]byte("blocks:\n  - name: a:b\n  - name: a:b"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = m.Apply(block.NewBuilder(false))
	if !errors.Is(err, block.ErrDuplicateState) {
		t.Fatalf("expected ErrDuplicateState, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.yaml")
	if err := os.WriteFile(path, []byte(lamps), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Blocks) != 3 {
		t.Fatalf("loaded %v blocks", len(m.Blocks))
	}
	if err := os.WriteFile(path, []byte("blocks: 3"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming the file, got %v", err)
	}
}
