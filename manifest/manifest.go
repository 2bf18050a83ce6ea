// Package manifest loads YAML manifests describing custom blocks and registers them with a block.Builder.
//
// A manifest lists blocks by name. A block either has a fixed set of properties or a list of states, in
// which case every combination of the state values is registered:
//
//	blocks:
//	  - name: example:lamp
//	    states:
//	      - name: lit
//	        values: [false, true]
//	      - name: colour
//	        values: [red, green]
//	  - name: example:slab
//	    properties:
//	      top: false
package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/oriumgames/bedrockdb/block"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("manifest.schema.json", schemaJSON)
})

// Manifest is a list of custom blocks.
type Manifest struct {
	Blocks []Block `yaml:"blocks"`
}

// Block is a custom block of a Manifest.
type Block struct {
	Name string `yaml:"name"`
	// Version is the block version the states are registered with. Zero means block.CurrentBlockVersion.
	Version    int32          `yaml:"version,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
	States     []State        `yaml:"states,omitempty"`
}

// State is a block state property and the values it may take.
type State struct {
	Name   string `yaml:"name"`
	Values []any  `yaml:"values"`
}

// Parse parses and validates a YAML manifest.
func Parse(b []byte) (Manifest, error) {
	var m Manifest
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	if err := validate(doc); err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}

// Load reads and parses the YAML manifest at path.
func Load(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	m, err := Parse(b)
	if err != nil {
		return m, fmt.Errorf("%v: %w", path, err)
	}
	return m, nil
}

// validate checks a decoded YAML document against the manifest schema. The document is passed through JSON
// first so that it only holds the value types the validator understands.
func validate(doc any) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// Apply registers every block of the Manifest with b. It stops at the first block that fails to register.
func (m Manifest) Apply(b *block.Builder) error {
	for _, blk := range m.Blocks {
		version := blk.Version
		if version == 0 {
			version = block.CurrentBlockVersion
		}
		var err error
		if len(blk.States) > 0 {
			enums := make([]block.StateEnum, len(blk.States))
			for i, s := range blk.States {
				enums[i] = block.StateEnum{Name: s.Name, Values: s.Values}
			}
			err = b.RegisterPermutation(blk.Name, version, enums)
		} else {
			err = b.RegisterCustomBlock(block.State{Name: blk.Name, Properties: blk.Properties, Version: version})
		}
		if err != nil {
			return fmt.Errorf("manifest: block %v: %w", blk.Name, err)
		}
	}
	return nil
}
