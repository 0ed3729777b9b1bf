// Package schema parses graph model files (YAML) and derives per-node
// identity fields from their Key properties. Model files are optional;
// when present they let an index spec omit id_field for indices named
// after a node type.
package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// modelFile mirrors the model YAML layout. Only the parts the loader
// needs are mapped; unknown keys are ignored.
type modelFile struct {
	Nodes           map[string]nodeDef `yaml:"Nodes"`
	Relationships   map[string]nodeDef `yaml:"Relationships"`
	PropDefinitions map[string]propDef `yaml:"PropDefinitions"`
}

type nodeDef struct {
	Props []string `yaml:"Props"`
}

type propDef struct {
	Key  bool `yaml:"Key"`
	Req  any  `yaml:"Req"`
	Type any  `yaml:"Type"`
}

// Schema is the merged view over one or more model files.
type Schema struct {
	nodes map[string]nodeDef
	props map[string]propDef

	// IDFields maps node type to its single Key property.
	IDFields map[string]string
}

// LoadModels reads model files in order and merges them; later files
// override earlier definitions of the same node or property, matching how
// the model repository splits shared and project-specific files.
func LoadModels(paths []string) (*Schema, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model files given")
	}

	s := &Schema{
		nodes:    map[string]nodeDef{},
		props:    map[string]propDef{},
		IDFields: map[string]string{},
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read model file: %w", err)
		}
		var mf modelFile
		if err := yaml.Unmarshal(data, &mf); err != nil {
			return nil, fmt.Errorf("parse model file %s: %w", path, err)
		}
		for name, def := range mf.Nodes {
			s.nodes[name] = def
		}
		for name, def := range mf.PropDefinitions {
			s.props[name] = def
		}
	}

	if err := s.deriveIDFields(); err != nil {
		return nil, err
	}
	return s, nil
}

// deriveIDFields finds the Key property for each node type. A node with
// multiple Key properties cannot key documents and is a hard error; a node
// with none is simply absent from IDFields.
func (s *Schema) deriveIDFields() error {
	for name, node := range s.nodes {
		// Names starting with underscore are meta entries, not node types.
		if strings.HasPrefix(name, "_") {
			continue
		}
		var keys []string
		for _, prop := range node.Props {
			if def, ok := s.props[prop]; ok && def.Key {
				keys = append(keys, prop)
			}
		}
		switch len(keys) {
		case 0:
		case 1:
			s.IDFields[name] = keys[0]
		default:
			return fmt.Errorf("node %s has more than one key property: %s", name, strings.Join(keys, ", "))
		}
	}
	return nil
}

// Required reports whether a property is marked required. The model files
// encode Req as a boolean or as "true"/"yes" strings.
func (s *Schema) Required(prop string) bool {
	def, ok := s.props[prop]
	if !ok {
		return false
	}
	switch v := def.Req.(type) {
	case bool:
		return v
	case string:
		lower := strings.ToLower(strings.TrimSpace(v))
		return lower == "true" || lower == "yes"
	default:
		return false
	}
}
