package behavior

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PresetDef is one named tree inside a preset file.
type PresetDef struct {
	Name string      `json:"name" yaml:"name"`
	Tree *Definition `json:"tree" yaml:"tree"`
}

// PresetFile is the on-disk preset format.
type PresetFile struct {
	Presets []PresetDef `json:"presets" yaml:"presets"`
}

// Validate checks every preset has a name and a structurally valid tree.
func (f *PresetFile) Validate() error {
	seen := make(map[string]struct{}, len(f.Presets))
	for i, p := range f.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset %d: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("preset %q: duplicate name", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Tree == nil {
			return fmt.Errorf("preset %q: tree is required", p.Name)
		}
		if err := p.Tree.Validate(); err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}
	return nil
}

// LoadJSON decodes a preset file from JSON.
func LoadJSON(r io.Reader) (*PresetFile, error) {
	var f PresetFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode preset json: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadYAML decodes a preset file from YAML.
func LoadYAML(r io.Reader) (*PresetFile, error) {
	var f PresetFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode preset yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadPresetFile picks the decoder from the file extension. ".json" is JSON,
// anything else is treated as YAML.
func LoadPresetFile(path string) (*PresetFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preset file: %w", err)
	}
	defer fh.Close()

	if filepath.Ext(path) == ".json" {
		return LoadJSON(fh)
	}
	return LoadYAML(fh)
}

// Apply registers every preset in the file onto the engine. Registration is
// all-or-nothing per preset: a failing tree is reported and the rest still
// load.
func (f *PresetFile) Apply(engine *Engine) error {
	var firstErr error
	for _, p := range f.Presets {
		if err := engine.RegisterPreset(p.Name, p.Tree); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
