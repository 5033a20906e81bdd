package behavior

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Definition is the declarative, serializable form of a behavior tree node.
// Configuration produces it, the Builder consumes it exactly once, and it is
// never mutated after compilation: the same definition always builds a
// structurally identical tree.
type Definition struct {
	Type      string         `json:"type" yaml:"type"`
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Children  []*Definition  `json:"children,omitempty" yaml:"children,omitempty"`
	Child     *Definition    `json:"child,omitempty" yaml:"child,omitempty"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	Duration  float64        `json:"duration,omitempty" yaml:"duration,omitempty"` // seconds
	Count     int            `json:"count,omitempty" yaml:"count,omitempty"`
	Weight    float64        `json:"weight,omitempty" yaml:"weight,omitempty"` // used under weighted composites
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Validate checks the definition tree for structural problems that do not
// need a registry to detect.
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("definition is nil")
	}
	if d.Type == "" {
		return fmt.Errorf("node type is required")
	}
	if len(d.Children) > 0 && d.Child != nil {
		return fmt.Errorf("node %s declares both children and child", d.describe())
	}
	for i, child := range d.Children {
		if child == nil {
			return fmt.Errorf("node %s: child %d is nil", d.describe(), i)
		}
		if err := child.Validate(); err != nil {
			return fmt.Errorf("node %s: %w", d.describe(), err)
		}
	}
	if d.Child != nil {
		if err := d.Child.Validate(); err != nil {
			return fmt.Errorf("node %s: %w", d.describe(), err)
		}
	}
	return nil
}

func (d *Definition) describe() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Type
}

// DurationValue converts the declared duration (seconds) to a time.Duration.
func (d *Definition) DurationValue() time.Duration {
	return time.Duration(d.Duration * float64(time.Second))
}

// ChildWeight returns the sampling weight a weighted composite attaches to
// this definition; unset weights default to 1.0.
func (d *Definition) ChildWeight() float64 {
	if d.Weight <= 0 {
		return 1.0
	}
	return d.Weight
}

// GetStringParam retrieves a string entry from Params.
func (d *Definition) GetStringParam(key string) (string, bool) {
	v, ok := d.Params[key]
	if !ok {
		return "", false
	}
	s, isStr := v.(string)
	return s, isStr
}

// GetFloatParam retrieves a numeric entry from Params.
func (d *Definition) GetFloatParam(key string) (float64, bool) {
	v, ok := d.Params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Fingerprint produces a stable structural hash of the definition. Two
// definitions with equal fingerprints build identical trees.
func (d *Definition) Fingerprint() uint64 {
	h := xxhash.New()
	d.hashInto(h)
	return h.Sum64()
}

func (d *Definition) hashInto(h *xxhash.Digest) {
	_, _ = h.WriteString(d.Type)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(d.Name)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(d.Condition)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatFloat(d.Duration, 'g', -1, 64))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(d.Count))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatFloat(d.Weight, 'g', -1, 64))

	keys := make([]string, 0, len(d.Params))
	for k := range d.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = h.WriteString("|p:")
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(fmt.Sprint(d.Params[k]))
	}

	for _, child := range d.Children {
		_, _ = h.WriteString("|(")
		child.hashInto(h)
		_, _ = h.WriteString(")")
	}
	if d.Child != nil {
		_, _ = h.WriteString("|<")
		d.Child.hashInto(h)
		_, _ = h.WriteString(">")
	}
}
