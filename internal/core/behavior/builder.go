package behavior

import (
	"fmt"
	"time"
)

// Builder compiles a Definition into an instantiated node graph using a
// registry. Building is pure: no side effects beyond allocation, and the same
// definition always yields a structurally identical tree.
type Builder struct {
	registry *Registry
}

// NewBuilder creates a builder over the given registry.
func NewBuilder(registry *Registry) *Builder {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	return &Builder{registry: registry}
}

// Build recursively compiles a definition. An unknown node type anywhere in
// the tree fails the build; there are no silent no-op nodes.
func (b *Builder) Build(def *Definition) (Node, error) {
	if def == nil {
		return nil, fmt.Errorf("definition cannot be nil")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return b.buildNode(def)
}

func (b *Builder) buildNode(def *Definition) (Node, error) {
	if f, ok := b.registry.compositeFactory(def.Type); ok {
		return b.buildComposite(def, f)
	}
	if f, ok := b.registry.decoratorFactory(def.Type); ok {
		return b.buildDecorator(def, f)
	}
	if f, ok := b.registry.leafFactory(def.Type); ok {
		node, err := f(def)
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %w", def.describe(), err)
		}
		return node, nil
	}
	return nil, fmt.Errorf("unknown node type: %s", def.Type)
}

func (b *Builder) buildComposite(def *Definition, f CompositeFactory) (Node, error) {
	node, err := f(def)
	if err != nil {
		return nil, fmt.Errorf("composite %s: %w", def.describe(), err)
	}
	weighted, isWeighted := node.(WeightedComposite)
	for _, childDef := range def.Children {
		child, err := b.buildNode(childDef)
		if err != nil {
			return nil, fmt.Errorf("composite %s: %w", def.describe(), err)
		}
		if isWeighted {
			weighted.AddChildWeighted(child, childDef.ChildWeight())
		} else {
			node.AddChild(child)
		}
	}
	return node, nil
}

func (b *Builder) buildDecorator(def *Definition, f DecoratorFactory) (Node, error) {
	node, err := f(def)
	if err != nil {
		return nil, fmt.Errorf("decorator %s: %w", def.describe(), err)
	}

	// recognized scalar properties are copied onto the node
	if def.Condition != "" {
		if c, ok := node.(interface{ SetCondition(string) }); ok {
			c.SetCondition(def.Condition)
		}
	}
	if def.Duration > 0 {
		if d, ok := node.(interface{ SetDuration(time.Duration) }); ok {
			d.SetDuration(def.DurationValue())
		}
	}
	if def.Count != 0 {
		if c, ok := node.(interface{ SetCount(int) }); ok {
			c.SetCount(def.Count)
		}
	}

	if def.Child != nil {
		child, err := b.buildNode(def.Child)
		if err != nil {
			return nil, fmt.Errorf("decorator %s: %w", def.describe(), err)
		}
		node.SetChild(child)
	}
	return node, nil
}
