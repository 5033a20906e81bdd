package behavior

import (
	"sync"
)

// Factories instantiate nodes from their definitions. They allocate and
// configure a bare node; children are attached by the Builder.
type (
	CompositeFactory func(def *Definition) (Composite, error)
	DecoratorFactory func(def *Definition) (Decorator, error)
	LeafFactory      func(def *Definition) (Node, error)
)

// Registry maps a definition type string to a node factory, partitioned by
// capability class. Exactly one entry exists per name; last write wins.
type Registry struct {
	mu         sync.RWMutex
	composites map[string]CompositeFactory
	decorators map[string]DecoratorFactory
	leaves     map[string]LeafFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		composites: make(map[string]CompositeFactory),
		decorators: make(map[string]DecoratorFactory),
		leaves:     make(map[string]LeafFactory),
	}
}

// NewDefaultRegistry returns a registry with all built-in node types.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

func (r *Registry) RegisterComposite(name string, factory CompositeFactory) {
	r.mu.Lock()
	r.composites[name] = factory
	r.mu.Unlock()
}

func (r *Registry) RegisterDecorator(name string, factory DecoratorFactory) {
	r.mu.Lock()
	r.decorators[name] = factory
	r.mu.Unlock()
}

func (r *Registry) RegisterLeaf(name string, factory LeafFactory) {
	r.mu.Lock()
	r.leaves[name] = factory
	r.mu.Unlock()
}

func (r *Registry) compositeFactory(name string) (CompositeFactory, bool) {
	r.mu.RLock()
	f, ok := r.composites[name]
	r.mu.RUnlock()
	return f, ok
}

func (r *Registry) decoratorFactory(name string) (DecoratorFactory, bool) {
	r.mu.RLock()
	f, ok := r.decorators[name]
	r.mu.RUnlock()
	return f, ok
}

func (r *Registry) leafFactory(name string) (LeafFactory, bool) {
	r.mu.RLock()
	f, ok := r.leaves[name]
	r.mu.RUnlock()
	return f, ok
}

// Types returns all registered type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.composites)+len(r.decorators)+len(r.leaves))
	for name := range r.composites {
		types = append(types, name)
	}
	for name := range r.decorators {
		types = append(types, name)
	}
	for name := range r.leaves {
		types = append(types, name)
	}
	return types
}

// RegisterBuiltins registers the standard composites, decorators and leaves.
func RegisterBuiltins(r *Registry) {
	r.RegisterComposite("Sequence", func(def *Definition) (Composite, error) {
		return NewSequenceNode(def.Name), nil
	})
	r.RegisterComposite("Selector", func(def *Definition) (Composite, error) {
		return NewSelectorNode(def.Name), nil
	})
	r.RegisterComposite("Parallel", func(def *Definition) (Composite, error) {
		return NewParallelNode(def.Name), nil
	})
	r.RegisterComposite("RandomSelector", func(def *Definition) (Composite, error) {
		return NewRandomSelectorNode(def.Name), nil
	})
	r.RegisterComposite("WeightedSelector", func(def *Definition) (Composite, error) {
		return NewWeightedSelectorNode(def.Name), nil
	})

	r.RegisterDecorator("Inverter", func(def *Definition) (Decorator, error) {
		return NewInverterNode(def.Name), nil
	})
	r.RegisterDecorator("Repeater", func(def *Definition) (Decorator, error) {
		return NewRepeaterNode(def.Name, -1), nil
	})
	r.RegisterDecorator("RetryUntilFail", func(def *Definition) (Decorator, error) {
		return NewRetryUntilFailNode(def.Name), nil
	})
	r.RegisterDecorator("Timer", func(def *Definition) (Decorator, error) {
		return NewTimerNode(def.Name, 0), nil
	})
	r.RegisterDecorator("Cooldown", func(def *Definition) (Decorator, error) {
		return NewCooldownNode(def.Name, 0), nil
	})
	r.RegisterDecorator("Condition", func(def *Definition) (Decorator, error) {
		return NewConditionNode(def.Name, ""), nil
	})

	RegisterBuiltinLeaves(r)
}
