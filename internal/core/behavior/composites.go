package behavior

import (
	"math/rand"
	"time"
)

// Composite nodes: Sequence, Selector, Parallel, RandomSelector,
// WeightedSelector.

// SequenceNode executes children in order, failing on the first failure. A
// running child stores a resumption index so earlier children are not
// re-ticked on the next call.
type SequenceNode struct {
	*BaseNode
	children []Node
	current  int
}

func NewSequenceNode(name string) *SequenceNode {
	return &SequenceNode{BaseNode: NewBaseNode(name, "Sequence")}
}

func (sn *SequenceNode) AddChild(child Node) { sn.children = append(sn.children, child) }

func (sn *SequenceNode) Children() []Node { return sn.children }

func (sn *SequenceNode) Tick(ctx *ExecutionContext) Status {
	for sn.current < len(sn.children) {
		switch Execute(sn.children[sn.current], ctx) {
		case StatusFailure:
			sn.current = 0
			return StatusFailure
		case StatusRunning:
			return StatusRunning
		default:
			sn.current++
		}
	}
	sn.current = 0
	return StatusSuccess
}

func (sn *SequenceNode) Abort() {
	sn.BaseNode.Abort()
	sn.current = 0
	for _, child := range sn.children {
		child.Abort()
	}
}

// SelectorNode executes children in order until one succeeds; only exhausting
// all children yields failure. Shares the resumption index semantics of
// SequenceNode.
type SelectorNode struct {
	*BaseNode
	children []Node
	current  int
}

func NewSelectorNode(name string) *SelectorNode {
	return &SelectorNode{BaseNode: NewBaseNode(name, "Selector")}
}

func (sn *SelectorNode) AddChild(child Node) { sn.children = append(sn.children, child) }

func (sn *SelectorNode) Children() []Node { return sn.children }

func (sn *SelectorNode) Tick(ctx *ExecutionContext) Status {
	for sn.current < len(sn.children) {
		switch Execute(sn.children[sn.current], ctx) {
		case StatusSuccess:
			sn.current = 0
			return StatusSuccess
		case StatusRunning:
			return StatusRunning
		default:
			sn.current++
		}
	}
	sn.current = 0
	return StatusFailure
}

func (sn *SelectorNode) Abort() {
	sn.BaseNode.Abort()
	sn.current = 0
	for _, child := range sn.children {
		child.Abort()
	}
}

// ParallelNode ticks every child on every call. It succeeds only when all
// children succeeded this tick, keeps running while at least one child is
// running, and fails otherwise.
type ParallelNode struct {
	*BaseNode
	children []Node
}

func NewParallelNode(name string) *ParallelNode {
	return &ParallelNode{BaseNode: NewBaseNode(name, "Parallel")}
}

func (pn *ParallelNode) AddChild(child Node) { pn.children = append(pn.children, child) }

func (pn *ParallelNode) Children() []Node { return pn.children }

func (pn *ParallelNode) Tick(ctx *ExecutionContext) Status {
	if len(pn.children) == 0 {
		return StatusSuccess
	}

	successes := 0
	running := 0
	for _, child := range pn.children {
		switch Execute(child, ctx) {
		case StatusSuccess:
			successes++
		case StatusRunning:
			running++
		}
	}

	if successes == len(pn.children) {
		return StatusSuccess
	}
	if running > 0 {
		return StatusRunning
	}
	return StatusFailure
}

func (pn *ParallelNode) Abort() {
	pn.BaseNode.Abort()
	for _, child := range pn.children {
		child.Abort()
	}
}

// RandomSelectorNode behaves like SelectorNode but walks the children in a
// random permutation. The permutation is drawn once per activation, at
// initialization, and holds until the node is aborted.
type RandomSelectorNode struct {
	*BaseNode
	children []Node
	order    []int
	current  int
	rng      *rand.Rand
}

func NewRandomSelectorNode(name string) *RandomSelectorNode {
	return &RandomSelectorNode{
		BaseNode: NewBaseNode(name, "RandomSelector"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource replaces the permutation source. Tests use a fixed seed.
func (rn *RandomSelectorNode) SetRandSource(src rand.Source) { rn.rng = rand.New(src) }

func (rn *RandomSelectorNode) AddChild(child Node) { rn.children = append(rn.children, child) }

func (rn *RandomSelectorNode) Children() []Node { return rn.children }

func (rn *RandomSelectorNode) Initialize(_ *ExecutionContext) {
	rn.order = rn.rng.Perm(len(rn.children))
	rn.current = 0
}

func (rn *RandomSelectorNode) Tick(ctx *ExecutionContext) Status {
	if len(rn.order) != len(rn.children) {
		// children were attached after construction but before first tick
		rn.order = rn.rng.Perm(len(rn.children))
		rn.current = 0
	}
	for rn.current < len(rn.order) {
		switch Execute(rn.children[rn.order[rn.current]], ctx) {
		case StatusSuccess:
			rn.current = 0
			return StatusSuccess
		case StatusRunning:
			return StatusRunning
		default:
			rn.current++
		}
	}
	rn.current = 0
	return StatusFailure
}

func (rn *RandomSelectorNode) Abort() {
	rn.BaseNode.Abort()
	rn.order = nil
	rn.current = 0
	for _, child := range rn.children {
		child.Abort()
	}
}

// WeightedSelectorNode draws one child per tick via weighted random sampling
// and returns its result directly. There is no traversal state: a different
// child may be drawn on the next tick even while the previous pick is still
// running. That matches the original engine; see DESIGN.md before changing.
type WeightedSelectorNode struct {
	*BaseNode
	children []Node
	weights  []float64
	rng      *rand.Rand
}

func NewWeightedSelectorNode(name string) *WeightedSelectorNode {
	return &WeightedSelectorNode{
		BaseNode: NewBaseNode(name, "WeightedSelector"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource replaces the sampling source. Tests use a fixed seed.
func (wn *WeightedSelectorNode) SetRandSource(src rand.Source) { wn.rng = rand.New(src) }

func (wn *WeightedSelectorNode) AddChild(child Node) { wn.AddChildWeighted(child, 1.0) }

func (wn *WeightedSelectorNode) AddChildWeighted(child Node, weight float64) {
	if weight < 0 {
		weight = 0
	}
	wn.children = append(wn.children, child)
	wn.weights = append(wn.weights, weight)
}

func (wn *WeightedSelectorNode) Children() []Node { return wn.children }

func (wn *WeightedSelectorNode) Tick(ctx *ExecutionContext) Status {
	if len(wn.children) == 0 {
		return StatusFailure
	}
	return Execute(wn.children[wn.pick()], ctx)
}

func (wn *WeightedSelectorNode) pick() int {
	total := 0.0
	for _, w := range wn.weights {
		total += w
	}
	if total <= 0 {
		return wn.rng.Intn(len(wn.children))
	}
	draw := wn.rng.Float64() * total
	for i, w := range wn.weights {
		draw -= w
		if draw < 0 {
			return i
		}
	}
	return len(wn.children) - 1
}

func (wn *WeightedSelectorNode) Abort() {
	wn.BaseNode.Abort()
	for _, child := range wn.children {
		child.Abort()
	}
}
