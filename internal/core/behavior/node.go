package behavior

// BaseNode provides the name, type, status and initialization bookkeeping
// shared by every node kind.
type BaseNode struct {
	name        string
	nodeType    string
	status      Status
	initialized bool
}

// NewBaseNode creates the embedded base for a concrete node.
func NewBaseNode(name, nodeType string) *BaseNode {
	if name == "" {
		name = nodeType
	}
	return &BaseNode{
		name:     name,
		nodeType: nodeType,
		status:   StatusInvalid,
	}
}

func (b *BaseNode) Name() string { return b.name }

func (b *BaseNode) Type() string { return b.nodeType }

func (b *BaseNode) Status() Status { return b.status }

func (b *BaseNode) Initialized() bool { return b.initialized }

// Initialize is a no-op by default; stateful nodes override it.
func (b *BaseNode) Initialize(_ *ExecutionContext) {}

// Abort resets the base state. Composites and decorators override Abort to
// cascade into their children, calling this first.
func (b *BaseNode) Abort() {
	b.status = StatusFailure
	b.initialized = false
}

func (b *BaseNode) markInitialized() { b.initialized = true }

func (b *BaseNode) setStatus(s Status) { b.status = s }

// Execute wraps a node's Tick with lazy initialization and per-node-type
// accounting. All parent nodes and the engine tick children through it.
func Execute(n Node, ctx *ExecutionContext) Status {
	start := ctx.Now()
	if !n.Initialized() {
		n.Initialize(ctx)
		n.markInitialized()
	}
	st := n.Tick(ctx)
	n.setStatus(st)
	if ctx.Engine != nil {
		ctx.Engine.recordNode(n.Type(), ctx.Now().Sub(start))
	}
	return st
}
