package behavior

import (
	"time"
)

// Decorator nodes: Inverter, Repeater, RetryUntilFail, Timer, Cooldown,
// Condition.

// InverterNode swaps Success and Failure; Running passes through.
type InverterNode struct {
	*BaseNode
	child Node
}

func NewInverterNode(name string) *InverterNode {
	return &InverterNode{BaseNode: NewBaseNode(name, "Inverter")}
}

func (in *InverterNode) SetChild(child Node) { in.child = child }

func (in *InverterNode) Child() Node { return in.child }

func (in *InverterNode) Tick(ctx *ExecutionContext) Status {
	if in.child == nil {
		return StatusFailure
	}
	switch Execute(in.child, ctx) {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return StatusRunning
	}
}

func (in *InverterNode) Abort() {
	in.BaseNode.Abort()
	if in.child != nil {
		in.child.Abort()
	}
}

// RepeaterNode re-runs its child, resetting it after every terminal result.
// Individual iterations are invisible to the parent: the repeater keeps
// returning Running and only reports Success once repeatCount iterations have
// completed. A repeatCount below 1 repeats forever.
type RepeaterNode struct {
	*BaseNode
	child        Node
	repeatCount  int
	currentCount int
}

func NewRepeaterNode(name string, repeatCount int) *RepeaterNode {
	return &RepeaterNode{
		BaseNode:    NewBaseNode(name, "Repeater"),
		repeatCount: repeatCount,
	}
}

func (rn *RepeaterNode) SetChild(child Node) { rn.child = child }

func (rn *RepeaterNode) Child() Node { return rn.child }

// SetCount is used by the tree builder to attach the declared count.
func (rn *RepeaterNode) SetCount(count int) { rn.repeatCount = count }

func (rn *RepeaterNode) Tick(ctx *ExecutionContext) Status {
	if rn.child == nil {
		return StatusFailure
	}
	if rn.repeatCount > 0 && rn.currentCount >= rn.repeatCount {
		return StatusSuccess
	}

	st := Execute(rn.child, ctx)
	if st == StatusSuccess || st == StatusFailure {
		rn.currentCount++
		rn.child.Abort()
	}
	return StatusRunning
}

func (rn *RepeaterNode) Abort() {
	rn.BaseNode.Abort()
	rn.currentCount = 0
	if rn.child != nil {
		rn.child.Abort()
	}
}

// RetryUntilFailNode keeps re-running its child until the child fails, which
// the decorator reports as Success.
type RetryUntilFailNode struct {
	*BaseNode
	child Node
}

func NewRetryUntilFailNode(name string) *RetryUntilFailNode {
	return &RetryUntilFailNode{BaseNode: NewBaseNode(name, "RetryUntilFail")}
}

func (rn *RetryUntilFailNode) SetChild(child Node) { rn.child = child }

func (rn *RetryUntilFailNode) Child() Node { return rn.child }

func (rn *RetryUntilFailNode) Tick(ctx *ExecutionContext) Status {
	if rn.child == nil {
		return StatusFailure
	}
	switch Execute(rn.child, ctx) {
	case StatusFailure:
		return StatusSuccess
	case StatusSuccess:
		rn.child.Abort()
		return StatusRunning
	default:
		return StatusRunning
	}
}

func (rn *RetryUntilFailNode) Abort() {
	rn.BaseNode.Abort()
	if rn.child != nil {
		rn.child.Abort()
	}
}

// TimerNode arms at initialization and returns Running, without ticking its
// child, until the duration has elapsed. From then on it forwards the child's
// result on every call; the timer re-arms only through an abort.
type TimerNode struct {
	*BaseNode
	child     Node
	duration  time.Duration
	startedAt time.Time
}

func NewTimerNode(name string, duration time.Duration) *TimerNode {
	return &TimerNode{BaseNode: NewBaseNode(name, "Timer"), duration: duration}
}

func (tn *TimerNode) SetChild(child Node) { tn.child = child }

func (tn *TimerNode) Child() Node { return tn.child }

// SetDuration is used by the tree builder to attach the declared duration.
func (tn *TimerNode) SetDuration(d time.Duration) { tn.duration = d }

func (tn *TimerNode) Initialize(ctx *ExecutionContext) {
	tn.startedAt = ctx.Now()
}

func (tn *TimerNode) Tick(ctx *ExecutionContext) Status {
	if ctx.Now().Sub(tn.startedAt) < tn.duration {
		return StatusRunning
	}
	if tn.child == nil {
		return StatusFailure
	}
	return Execute(tn.child, ctx)
}

func (tn *TimerNode) Abort() {
	tn.BaseNode.Abort()
	tn.startedAt = time.Time{}
	if tn.child != nil {
		tn.child.Abort()
	}
}

// CooldownNode fails immediately, without ticking its child, while the
// cooldown window from the last terminal child result is still open.
// Otherwise it forwards the child's result unmodified; a Running result does
// not re-arm the clock.
type CooldownNode struct {
	*BaseNode
	child    Node
	cooldown time.Duration
	lastRun  time.Time
}

func NewCooldownNode(name string, cooldown time.Duration) *CooldownNode {
	return &CooldownNode{BaseNode: NewBaseNode(name, "Cooldown"), cooldown: cooldown}
}

func (cn *CooldownNode) SetChild(child Node) { cn.child = child }

func (cn *CooldownNode) Child() Node { return cn.child }

// SetDuration is used by the tree builder to attach the declared cooldown.
func (cn *CooldownNode) SetDuration(d time.Duration) { cn.cooldown = d }

func (cn *CooldownNode) Tick(ctx *ExecutionContext) Status {
	if cn.child == nil {
		return StatusFailure
	}
	now := ctx.Now()
	if !cn.lastRun.IsZero() && now.Sub(cn.lastRun) < cn.cooldown {
		return StatusFailure
	}
	st := Execute(cn.child, ctx)
	if st != StatusRunning {
		cn.lastRun = now
	}
	return st
}

func (cn *CooldownNode) Abort() {
	cn.BaseNode.Abort()
	if cn.child != nil {
		cn.child.Abort()
	}
}

// ConditionNode gates its child on a named predicate. A false predicate, an
// unregistered name included, fails without ticking the child. Without a
// child the node acts as a bare check.
type ConditionNode struct {
	*BaseNode
	child     Node
	condition string
}

func NewConditionNode(name, condition string) *ConditionNode {
	return &ConditionNode{BaseNode: NewBaseNode(name, "Condition"), condition: condition}
}

func (cn *ConditionNode) SetChild(child Node) { cn.child = child }

func (cn *ConditionNode) Child() Node { return cn.child }

// SetCondition is used by the tree builder to attach the declared predicate.
func (cn *ConditionNode) SetCondition(condition string) { cn.condition = condition }

func (cn *ConditionNode) Tick(ctx *ExecutionContext) Status {
	if !ctx.Evaluate(cn.condition) {
		return StatusFailure
	}
	if cn.child == nil {
		return StatusSuccess
	}
	return Execute(cn.child, ctx)
}

func (cn *ConditionNode) Abort() {
	cn.BaseNode.Abort()
	if cn.child != nil {
		cn.child.Abort()
	}
}
