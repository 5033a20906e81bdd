package behavior

import (
	"context"
	"time"
)

// Status is the result of ticking a behavior tree node.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
	// StatusInvalid marks a node that has not been ticked since construction
	// or its last abort. Tick never returns it.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusRunning:
		return "Running"
	default:
		return "Invalid"
	}
}

// ExecutionContext is passed into every node call. It carries the agent's
// blackboard, the owning engine, the condition evaluator, and the world
// collaborators, so nodes never capture ambient state.
type ExecutionContext struct {
	Context    context.Context
	Blackboard *Blackboard
	Engine     *Engine
	Conditions *Evaluator
	World      *Collaborators
	DeltaTime  time.Duration

	// Clock overrides the time source; nil means time.Now. Timer and
	// Cooldown nodes read time exclusively through Now.
	Clock func() time.Time
}

// Now returns the current time according to the context clock.
func (ctx *ExecutionContext) Now() time.Time {
	if ctx.Clock != nil {
		return ctx.Clock()
	}
	return time.Now()
}

// Evaluate dispatches a named condition. Unregistered names and a missing
// evaluator both resolve to false; conditions never error.
func (ctx *ExecutionContext) Evaluate(name string) bool {
	if ctx.Conditions == nil {
		return false
	}
	return ctx.Conditions.Evaluate(ctx, name)
}

// RequestPresetSwitch asks the owning engine to switch presets at the next
// scheduling boundary. Safe to call from inside a tick.
func (ctx *ExecutionContext) RequestPresetSwitch(name string) {
	if ctx.Engine != nil {
		ctx.Engine.deferSwitch(name)
	}
}

// Node is a single node in a behavior tree. Concrete nodes embed *BaseNode
// and implement Tick; Initialize and Abort have base implementations that
// stateful nodes override.
type Node interface {
	Name() string
	Type() string

	// Tick runs one synchronous evaluation and returns a terminal status or
	// StatusRunning. Call it through Execute, which handles lazy
	// initialization and accounting.
	Tick(ctx *ExecutionContext) Status

	// Initialize is called by Execute on the first tick after construction
	// or after an abort.
	Initialize(ctx *ExecutionContext)

	// Abort resets the node (and, for composites and decorators, every
	// descendant) so the next tick re-initializes it.
	Abort()

	Initialized() bool
	Status() Status

	markInitialized()
	setStatus(Status)
}

// Composite is a node with an ordered list of children.
type Composite interface {
	Node
	AddChild(child Node)
	Children() []Node
}

// WeightedComposite additionally attaches a numeric weight per child.
type WeightedComposite interface {
	Composite
	AddChildWeighted(child Node, weight float64)
}

// Decorator is a node that owns exactly one child.
type Decorator interface {
	Node
	SetChild(child Node)
	Child() Node
}

// Sensor mirrors a slice of collaborator state into the blackboard. The
// engine updates all sensors before each root tick.
type Sensor interface {
	Name() string
	Update(ctx *ExecutionContext) error
}

// Vector3 is a world-space position.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// EntityRef identifies an external entity (target, teammate) by ID.
type EntityRef string

// AlertLevel is the agent's perceived threat level.
type AlertLevel int

const (
	AlertCalm AlertLevel = iota
	AlertSuspicious
	AlertEngaged
)

func (a AlertLevel) String() string {
	switch a {
	case AlertCalm:
		return "calm"
	case AlertSuspicious:
		return "suspicious"
	case AlertEngaged:
		return "engaged"
	default:
		return "unknown"
	}
}

// Role selects which preset family an agent uses.
type Role string

const (
	RoleDefault  Role = "default"
	RoleAssault  Role = "assault"
	RoleDefender Role = "defender"
	RoleSupport  Role = "support"
	RoleSniper   Role = "sniper"
)

// Objective is an externally assigned mission goal.
type Objective struct {
	ID       string  `json:"id" yaml:"id"`
	Type     string  `json:"type" yaml:"type"`
	Position Vector3 `json:"position" yaml:"position"`
}

// Order is a team-channel command addressed to this agent.
type Order struct {
	Type     string    `json:"type"`
	Role     Role      `json:"role,omitempty"`
	Target   EntityRef `json:"target,omitempty"`
	Position Vector3   `json:"position,omitempty"`
}

// TeamMember is one entry of the team roster snapshot.
type TeamMember struct {
	ID   EntityRef `json:"id"`
	Role Role      `json:"role"`
	Down bool      `json:"down"`
}

// Perception is the sensing collaborator. It is sampled into the blackboard
// once per tick; nodes read the mirror, conditions may query it directly.
type Perception interface {
	AlertLevel() AlertLevel
	CurrentTarget() (EntityRef, bool)
	InvestigationPoints() []Vector3
	HasLineOfSight(target EntityRef) bool
}

// Movement is the locomotion collaborator.
type Movement interface {
	Position() Vector3
	MoveTo(p Vector3) error
	LookAround() error
}

// Combat is the weapons collaborator.
type Combat interface {
	AttackTarget(target EntityRef) error
	FindCover() error
	FlankTarget(target EntityRef) error
	SuppressFire(target EntityRef) error
	ThrowAt(p Vector3) error
}

// ResourceProvider exposes the agent's consumables.
type ResourceProvider interface {
	Health() float64
	MaxHealth() float64
	Ammunition() int
	MagazineSize() int
}

// TeamChannel is the squad communication collaborator.
type TeamChannel interface {
	CommunicateToTeam(msgType string, payload any) error
	Roster() []TeamMember
}

// ObjectiveProvider exposes mission objectives.
type ObjectiveProvider interface {
	CurrentObjective() (Objective, bool)
	Complete(id string) error
	Fail(id string) error
}

// Collaborators bundles the external capabilities an agent may have. Any
// field may be nil; leaves fail defensively instead of panicking.
type Collaborators struct {
	Perception Perception
	Movement   Movement
	Combat     Combat
	Resources  ResourceProvider
	Team       TeamChannel
	Objectives ObjectiveProvider
}
