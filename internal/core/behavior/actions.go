package behavior

import (
	"math"
	"time"

	"github.com/halcyongames/sentinel/internal/core/observability/log"
)

// Built-in leaf nodes. Leaves are non-blocking: they issue collaborator
// commands, translate the outcome into a Status, and use Running to be
// resumed on the next tick. A leaf invoked without its required collaborator
// fails instead of panicking.

const (
	defaultPatrolPointCount = 4
	defaultPatrolRadius     = 10.0
	arrivalEpsilon          = 1.0
)

func currentPosition(ctx *ExecutionContext) Vector3 {
	if ctx.World != nil && ctx.World.Movement != nil {
		return ctx.World.Movement.Position()
	}
	if pos, ok := ctx.Blackboard.GetVector(KeyPosition); ok {
		return pos
	}
	return Vector3{}
}

func distance(a, b Vector3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func movementOf(ctx *ExecutionContext) Movement {
	if ctx.World == nil {
		return nil
	}
	return ctx.World.Movement
}

func combatOf(ctx *ExecutionContext) Combat {
	if ctx.World == nil {
		return nil
	}
	return ctx.World.Combat
}

func targetOf(ctx *ExecutionContext) (EntityRef, bool) {
	v, ok := ctx.Blackboard.Get(KeyCurrentTarget)
	if !ok || v == nil {
		return "", false
	}
	ref, isRef := v.(EntityRef)
	if !isRef || ref == "" {
		return "", false
	}
	return ref, true
}

// PatrolAction walks a looping route of patrol points stored on the
// blackboard. When no route exists yet it generates a default ring of points
// around the current position and reports Running; movement starts on the
// next tick.
type PatrolAction struct {
	*BaseNode
}

func NewPatrolAction(name string) *PatrolAction {
	return &PatrolAction{BaseNode: NewBaseNode(name, "Patrol")}
}

func (pa *PatrolAction) Tick(ctx *ExecutionContext) Status {
	bb := ctx.Blackboard
	points, _ := bb.Get(KeyPatrolPoints)
	route, _ := points.([]Vector3)

	if len(route) == 0 {
		origin := currentPosition(ctx)
		route = defaultPatrolRoute(origin)
		bb.Set(KeyPatrolPoints, route)
		bb.Set(KeyPatrolIndex, 0)
		return StatusRunning
	}

	move := movementOf(ctx)
	if move == nil {
		return StatusFailure
	}

	idx, _ := bb.GetInt(KeyPatrolIndex)
	idx %= len(route)
	waypoint := route[idx]

	if distance(move.Position(), waypoint) <= arrivalEpsilon {
		bb.Set(KeyPatrolIndex, (idx+1)%len(route))
		return StatusRunning
	}
	if err := move.MoveTo(waypoint); err != nil {
		return StatusFailure
	}
	return StatusRunning
}

func defaultPatrolRoute(origin Vector3) []Vector3 {
	route := make([]Vector3, 0, defaultPatrolPointCount)
	for i := 0; i < defaultPatrolPointCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(defaultPatrolPointCount)
		route = append(route, Vector3{
			X: origin.X + defaultPatrolRadius*math.Cos(angle),
			Y: origin.Y + defaultPatrolRadius*math.Sin(angle),
			Z: origin.Z,
		})
	}
	return route
}

// AttackAction engages the current target for as long as it exists.
type AttackAction struct {
	*BaseNode
}

func NewAttackAction(name string) *AttackAction {
	return &AttackAction{BaseNode: NewBaseNode(name, "Attack")}
}

func (aa *AttackAction) Tick(ctx *ExecutionContext) Status {
	target, ok := targetOf(ctx)
	if !ok {
		return StatusFailure
	}
	combat := combatOf(ctx)
	if combat == nil {
		return StatusFailure
	}
	if err := combat.AttackTarget(target); err != nil {
		return StatusFailure
	}
	return StatusRunning
}

// MoveToAction moves toward a position stored under a blackboard key
// (default: the last known enemy position) and succeeds on arrival.
type MoveToAction struct {
	*BaseNode
	key string
}

func NewMoveToAction(name, key string) *MoveToAction {
	if key == "" {
		key = KeyLastKnownEnemyPos
	}
	return &MoveToAction{BaseNode: NewBaseNode(name, "MoveTo"), key: key}
}

func (ma *MoveToAction) Tick(ctx *ExecutionContext) Status {
	move := movementOf(ctx)
	if move == nil {
		return StatusFailure
	}
	target, ok := ctx.Blackboard.GetVector(ma.key)
	if !ok {
		return StatusFailure
	}
	if distance(move.Position(), target) <= arrivalEpsilon {
		return StatusSuccess
	}
	if err := move.MoveTo(target); err != nil {
		return StatusFailure
	}
	return StatusRunning
}

// FindCoverAction issues a cover request to the combat collaborator.
type FindCoverAction struct {
	*BaseNode
}

func NewFindCoverAction(name string) *FindCoverAction {
	return &FindCoverAction{BaseNode: NewBaseNode(name, "FindCover")}
}

func (fa *FindCoverAction) Tick(ctx *ExecutionContext) Status {
	combat := combatOf(ctx)
	if combat == nil {
		return StatusFailure
	}
	if err := combat.FindCover(); err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// FlankAction maneuvers around the current target.
type FlankAction struct {
	*BaseNode
}

func NewFlankAction(name string) *FlankAction {
	return &FlankAction{BaseNode: NewBaseNode(name, "Flank")}
}

func (fa *FlankAction) Tick(ctx *ExecutionContext) Status {
	target, ok := targetOf(ctx)
	if !ok {
		return StatusFailure
	}
	combat := combatOf(ctx)
	if combat == nil {
		return StatusFailure
	}
	if err := combat.FlankTarget(target); err != nil {
		return StatusFailure
	}
	return StatusRunning
}

// SuppressFireAction lays suppressing fire on the current target.
type SuppressFireAction struct {
	*BaseNode
}

func NewSuppressFireAction(name string) *SuppressFireAction {
	return &SuppressFireAction{BaseNode: NewBaseNode(name, "SuppressFire")}
}

func (sa *SuppressFireAction) Tick(ctx *ExecutionContext) Status {
	target, ok := targetOf(ctx)
	if !ok {
		return StatusFailure
	}
	combat := combatOf(ctx)
	if combat == nil {
		return StatusFailure
	}
	if err := combat.SuppressFire(target); err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// ThrowAtAction throws at the last known enemy position.
type ThrowAtAction struct {
	*BaseNode
	key string
}

func NewThrowAtAction(name, key string) *ThrowAtAction {
	if key == "" {
		key = KeyLastKnownEnemyPos
	}
	return &ThrowAtAction{BaseNode: NewBaseNode(name, "ThrowAt"), key: key}
}

func (ta *ThrowAtAction) Tick(ctx *ExecutionContext) Status {
	combat := combatOf(ctx)
	if combat == nil {
		return StatusFailure
	}
	pos, ok := ctx.Blackboard.GetVector(ta.key)
	if !ok {
		return StatusFailure
	}
	if err := combat.ThrowAt(pos); err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// LookAroundAction scans the surroundings once.
type LookAroundAction struct {
	*BaseNode
}

func NewLookAroundAction(name string) *LookAroundAction {
	return &LookAroundAction{BaseNode: NewBaseNode(name, "LookAround")}
}

func (la *LookAroundAction) Tick(ctx *ExecutionContext) Status {
	move := movementOf(ctx)
	if move == nil {
		return StatusFailure
	}
	if err := move.LookAround(); err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// InvestigateAction visits the queued investigation points one by one,
// consuming each on arrival, and succeeds once the queue is drained.
type InvestigateAction struct {
	*BaseNode
}

func NewInvestigateAction(name string) *InvestigateAction {
	return &InvestigateAction{BaseNode: NewBaseNode(name, "Investigate")}
}

func (ia *InvestigateAction) Tick(ctx *ExecutionContext) Status {
	bb := ctx.Blackboard
	v, _ := bb.Get(KeyInvestigationPoints)
	points, _ := v.([]Vector3)
	if len(points) == 0 {
		return StatusSuccess
	}

	move := movementOf(ctx)
	if move == nil {
		return StatusFailure
	}

	next := points[0]
	if distance(move.Position(), next) <= arrivalEpsilon {
		points = points[1:]
		bb.Set(KeyInvestigationPoints, points)
		if len(points) == 0 {
			return StatusSuccess
		}
		return StatusRunning
	}
	if err := move.MoveTo(next); err != nil {
		return StatusFailure
	}
	return StatusRunning
}

// CommunicateAction sends a message over the team channel.
type CommunicateAction struct {
	*BaseNode
	msgType string
}

func NewCommunicateAction(name, msgType string) *CommunicateAction {
	if msgType == "" {
		msgType = "status"
	}
	return &CommunicateAction{BaseNode: NewBaseNode(name, "Communicate"), msgType: msgType}
}

func (ca *CommunicateAction) Tick(ctx *ExecutionContext) Status {
	if ctx.World == nil || ctx.World.Team == nil {
		return StatusFailure
	}
	payload := ctx.Blackboard.Snapshot()
	if err := ctx.World.Team.CommunicateToTeam(ca.msgType, payload); err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// WaitAction idles for a fixed duration, then succeeds. The clock starts when
// the node initializes.
type WaitAction struct {
	*BaseNode
	duration  time.Duration
	startedAt time.Time
}

func NewWaitAction(name string, duration time.Duration) *WaitAction {
	return &WaitAction{BaseNode: NewBaseNode(name, "Wait"), duration: duration}
}

func (wa *WaitAction) Initialize(ctx *ExecutionContext) {
	wa.startedAt = ctx.Now()
}

func (wa *WaitAction) Tick(ctx *ExecutionContext) Status {
	if ctx.Now().Sub(wa.startedAt) < wa.duration {
		return StatusRunning
	}
	return StatusSuccess
}

func (wa *WaitAction) Abort() {
	wa.BaseNode.Abort()
	wa.startedAt = time.Time{}
}

// LogAction emits a debug line through the engine logger. Handy when
// diagnosing tree traversal.
type LogAction struct {
	*BaseNode
	message string
}

func NewLogAction(name, message string) *LogAction {
	return &LogAction{BaseNode: NewBaseNode(name, "Log"), message: message}
}

func (la *LogAction) Tick(ctx *ExecutionContext) Status {
	if ctx.Engine != nil {
		ctx.Engine.Logger().Debug("behavior log node",
			log.String("node", la.Name()),
			log.String("message", la.message),
		)
	}
	return StatusSuccess
}

// SetValueAction writes a fixed value to the blackboard.
type SetValueAction struct {
	*BaseNode
	key   string
	value any
}

func NewSetValueAction(name, key string, value any) *SetValueAction {
	return &SetValueAction{BaseNode: NewBaseNode(name, "SetValue"), key: key, value: value}
}

func (sa *SetValueAction) Tick(ctx *ExecutionContext) Status {
	if sa.key == "" {
		return StatusFailure
	}
	ctx.Blackboard.Set(sa.key, sa.value)
	return StatusSuccess
}

// RegisterBuiltinLeaves registers the standard leaf set.
func RegisterBuiltinLeaves(r *Registry) {
	r.RegisterLeaf("Patrol", func(def *Definition) (Node, error) {
		return NewPatrolAction(def.Name), nil
	})
	r.RegisterLeaf("Attack", func(def *Definition) (Node, error) {
		return NewAttackAction(def.Name), nil
	})
	r.RegisterLeaf("MoveTo", func(def *Definition) (Node, error) {
		key, _ := def.GetStringParam("key")
		return NewMoveToAction(def.Name, key), nil
	})
	r.RegisterLeaf("FindCover", func(def *Definition) (Node, error) {
		return NewFindCoverAction(def.Name), nil
	})
	r.RegisterLeaf("Flank", func(def *Definition) (Node, error) {
		return NewFlankAction(def.Name), nil
	})
	r.RegisterLeaf("SuppressFire", func(def *Definition) (Node, error) {
		return NewSuppressFireAction(def.Name), nil
	})
	r.RegisterLeaf("ThrowAt", func(def *Definition) (Node, error) {
		key, _ := def.GetStringParam("key")
		return NewThrowAtAction(def.Name, key), nil
	})
	r.RegisterLeaf("LookAround", func(def *Definition) (Node, error) {
		return NewLookAroundAction(def.Name), nil
	})
	r.RegisterLeaf("Investigate", func(def *Definition) (Node, error) {
		return NewInvestigateAction(def.Name), nil
	})
	r.RegisterLeaf("Communicate", func(def *Definition) (Node, error) {
		msgType, _ := def.GetStringParam("message")
		return NewCommunicateAction(def.Name, msgType), nil
	})
	r.RegisterLeaf("Wait", func(def *Definition) (Node, error) {
		return NewWaitAction(def.Name, def.DurationValue()), nil
	})
	r.RegisterLeaf("Log", func(def *Definition) (Node, error) {
		message, _ := def.GetStringParam("message")
		return NewLogAction(def.Name, message), nil
	})
	r.RegisterLeaf("SetValue", func(def *Definition) (Node, error) {
		key, _ := def.GetStringParam("key")
		return NewSetValueAction(def.Name, key, def.Params["value"]), nil
	})
}
