package behavior

import (
	"sync"
)

// Predicate inspects the execution context and reports a boolean. Predicates
// never error; anything unanswerable is false.
type Predicate func(ctx *ExecutionContext) bool

// Evaluator is the name-to-predicate dispatch table used by Condition nodes.
// Unregistered names evaluate to false (fail closed).
type Evaluator struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewEvaluator creates an empty evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{predicates: make(map[string]Predicate)}
}

// Register associates a predicate with a name. Last write wins.
func (e *Evaluator) Register(name string, p Predicate) {
	e.mu.Lock()
	e.predicates[name] = p
	e.mu.Unlock()
}

// Evaluate dispatches name. Unknown names return false.
func (e *Evaluator) Evaluate(ctx *ExecutionContext, name string) bool {
	e.mu.RLock()
	p := e.predicates[name]
	e.mu.RUnlock()
	if p == nil {
		return false
	}
	return p(ctx)
}

// Registered returns the names of all known predicates.
func (e *Evaluator) Registered() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.predicates))
	for name := range e.predicates {
		names = append(names, name)
	}
	return names
}

// Thresholds for the built-in vitals conditions, as fractions of the
// respective maximum.
const (
	lowHealthFraction = 0.3
	lowAmmoFraction   = 0.25
)

// RegisterBuiltinConditions installs the standard predicate set used by the
// stock presets.
func RegisterBuiltinConditions(e *Evaluator) {
	e.Register("HasTarget", func(ctx *ExecutionContext) bool {
		v, ok := ctx.Blackboard.Get(KeyCurrentTarget)
		if !ok || v == nil {
			return false
		}
		ref, isRef := v.(EntityRef)
		return !isRef || ref != ""
	})

	e.Register("TargetVisible", func(ctx *ExecutionContext) bool {
		v, ok := ctx.Blackboard.Get(KeyCurrentTarget)
		if !ok {
			return false
		}
		target, isRef := v.(EntityRef)
		if !isRef || target == "" {
			return false
		}
		if ctx.World == nil || ctx.World.Perception == nil {
			return false
		}
		return ctx.World.Perception.HasLineOfSight(target)
	})

	e.Register("HealthLow", func(ctx *ExecutionContext) bool {
		health, ok := ctx.Blackboard.GetFloat(KeyHealth)
		if !ok {
			return false
		}
		maxHealth, ok := ctx.Blackboard.GetFloat(KeyMaxHealth)
		if !ok || maxHealth <= 0 {
			maxHealth = 100
		}
		return health/maxHealth <= lowHealthFraction
	})

	e.Register("AmmoLow", func(ctx *ExecutionContext) bool {
		if low, ok := ctx.Blackboard.GetBool(KeyAmmoLow); ok && low {
			return true
		}
		ammo, ok := ctx.Blackboard.GetInt(KeyAmmunition)
		if !ok {
			return false
		}
		magazine := 0
		if ctx.World != nil && ctx.World.Resources != nil {
			magazine = ctx.World.Resources.MagazineSize()
		}
		if magazine <= 0 {
			return false
		}
		return float64(ammo)/float64(magazine) <= lowAmmoFraction
	})

	e.Register("AlertRaised", func(ctx *ExecutionContext) bool {
		v, ok := ctx.Blackboard.Get(KeyAlertLevel)
		if !ok {
			return false
		}
		level, isLevel := v.(AlertLevel)
		return isLevel && level > AlertCalm
	})

	e.Register("HasObjective", func(ctx *ExecutionContext) bool {
		return ctx.Blackboard.Has(KeyObjective)
	})

	e.Register("TeammateDown", func(ctx *ExecutionContext) bool {
		down, ok := ctx.Blackboard.GetBool(KeyTeammateDown)
		return ok && down
	})

	e.Register("HasPatrolRoute", func(ctx *ExecutionContext) bool {
		v, ok := ctx.Blackboard.Get(KeyPatrolPoints)
		if !ok {
			return false
		}
		points, isPoints := v.([]Vector3)
		return isPoints && len(points) > 0
	})

	e.Register("HasInvestigationPoint", func(ctx *ExecutionContext) bool {
		v, ok := ctx.Blackboard.Get(KeyInvestigationPoints)
		if !ok {
			return false
		}
		points, isPoints := v.([]Vector3)
		return isPoints && len(points) > 0
	})

	e.Register("UnderFire", func(ctx *ExecutionContext) bool {
		under, ok := ctx.Blackboard.GetBool(KeyUnderFire)
		return ok && under
	})
}
