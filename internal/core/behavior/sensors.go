package behavior

// Sensors copy collaborator state into the blackboard before each root tick,
// so that conditions and leaves observe one coherent snapshot per tick. A
// sensor whose collaborator is absent is a no-op.

// PerceptionSensor mirrors alert level, current target, and investigation
// points.
type PerceptionSensor struct{}

func (PerceptionSensor) Name() string { return "perception" }

func (PerceptionSensor) Update(ctx *ExecutionContext) error {
	if ctx.World == nil || ctx.World.Perception == nil {
		return nil
	}
	p := ctx.World.Perception
	bb := ctx.Blackboard

	bb.Set(KeyAlertLevel, p.AlertLevel())

	if target, ok := p.CurrentTarget(); ok {
		bb.Set(KeyCurrentTarget, target)
	} else {
		bb.Delete(KeyCurrentTarget)
	}

	if points := p.InvestigationPoints(); len(points) > 0 {
		bb.Set(KeyInvestigationPoints, points)
	}
	return nil
}

// VitalsSensor mirrors health and ammunition, plus the derived ammoLow flag.
type VitalsSensor struct{}

func (VitalsSensor) Name() string { return "vitals" }

func (VitalsSensor) Update(ctx *ExecutionContext) error {
	if ctx.World == nil || ctx.World.Resources == nil {
		return nil
	}
	r := ctx.World.Resources
	bb := ctx.Blackboard

	bb.Set(KeyHealth, r.Health())
	bb.Set(KeyMaxHealth, r.MaxHealth())
	bb.Set(KeyAmmunition, r.Ammunition())

	if mag := r.MagazineSize(); mag > 0 {
		bb.Set(KeyAmmoLow, float64(r.Ammunition())/float64(mag) < lowAmmoFraction)
	}
	return nil
}

// PositionSensor mirrors the agent's position.
type PositionSensor struct{}

func (PositionSensor) Name() string { return "position" }

func (PositionSensor) Update(ctx *ExecutionContext) error {
	if ctx.World == nil || ctx.World.Movement == nil {
		return nil
	}
	ctx.Blackboard.Set(KeyPosition, ctx.World.Movement.Position())
	return nil
}

// TeamSensor mirrors the roster and the teammateDown flag.
type TeamSensor struct{}

func (TeamSensor) Name() string { return "team" }

func (TeamSensor) Update(ctx *ExecutionContext) error {
	if ctx.World == nil || ctx.World.Team == nil {
		return nil
	}
	roster := ctx.World.Team.Roster()
	bb := ctx.Blackboard

	bb.Set(KeyTeamRoster, roster)

	down := false
	for _, member := range roster {
		if member.Down {
			down = true
			break
		}
	}
	bb.Set(KeyTeammateDown, down)
	return nil
}

// ObjectiveSensor mirrors the current objective and the distance to it.
type ObjectiveSensor struct{}

func (ObjectiveSensor) Name() string { return "objective" }

func (ObjectiveSensor) Update(ctx *ExecutionContext) error {
	if ctx.World == nil || ctx.World.Objectives == nil {
		return nil
	}
	bb := ctx.Blackboard

	obj, ok := ctx.World.Objectives.CurrentObjective()
	if !ok {
		bb.Delete(KeyObjective)
		bb.Delete(KeyObjectiveDistance)
		return nil
	}
	bb.Set(KeyObjective, obj)

	if pos, havePos := bb.GetVector(KeyPosition); havePos {
		bb.Set(KeyObjectiveDistance, distance(pos, obj.Position))
	}
	return nil
}

// DefaultSensors returns the standard sensor chain in update order. Position
// runs before objective so the distance uses this tick's position.
func DefaultSensors() []Sensor {
	return []Sensor{
		PositionSensor{},
		PerceptionSensor{},
		VitalsSensor{},
		TeamSensor{},
		ObjectiveSensor{},
	}
}
