package behavior

import (
	"github.com/halcyongames/sentinel/internal/core/events/bus"
	"github.com/halcyongames/sentinel/internal/core/observability/log"
)

// Event types understood by the integration layer. Inbound events mutate the
// blackboard or switch presets; the world hosting the agents publishes them.
const (
	EventTargetFound        = "behavior.target_found"
	EventTargetLost         = "behavior.target_lost"
	EventAlertChanged       = "behavior.alert_changed"
	EventEnemySpotted       = "behavior.enemy_spotted"
	EventDamageTaken        = "behavior.damage_taken"
	EventWeaponFired        = "behavior.weapon_fired"
	EventAmmoLow            = "behavior.ammo_low"
	EventOrderReceived      = "behavior.order_received"
	EventTeamMemberDown     = "behavior.team_member_down"
	EventObjectiveAssigned  = "behavior.objective_assigned"
	EventObjectiveCompleted = "behavior.objective_completed"
	EventObjectiveFailed    = "behavior.objective_failed"
)

// TargetPayload accompanies target and spotting events.
type TargetPayload struct {
	Target   EntityRef `json:"target"`
	Position Vector3   `json:"position"`
}

// AlertPayload accompanies alert level changes.
type AlertPayload struct {
	Level AlertLevel `json:"level"`
}

// DamagePayload accompanies damage events.
type DamagePayload struct {
	Attacker EntityRef `json:"attacker"`
	Amount   float64   `json:"amount"`
	Origin   Vector3   `json:"origin"`
}

// TeamMemberPayload accompanies roster events.
type TeamMemberPayload struct {
	Member EntityRef `json:"member"`
}

// Integration connects one engine to a shared event bus. Inbound events
// addressed elsewhere are ignored; broadcasts and events targeted at this
// agent update the blackboard and, where warranted, switch presets.
type Integration struct {
	engine *Engine
	bus    bus.Bus
	logger log.Log
	subs   []bus.Subscription
}

// NewIntegration wires engine onto b. Call Attach to start consuming.
func NewIntegration(engine *Engine, b bus.Bus) *Integration {
	return &Integration{
		engine: engine,
		bus:    b,
		logger: engine.Logger().With(log.String("component", "event_integration")),
	}
}

// Attach subscribes to every inbound event type. Idempotent Detach undoes it.
func (in *Integration) Attach() {
	handle := func(eventType string, fn func(bus.Event)) {
		sub := in.bus.Subscribe(eventType, func(evt bus.Event) error {
			if !in.addressedToMe(evt) {
				return nil
			}
			fn(evt)
			return nil
		})
		in.subs = append(in.subs, sub)
	}

	handle(EventTargetFound, in.onTargetFound)
	handle(EventEnemySpotted, in.onEnemySpotted)
	handle(EventTargetLost, in.onTargetLost)
	handle(EventAlertChanged, in.onAlertChanged)
	handle(EventDamageTaken, in.onDamageTaken)
	handle(EventWeaponFired, in.onWeaponFired)
	handle(EventAmmoLow, in.onAmmoLow)
	handle(EventOrderReceived, in.onOrderReceived)
	handle(EventTeamMemberDown, in.onTeamMemberDown)
	handle(EventObjectiveAssigned, in.onObjectiveAssigned)
	handle(EventObjectiveCompleted, in.onObjectiveClosed)
	handle(EventObjectiveFailed, in.onObjectiveClosed)
}

// Detach cancels every subscription.
func (in *Integration) Detach() {
	for _, sub := range in.subs {
		in.bus.Unsubscribe(sub)
	}
	in.subs = nil
}

func (in *Integration) addressedToMe(evt bus.Event) bool {
	return evt.Target == "" || evt.Target == in.engine.ID()
}

func (in *Integration) onTargetFound(evt bus.Event) {
	payload, ok := evt.Data.(TargetPayload)
	if !ok {
		return
	}
	bb := in.engine.Blackboard()
	bb.Set(KeyCurrentTarget, payload.Target)
	bb.Set(KeyLastKnownEnemyPos, payload.Position)
	bb.Set(KeyAlertLevel, AlertEngaged)
	in.engine.SwitchPreset(presetForRole(in.engine.Role()))
}

func (in *Integration) onEnemySpotted(evt bus.Event) {
	payload, ok := evt.Data.(TargetPayload)
	if !ok {
		return
	}
	bb := in.engine.Blackboard()
	bb.Set(KeyLastKnownEnemyPos, payload.Position)
	if level, hasLevel := bb.Get(KeyAlertLevel); !hasLevel || level == AlertCalm {
		bb.Set(KeyAlertLevel, AlertSuspicious)
	}
}

func (in *Integration) onTargetLost(evt bus.Event) {
	bb := in.engine.Blackboard()
	bb.Delete(KeyCurrentTarget)
	bb.Set(KeyAlertLevel, AlertSuspicious)
}

func (in *Integration) onAlertChanged(evt bus.Event) {
	payload, ok := evt.Data.(AlertPayload)
	if !ok {
		return
	}
	in.engine.Blackboard().Set(KeyAlertLevel, payload.Level)
	in.engine.SwitchPreset(presetForAlert(payload.Level, in.engine.Role()))
}

func (in *Integration) onDamageTaken(evt bus.Event) {
	payload, ok := evt.Data.(DamagePayload)
	if !ok {
		return
	}
	bb := in.engine.Blackboard()
	bb.Set(KeyUnderFire, true)
	bb.Set(KeyLastDamageFrom, payload.Attacker)
	bb.Set(KeyLastKnownEnemyPos, payload.Origin)
	if level, hasLevel := bb.Get(KeyAlertLevel); !hasLevel || level != AlertEngaged {
		bb.Set(KeyAlertLevel, AlertEngaged)
		in.engine.SwitchPreset(presetForRole(in.engine.Role()))
	}
}

// onWeaponFired reacts to someone else's gunfire: remember where it came
// from and raise a calm agent to suspicious. The shooter's own report is
// ignored.
func (in *Integration) onWeaponFired(evt bus.Event) {
	if evt.Source == in.engine.ID() {
		return
	}
	payload, ok := evt.Data.(TargetPayload)
	if !ok {
		return
	}
	bb := in.engine.Blackboard()
	bb.Set(KeyLastKnownEnemyPos, payload.Position)
	if level, hasLevel := bb.Get(KeyAlertLevel); !hasLevel || level == AlertCalm {
		bb.Set(KeyAlertLevel, AlertSuspicious)
	}
}

// onAmmoLow mirrors an ammunition report into the blackboard. Only a
// targeted event refers to this agent's own magazine; a teammate's broadcast
// does not.
func (in *Integration) onAmmoLow(evt bus.Event) {
	if evt.Target != in.engine.ID() {
		return
	}
	in.engine.Blackboard().Set(KeyAmmoLow, true)
}

func (in *Integration) onOrderReceived(evt bus.Event) {
	order, ok := evt.Data.(Order)
	if !ok {
		return
	}
	bb := in.engine.Blackboard()
	bb.Set(KeyLastOrder, order)
	if order.Target != "" {
		bb.Set(KeyCurrentTarget, order.Target)
	}
	if order.Role != "" {
		in.engine.SwitchPreset(presetForRole(order.Role))
	}
}

func (in *Integration) onTeamMemberDown(evt bus.Event) {
	payload, ok := evt.Data.(TeamMemberPayload)
	if !ok {
		return
	}
	if payload.Member == EntityRef(in.engine.ID()) {
		return
	}
	in.engine.Blackboard().Set(KeyTeammateDown, true)
}

func (in *Integration) onObjectiveAssigned(evt bus.Event) {
	obj, ok := evt.Data.(Objective)
	if !ok {
		return
	}
	in.engine.Blackboard().Set(KeyObjective, obj)
	in.engine.SwitchPreset(presetForObjective(obj.Type, in.engine.Role()))
}

func (in *Integration) onObjectiveClosed(evt bus.Event) {
	bb := in.engine.Blackboard()
	bb.Delete(KeyObjective)
	bb.Delete(KeyObjectiveDistance)
	in.engine.SwitchPreset(PresetDefault)
}
