// Package sim is a toy world backing the demo binary: it gives every agent a
// body with position, vitals and a weapon, steps movement orders forward, and
// feeds sporadic contact events into the bus so the trees have something to
// react to.
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/halcyongames/sentinel/internal/core/behavior"
	"github.com/halcyongames/sentinel/internal/core/events/bus"
)

const (
	stepInterval = 50 * time.Millisecond
	moveSpeed    = 3.0 // units per second
	magazineSize = 30
)

// World owns the simulated agent bodies.
type World struct {
	mu       sync.Mutex
	rng      *rand.Rand
	eventBus bus.Bus
	bodies   map[string]*body
}

// NewWorld creates an empty world publishing onto eventBus.
func NewWorld(eventBus bus.Bus) *World {
	return &World{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		eventBus: eventBus,
		bodies:   make(map[string]*body),
	}
}

// Spawn creates a body for an agent and returns its collaborator set.
func (w *World) Spawn(id string) *behavior.Collaborators {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := &body{
		id:       id,
		eventBus: w.eventBus,
		pos:      behavior.Vector3{X: w.rng.Float64() * 50, Y: w.rng.Float64() * 50},
		health:   100,
		ammo:     magazineSize,
	}
	w.bodies[id] = b
	return &behavior.Collaborators{
		Perception: b,
		Movement:   b,
		Combat:     b,
		Resources:  b,
	}
}

// Run steps the simulation until ctx is done: bodies walk toward their
// destinations and random enemy contacts come and go over the bus.
func (w *World) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(stepInterval)
		defer ticker.Stop()
		contact := time.NewTicker(8 * time.Second)
		defer contact.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.step()
			case <-contact.C:
				w.randomContact()
			}
		}
	}()
}

func (w *World) step() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.bodies {
		b.step(moveSpeed * stepInterval.Seconds())
	}
}

// randomContact flips one agent between having a phantom enemy and losing it.
func (w *World) randomContact() {
	w.mu.Lock()
	ids := make([]string, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		w.mu.Unlock()
		return
	}
	b := w.bodies[ids[w.rng.Intn(len(ids))]]
	w.mu.Unlock()

	b.mu.Lock()
	if b.target == "" {
		b.target = "hostile-1"
		b.alert = behavior.AlertEngaged
		pos := b.pos
		b.mu.Unlock()
		_ = w.eventBus.Publish(bus.NewTargetedEvent(behavior.EventTargetFound, "sim", b.id, behavior.TargetPayload{
			Target:   "hostile-1",
			Position: behavior.Vector3{X: pos.X + 10, Y: pos.Y},
		}))
		return
	}
	b.target = ""
	b.alert = behavior.AlertSuspicious
	b.mu.Unlock()
	_ = w.eventBus.Publish(bus.NewTargetedEvent(behavior.EventTargetLost, "sim", b.id, nil))
}

// body is one simulated agent: its own perception, movement, combat and
// resource collaborator in a single struct.
type body struct {
	mu       sync.Mutex
	id       string
	eventBus bus.Bus
	pos      behavior.Vector3
	dest     behavior.Vector3
	moving   bool
	health   float64
	ammo     int
	target   behavior.EntityRef
	alert    behavior.AlertLevel
}

func (b *body) step(dist float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.moving {
		return
	}
	dx := b.dest.X - b.pos.X
	dy := b.dest.Y - b.pos.Y
	remaining := math.Sqrt(dx*dx + dy*dy)
	if remaining <= dist {
		b.pos = b.dest
		b.moving = false
		return
	}
	b.pos.X += dx / remaining * dist
	b.pos.Y += dy / remaining * dist
}

func (b *body) AlertLevel() behavior.AlertLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alert
}

func (b *body) CurrentTarget() (behavior.EntityRef, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target, b.target != ""
}

func (b *body) InvestigationPoints() []behavior.Vector3 { return nil }

func (b *body) HasLineOfSight(behavior.EntityRef) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target != ""
}

func (b *body) Position() behavior.Vector3 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

func (b *body) MoveTo(p behavior.Vector3) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dest = p
	b.moving = true
	return nil
}

func (b *body) LookAround() error { return nil }

// AttackTarget spends a round and reports the shot over the bus so nearby
// agents can react to the gunfire. Crossing the low-ammo threshold sends the
// shooter a targeted warning. Publishing happens outside the body lock; the
// handlers on the other end only touch blackboards.
func (b *body) AttackTarget(behavior.EntityRef) error {
	b.mu.Lock()
	if b.ammo > 0 {
		b.ammo--
	} else {
		b.ammo = magazineSize // instant reload keeps the demo moving
	}
	ammo := b.ammo
	pos := b.pos
	b.mu.Unlock()

	_ = b.eventBus.Publish(bus.NewEvent(behavior.EventWeaponFired, b.id, behavior.TargetPayload{Position: pos}))
	if ammo == magazineSize/4 {
		_ = b.eventBus.Publish(bus.NewTargetedEvent(behavior.EventAmmoLow, "sim", b.id, nil))
	}
	return nil
}

func (b *body) FindCover() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dest = behavior.Vector3{X: b.pos.X - 5, Y: b.pos.Y - 5}
	b.moving = true
	return nil
}

func (b *body) FlankTarget(behavior.EntityRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dest = behavior.Vector3{X: b.pos.X + 8, Y: b.pos.Y - 8}
	b.moving = true
	return nil
}

func (b *body) SuppressFire(target behavior.EntityRef) error { return b.AttackTarget(target) }

func (b *body) ThrowAt(behavior.Vector3) error { return nil }

func (b *body) Health() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.health
}

func (b *body) MaxHealth() float64 { return 100 }

func (b *body) Ammunition() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ammo
}

func (b *body) MagazineSize() int { return magazineSize }
