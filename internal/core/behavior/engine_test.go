package behavior

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubPerception struct {
	mu     sync.Mutex
	level  AlertLevel
	target EntityRef
	points []Vector3
	los    bool
}

func (p *stubPerception) setTarget(t EntityRef) {
	p.mu.Lock()
	p.target = t
	p.mu.Unlock()
}

func (p *stubPerception) AlertLevel() AlertLevel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *stubPerception) CurrentTarget() (EntityRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.target != ""
}

func (p *stubPerception) InvestigationPoints() []Vector3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.points
}

func (p *stubPerception) HasLineOfSight(EntityRef) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.los
}

type stubMovement struct {
	pos   Vector3
	moves []Vector3
}

func (m *stubMovement) Position() Vector3 { return m.pos }
func (m *stubMovement) MoveTo(p Vector3) error {
	m.moves = append(m.moves, p)
	return nil
}
func (m *stubMovement) LookAround() error { return nil }

type stubCombat struct {
	attacked   []EntityRef
	covers     int
	flanked    []EntityRef
	suppressed []EntityRef
	throws     []Vector3
}

func (c *stubCombat) AttackTarget(t EntityRef) error {
	c.attacked = append(c.attacked, t)
	return nil
}
func (c *stubCombat) FindCover() error { c.covers++; return nil }
func (c *stubCombat) FlankTarget(t EntityRef) error {
	c.flanked = append(c.flanked, t)
	return nil
}
func (c *stubCombat) SuppressFire(t EntityRef) error {
	c.suppressed = append(c.suppressed, t)
	return nil
}
func (c *stubCombat) ThrowAt(p Vector3) error {
	c.throws = append(c.throws, p)
	return nil
}

type stubResources struct {
	health, maxHealth float64
	ammo, magazine    int
}

func (r *stubResources) Health() float64 { return r.health }

func (r *stubResources) MaxHealth() float64 { return r.maxHealth }

func (r *stubResources) Ammunition() int { return r.ammo }

func (r *stubResources) MagazineSize() int { return r.magazine }

// testClock drives engine time manually.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func scenarioTree() *Definition {
	return &Definition{
		Type: "Selector",
		Name: "root",
		Children: []*Definition{
			{
				Type: "Sequence",
				Name: "engage",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasTarget"},
					{Type: "Attack"},
				},
			},
			{Type: "Patrol"},
		},
	}
}

func TestEnginePatrolThenEngage(t *testing.T) {
	newPatrolEngine := func(perception *stubPerception, movement *stubMovement, combat *stubCombat) (*Engine, *testClock) {
		clock := newTestClock()
		engine := NewEngine(Config{
			AgentID:  "agent-1",
			TickRate: 10 * time.Millisecond,
			Clock:    clock.Now,
			World: &Collaborators{
				Perception: perception,
				Movement:   movement,
				Combat:     combat,
			},
		})
		require.NoError(t, engine.RegisterPreset("default", scenarioTree()))
		require.NoError(t, engine.Start("default"))
		return engine, clock
	}

	t.Run("without a target falls through to patrol", func(t *testing.T) {
		perception := &stubPerception{}
		movement := &stubMovement{}
		combat := &stubCombat{}
		engine, clock := newPatrolEngine(perception, movement, combat)
		ctx := context.Background()

		// first call: the engage branch fails, patrol seeds its route
		engine.Update(ctx)
		bb := engine.Blackboard()
		points, ok := bb.Get(KeyPatrolPoints)
		require.True(t, ok)
		require.Len(t, points.([]Vector3), 4)
		status, _ := bb.Get(KeyLastStatus)
		require.Equal(t, StatusRunning, status)
		require.Empty(t, combat.attacked)

		// second call: patrol walks toward its first waypoint
		clock.Advance(20 * time.Millisecond)
		engine.Update(ctx)
		require.NotEmpty(t, movement.moves)

		// the running patrol pins the selector's resumption index, so a
		// target appearing now does not re-open the engage branch
		perception.setTarget("enemy-1")
		clock.Advance(20 * time.Millisecond)
		engine.Update(ctx)
		require.Empty(t, combat.attacked)
	})

	t.Run("with a target at activation engages immediately", func(t *testing.T) {
		perception := &stubPerception{target: "enemy-1"}
		combat := &stubCombat{}
		engine, _ := newPatrolEngine(perception, &stubMovement{}, combat)

		engine.Update(context.Background())
		require.Equal(t, []EntityRef{"enemy-1"}, combat.attacked)
		status, _ := engine.Blackboard().Get(KeyLastStatus)
		require.Equal(t, StatusRunning, status)
	})
}

func TestEnginePresetSwitch(t *testing.T) {
	clock := newTestClock()

	// probe leaves record aborts so the old tree's fate is observable
	var probes []*scriptNode
	registry := NewDefaultRegistry()
	registry.RegisterLeaf("Probe", func(def *Definition) (Node, error) {
		p := newScriptNode(def.Name, StatusRunning)
		probes = append(probes, p)
		return p, nil
	})

	engine := NewEngine(Config{
		AgentID:  "agent-1",
		TickRate: 10 * time.Millisecond,
		Clock:    clock.Now,
		Registry: registry,
	})
	require.NoError(t, engine.RegisterPreset("calm", &Definition{Type: "Probe", Name: "calm-probe"}))
	require.NoError(t, engine.RegisterPreset("combat", &Definition{Type: "Probe", Name: "combat-probe"}))
	require.NoError(t, engine.Start("calm"))

	active := probes[len(probes)-1]
	engine.Blackboard().Set("lastKnownEnemyPos", Vector3{X: 5})
	engine.Update(context.Background())
	require.Equal(t, 1, active.ticks)

	engine.SwitchPreset("combat")

	require.Equal(t, "combat", engine.ActivePreset())
	// the old root was aborted, not abandoned mid-run
	require.Equal(t, 1, active.aborts)
	require.False(t, active.Initialized())
	// accumulated knowledge survives the switch
	pos, ok := engine.Blackboard().GetVector("lastKnownEnemyPos")
	require.True(t, ok)
	require.Equal(t, Vector3{X: 5}, pos)

	t.Run("unknown preset is a no-op", func(t *testing.T) {
		engine.SwitchPreset("does-not-exist")
		require.Equal(t, "combat", engine.ActivePreset())
	})

	t.Run("switching to the active preset is a no-op", func(t *testing.T) {
		before := len(probes)
		engine.SwitchPreset("combat")
		require.Equal(t, before, len(probes))
	})
}

func TestEngineDeferredSwitch(t *testing.T) {
	clock := newTestClock()

	registry := NewDefaultRegistry()
	registry.RegisterLeaf("RequestSwitch", func(def *Definition) (Node, error) {
		return &switchLeaf{BaseNode: NewBaseNode(def.Name, "RequestSwitch")}, nil
	})
	registry.RegisterLeaf("Idle", func(def *Definition) (Node, error) {
		return newScriptNode(def.Name, StatusRunning), nil
	})

	engine := NewEngine(Config{
		AgentID:  "agent-1",
		TickRate: 10 * time.Millisecond,
		Clock:    clock.Now,
		Registry: registry,
	})
	require.NoError(t, engine.RegisterPreset("first", &Definition{Type: "RequestSwitch"}))
	require.NoError(t, engine.RegisterPreset("second", &Definition{Type: "Idle"}))
	require.NoError(t, engine.Start("first"))

	ctx := context.Background()

	// the in-tick request does not take effect during the tick itself
	engine.Update(ctx)
	require.Equal(t, "first", engine.ActivePreset())

	clock.Advance(20 * time.Millisecond)
	engine.Update(ctx)
	require.Equal(t, "second", engine.ActivePreset())
}

// switchLeaf requests a preset switch from inside its own tick.
type switchLeaf struct {
	*BaseNode
}

func (s *switchLeaf) Tick(ctx *ExecutionContext) Status {
	ctx.RequestPresetSwitch("second")
	return StatusRunning
}

func TestEngineUnregisteredConditionFailsClosed(t *testing.T) {
	clock := newTestClock()
	combat := &stubCombat{}

	engine := NewEngine(Config{
		AgentID:  "agent-1",
		TickRate: 10 * time.Millisecond,
		Clock:    clock.Now,
		World:    &Collaborators{Combat: combat},
		InitialData: map[string]any{
			KeyCurrentTarget: EntityRef("enemy-1"),
		},
	})
	def := &Definition{
		Type:      "Condition",
		Condition: "NeverRegistered",
		Child:     &Definition{Type: "Attack"},
	}
	require.NoError(t, engine.RegisterPreset("default", def))
	require.NoError(t, engine.Start("default"))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		engine.Update(ctx)
		status, _ := engine.Blackboard().Get(KeyLastStatus)
		require.Equal(t, StatusFailure, status)
		clock.Advance(20 * time.Millisecond)
	}
	require.Empty(t, combat.attacked)
}

func TestEngineRegisterPreset(t *testing.T) {
	engine := NewEngine(Config{AgentID: "agent-1"})

	t.Run("rejects unknown node types at registration", func(t *testing.T) {
		err := engine.RegisterPreset("bad", &Definition{Type: "Teleport"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown node type")
	})

	t.Run("rejects empty name and nil definition", func(t *testing.T) {
		require.Error(t, engine.RegisterPreset("", &Definition{Type: "Patrol"}))
		require.Error(t, engine.RegisterPreset("nil", nil))
	})

	t.Run("start on an unregistered preset fails", func(t *testing.T) {
		require.Error(t, engine.Start("missing"))
	})
}

func TestEngineTickGating(t *testing.T) {
	clock := newTestClock()
	engine := NewEngine(Config{
		AgentID:  "agent-1",
		TickRate: 50 * time.Millisecond,
		Clock:    clock.Now,
	})
	require.NoError(t, engine.RegisterPreset("default", &Definition{Type: "Patrol"}))
	require.NoError(t, engine.Start("default"))

	ctx := context.Background()
	engine.Update(ctx)
	// second call arrives early and is dropped
	clock.Advance(10 * time.Millisecond)
	engine.Update(ctx)
	require.EqualValues(t, 1, engine.Stats().TickCount)

	clock.Advance(50 * time.Millisecond)
	engine.Update(ctx)
	require.EqualValues(t, 2, engine.Stats().TickCount)
}

func TestEngineStats(t *testing.T) {
	clock := newTestClock()
	engine := NewEngine(Config{
		AgentID:  "agent-1",
		TickRate: 10 * time.Millisecond,
		Clock:    clock.Now,
	})
	require.NoError(t, engine.RegisterPreset("default", scenarioTree()))
	require.NoError(t, engine.Start("default"))

	engine.Update(context.Background())

	stats := engine.Stats()
	require.Equal(t, "default", stats.ActivePreset)
	require.EqualValues(t, 1, stats.TickCount)
	require.Positive(t, stats.BlackboardSize)
	require.Positive(t, stats.PerNodeType["Selector"].Count)
	require.Positive(t, stats.PerNodeType["Patrol"].Count)
}

func TestEngineStopKeepsBlackboard(t *testing.T) {
	engine := NewEngine(Config{AgentID: "agent-1"})
	require.NoError(t, engine.RegisterPreset("default", &Definition{Type: "Patrol"}))
	require.NoError(t, engine.Start("default"))

	engine.Blackboard().Set("memory", 42)
	engine.Stop()
	require.False(t, engine.IsRunning())

	v, ok := engine.Blackboard().Get("memory")
	require.True(t, ok)
	require.Equal(t, 42, v)

	require.NoError(t, engine.Start("default"))
	require.True(t, engine.IsRunning())
}

func TestEngineDebugSnapshot(t *testing.T) {
	engine := NewEngine(Config{
		AgentID: "agent-1",
		Role:    RoleAssault,
		World: &Collaborators{
			Perception: &stubPerception{level: AlertEngaged, target: "enemy-1"},
			Resources:  &stubResources{health: 80, maxHealth: 100, ammo: 12, magazine: 30},
		},
	})
	require.NoError(t, engine.RegisterPreset("default", scenarioTree()))
	require.NoError(t, engine.Start("default"))
	engine.Update(context.Background())

	snap := engine.DebugSnapshot()
	require.Equal(t, "agent-1", snap.AgentID)
	require.Equal(t, RoleAssault, snap.Role)
	require.True(t, snap.Running)
	require.Equal(t, "default", snap.Preset)
	require.Equal(t, "engaged", snap.AlertLevel)
	require.True(t, snap.HasTarget)
	require.Equal(t, 80.0, snap.Health)
	require.Equal(t, 12, snap.Ammunition)
}

func BenchmarkEngineUpdate(b *testing.B) {
	clock := newTestClock()
	engine := NewEngine(Config{
		AgentID:  "bench",
		TickRate: time.Nanosecond,
		Clock:    clock.Now,
		World: &Collaborators{
			Perception: &stubPerception{target: "enemy-1", los: true},
			Movement:   &stubMovement{},
			Combat:     &stubCombat{},
		},
	})
	if err := engine.RegisterPreset("default", scenarioTree()); err != nil {
		b.Fatal(err)
	}
	if err := engine.Start("default"); err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clock.Advance(time.Millisecond)
		engine.Update(ctx)
	}
}
