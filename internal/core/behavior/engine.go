package behavior

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halcyongames/sentinel/internal/core/observability/log"
)

const defaultTickRate = 33 * time.Millisecond

// Config configures a single agent engine. Zero-value fields get sensible
// defaults from NewEngine.
type Config struct {
	AgentID string
	Role    Role

	// TickRate is the minimum interval between root ticks. Update calls
	// arriving early are dropped.
	TickRate time.Duration

	Registry   *Registry
	Conditions *Evaluator
	Logger     log.Log
	World      *Collaborators
	Sensors    []Sensor

	// Clock overrides the time source for tick gating and time-based nodes.
	Clock func() time.Time

	// InitialData seeds the blackboard before the first tick.
	InitialData map[string]any
}

// NodeStats accumulates per-node-type execution counts and time.
type NodeStats struct {
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
}

// Stats is a point-in-time view of engine accounting.
type Stats struct {
	ActivePreset   string               `json:"activePreset"`
	TickCount      int64                `json:"tickCount"`
	LastExecution  time.Duration        `json:"lastExecution"`
	BlackboardSize int                  `json:"blackboardSize"`
	PerNodeType    map[string]NodeStats `json:"perNodeType"`
}

// Snapshot is a condensed agent state for diagnostics surfaces.
type Snapshot struct {
	AgentID    string     `json:"agentId"`
	Role       Role       `json:"role"`
	Running    bool       `json:"running"`
	Preset     string     `json:"preset"`
	AlertLevel string     `json:"alertLevel"`
	HasTarget  bool       `json:"hasTarget"`
	Health     float64    `json:"health"`
	Ammunition int        `json:"ammunition"`
	Objective  *Objective `json:"objective,omitempty"`
	TickCount  int64      `json:"tickCount"`
}

// Engine owns one agent's behavior: a library of named presets, the compiled
// tree of the active preset, the blackboard, and the tick loop state. All
// public methods are safe for concurrent use; node code runs only under the
// engine lock.
type Engine struct {
	mu sync.Mutex

	agentID string
	role    Role

	registry   *Registry
	builder    *Builder
	conditions *Evaluator
	logger     log.Log
	world      *Collaborators
	sensors    []Sensor
	clock      func() time.Time

	blackboard *Blackboard
	presets    map[string]*Definition

	activePreset  string
	root          Node
	pendingSwitch string

	running  bool
	tickRate time.Duration
	lastTick time.Time

	tickCount     int64
	lastExecution time.Duration
	nodeStats     map[string]NodeStats
}

// NewEngine builds an engine from cfg. No preset is active until Start.
func NewEngine(cfg Config) *Engine {
	registry := cfg.Registry
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	conditions := cfg.Conditions
	if conditions == nil {
		conditions = NewEvaluator()
		RegisterBuiltinConditions(conditions)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}
	role := cfg.Role
	if role == "" {
		role = RoleDefault
	}
	sensors := cfg.Sensors
	if sensors == nil {
		sensors = DefaultSensors()
	}

	bb := NewBlackboard()
	for key, value := range cfg.InitialData {
		bb.Set(key, value)
	}
	bb.Set(KeyRole, role)

	return &Engine{
		agentID:    cfg.AgentID,
		role:       role,
		registry:   registry,
		builder:    NewBuilder(registry),
		conditions: conditions,
		logger:     logger.With(log.String("agent", cfg.AgentID)),
		world:      cfg.World,
		sensors:    sensors,
		clock:      cfg.Clock,
		blackboard: bb,
		presets:    make(map[string]*Definition),
		tickRate:   tickRate,
		nodeStats:  make(map[string]NodeStats),
	}
}

func (e *Engine) ID() string { return e.agentID }

func (e *Engine) Role() Role { return e.role }

func (e *Engine) Logger() log.Log { return e.logger }

func (e *Engine) Blackboard() *Blackboard { return e.blackboard }

func (e *Engine) Conditions() *Evaluator { return e.conditions }

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

// RegisterPreset validates def, verifies every node type resolves against the
// registry by compiling a throwaway instance, and stores the definition. A
// preset failing either check is rejected before it can ever become active.
func (e *Engine) RegisterPreset(name string, def *Definition) error {
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	if def == nil {
		return fmt.Errorf("preset %q: definition is required", name)
	}
	if _, err := e.builder.Build(def); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.presets[name] = def
	e.logger.Debug("preset registered",
		log.String("preset", name),
		log.Uint64("fingerprint", def.Fingerprint()),
	)
	return nil
}

// Presets lists the registered preset names.
func (e *Engine) Presets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.presets))
	for name := range e.presets {
		names = append(names, name)
	}
	return names
}

// ActivePreset returns the name of the currently compiled preset.
func (e *Engine) ActivePreset() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activePreset
}

// Start activates the named preset and begins accepting Update calls.
func (e *Engine) Start(preset string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine %s already running", e.agentID)
	}
	if err := e.activateLocked(preset); err != nil {
		return err
	}
	e.running = true
	e.lastTick = time.Time{}
	e.logger.Info("engine started", log.String("preset", preset))
	return nil
}

// Stop aborts the active tree and halts ticking. The blackboard keeps its
// contents so a later Start resumes with accumulated knowledge.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	if e.root != nil {
		e.root.Abort()
	}
	e.running = false
	e.pendingSwitch = ""
	e.logger.Info("engine stopped")
}

// IsRunning reports whether the engine accepts ticks.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SwitchPreset aborts the active tree and compiles the named preset in its
// place. The blackboard is untouched. Switching to an unregistered preset or
// to the already-active preset is a logged no-op. Because it takes the engine
// lock, an external switch never interleaves with a tick in progress.
func (e *Engine) SwitchPreset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.switchLocked(name)
}

// deferSwitch queues a preset switch requested from inside a tick. It runs on
// the ticking goroutine with the lock already held, so it must not lock; the
// switch is applied at the start of the next Update.
func (e *Engine) deferSwitch(name string) {
	e.pendingSwitch = name
}

func (e *Engine) switchLocked(name string) {
	if name == e.activePreset {
		return
	}
	if _, ok := e.presets[name]; !ok {
		e.logger.Warn("ignoring switch to unknown preset", log.String("preset", name))
		return
	}
	if e.root != nil {
		e.root.Abort()
	}
	if err := e.activateLocked(name); err != nil {
		// RegisterPreset already compiled this definition once, so a failure
		// here means the registry shrank since then.
		e.logger.Error("preset activation failed",
			log.String("preset", name),
			log.Error(err),
		)
		return
	}
	e.logger.Info("preset switched", log.String("preset", name))
}

func (e *Engine) activateLocked(name string) error {
	def, ok := e.presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %s", name)
	}
	root, err := e.builder.Build(def)
	if err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	e.root = root
	e.activePreset = name
	return nil
}

// Update runs one tick if the tick rate allows it. Calls arriving before the
// interval has elapsed are dropped, not queued. A pending in-tick preset
// switch is applied before sensors and the root run.
func (e *Engine) Update(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running || e.root == nil {
		return
	}

	now := e.now()
	if !e.lastTick.IsZero() && now.Sub(e.lastTick) < e.tickRate {
		return
	}
	delta := e.tickRate
	if !e.lastTick.IsZero() {
		delta = now.Sub(e.lastTick)
	}
	e.lastTick = now

	if e.pendingSwitch != "" {
		name := e.pendingSwitch
		e.pendingSwitch = ""
		e.switchLocked(name)
	}

	ec := &ExecutionContext{
		Context:    ctx,
		Blackboard: e.blackboard,
		Engine:     e,
		Conditions: e.conditions,
		World:      e.world,
		DeltaTime:  delta,
		Clock:      e.clock,
	}

	for _, sensor := range e.sensors {
		if err := sensor.Update(ec); err != nil {
			e.logger.Warn("sensor update failed",
				log.String("sensor", sensor.Name()),
				log.Error(err),
			)
		}
	}

	start := e.now()
	status := Execute(e.root, ec)
	e.lastExecution = e.now().Sub(start)
	e.tickCount++
	e.blackboard.Set(KeyLastStatus, status)
}

// recordNode is called by Execute for every node run during a tick. The
// engine lock is already held by Update.
func (e *Engine) recordNode(nodeType string, elapsed time.Duration) {
	stats := e.nodeStats[nodeType]
	stats.Count++
	stats.Total += elapsed
	e.nodeStats[nodeType] = stats
}

// Stats returns a copy of the engine's accounting.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	perType := make(map[string]NodeStats, len(e.nodeStats))
	for nodeType, stats := range e.nodeStats {
		perType[nodeType] = stats
	}
	return Stats{
		ActivePreset:   e.activePreset,
		TickCount:      e.tickCount,
		LastExecution:  e.lastExecution,
		BlackboardSize: e.blackboard.Len(),
		PerNodeType:    perType,
	}
}

// DebugSnapshot condenses the agent state for diagnostics endpoints.
func (e *Engine) DebugSnapshot() Snapshot {
	e.mu.Lock()
	running := e.running
	preset := e.activePreset
	ticks := e.tickCount
	e.mu.Unlock()

	snap := Snapshot{
		AgentID:   e.agentID,
		Role:      e.role,
		Running:   running,
		Preset:    preset,
		TickCount: ticks,
	}

	bb := e.blackboard
	if v, ok := bb.Get(KeyAlertLevel); ok {
		if level, isLevel := v.(AlertLevel); isLevel {
			snap.AlertLevel = level.String()
		}
	}
	snap.HasTarget = bb.Has(KeyCurrentTarget)
	snap.Health, _ = bb.GetFloat(KeyHealth)
	snap.Ammunition, _ = bb.GetInt(KeyAmmunition)
	if v, ok := bb.Get(KeyObjective); ok {
		if obj, isObj := v.(Objective); isObj {
			snap.Objective = &obj
		}
	}
	return snap
}
