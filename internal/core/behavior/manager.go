package behavior

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/halcyongames/sentinel/internal/core/events/bus"
	"github.com/halcyongames/sentinel/internal/core/observability/log"
)

// Manager owns a fleet of agent engines sharing one event bus. It drives
// their ticks, either from an external game loop via Update or from its own
// ticker via StartAutoUpdate.
type Manager struct {
	mu sync.RWMutex

	logger log.Log
	bus    bus.Bus

	engines      map[string]*Engine
	integrations map[string]*Integration

	cancelLoop context.CancelFunc
	loopDone   chan struct{}
}

// NewManager builds a manager around an event bus; a nil bus gets a fresh
// in-memory one.
func NewManager(logger log.Log, b bus.Bus) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	if b == nil {
		b = bus.New()
	}
	return &Manager{
		logger:       logger.With(log.String("component", "behavior_manager")),
		bus:          b,
		engines:      make(map[string]*Engine),
		integrations: make(map[string]*Integration),
	}
}

// Bus exposes the shared event bus so game systems can publish into it.
func (m *Manager) Bus() bus.Bus { return m.bus }

// AddAgent registers an engine, attaches it to the bus, and loads the stock
// preset library plus any extras.
func (m *Manager) AddAgent(engine *Engine, extraPresets map[string]*Definition) error {
	if engine == nil {
		return fmt.Errorf("engine is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := engine.ID()
	if _, exists := m.engines[id]; exists {
		return fmt.Errorf("agent %s already registered", id)
	}

	for name, def := range DefaultPresetLibrary() {
		if err := engine.RegisterPreset(name, def); err != nil {
			return fmt.Errorf("agent %s: %w", id, err)
		}
	}
	for name, def := range extraPresets {
		if err := engine.RegisterPreset(name, def); err != nil {
			return fmt.Errorf("agent %s: %w", id, err)
		}
	}

	integration := NewIntegration(engine, m.bus)
	integration.Attach()

	m.engines[id] = engine
	m.integrations[id] = integration
	m.logger.Info("agent registered", log.String("agent", id), log.String("role", string(engine.Role())))
	return nil
}

// RemoveAgent stops an engine and detaches it from the bus.
func (m *Manager) RemoveAgent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	engine, ok := m.engines[id]
	if !ok {
		return
	}
	engine.Stop()
	m.integrations[id].Detach()
	delete(m.engines, id)
	delete(m.integrations, id)
	m.logger.Info("agent removed", log.String("agent", id))
}

// Agent returns the engine for an ID.
func (m *Manager) Agent(id string) (*Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.engines[id]
	return engine, ok
}

// AgentIDs returns the registered agent IDs sorted for stable iteration.
func (m *Manager) AgentIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.engines))
	for id := range m.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartAll starts every registered engine on its default preset. Engines
// whose preset set lacks "default" report the error; the rest still start.
func (m *Manager) StartAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var firstErr error
	for id, engine := range m.engines {
		if engine.IsRunning() {
			continue
		}
		if err := engine.Start(PresetDefault); err != nil {
			m.logger.Error("agent start failed", log.String("agent", id), log.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StopAll halts the auto-update loop and every engine.
func (m *Manager) StopAll() {
	m.StopAutoUpdate()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, engine := range m.engines {
		engine.Stop()
	}
}

// Update ticks every engine concurrently and returns when all are done. Each
// engine serializes its own tick internally, so agents never contend with
// each other.
func (m *Manager) Update(ctx context.Context) error {
	m.mu.RLock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, engine := range engines {
		engine := engine
		g.Go(func() error {
			engine.Update(gctx)
			return nil
		})
	}
	return g.Wait()
}

// StartAutoUpdate drives Update from an internal ticker until ctx is done or
// StopAutoUpdate is called. Calling it while a loop runs is a no-op.
func (m *Manager) StartAutoUpdate(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	if m.cancelLoop != nil {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancelLoop = cancel
	done := make(chan struct{})
	m.loopDone = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if err := m.Update(loopCtx); err != nil {
					m.logger.Warn("update cycle aborted", log.Error(err))
				}
			}
		}
	}()
	m.logger.Info("auto update started", log.Duration("interval", interval))
}

// StopAutoUpdate cancels the ticker loop and waits for it to drain.
func (m *Manager) StopAutoUpdate() {
	m.mu.Lock()
	cancel := m.cancelLoop
	done := m.loopDone
	m.cancelLoop = nil
	m.loopDone = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Snapshots collects a debug snapshot per agent, keyed by agent ID.
func (m *Manager) Snapshots() map[string]Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Snapshot, len(m.engines))
	for id, engine := range m.engines {
		out[id] = engine.DebugSnapshot()
	}
	return out
}
