package behavior

import (
	"sync"
)

// Well-known blackboard keys. Keys are typed by convention only; no schema is
// enforced.
const (
	KeyCurrentTarget       = "currentTarget"
	KeyAlertLevel          = "alertLevel"
	KeyHealth              = "health"
	KeyMaxHealth           = "maxHealth"
	KeyAmmunition          = "ammunition"
	KeyAmmoLow             = "ammoLow"
	KeyPosition            = "position"
	KeyInvestigationPoints = "investigationPoints"
	KeyPatrolPoints        = "patrolPoints"
	KeyPatrolIndex         = "patrolIndex"
	KeyRole                = "role"
	KeyObjective           = "objective"
	KeyObjectiveDistance   = "objectiveDistance"
	KeyTeamRoster          = "teamRoster"
	KeyTeammateDown        = "teammateDown"
	KeyLastOrder           = "lastOrder"
	KeyLastKnownEnemyPos   = "lastKnownEnemyPos"
	KeyLastDamageFrom      = "lastDamageFrom"
	KeyUnderFire           = "underFire"
	KeyLastStatus          = "lastStatus"
)

// Blackboard is the per-agent key/value store shared by every node of one
// tree instance. It is created once per engine and survives preset switches.
// The mutex only guards against event handlers writing from other
// goroutines; ticking itself is single-threaded.
type Blackboard struct {
	mu      sync.RWMutex
	data    map[string]any
	version int64
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

// Set stores a value under key.
func (bb *Blackboard) Set(key string, value any) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	bb.data[key] = value
	bb.version++
}

// Get retrieves the value stored under key.
func (bb *Blackboard) Get(key string) (any, bool) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	value, exists := bb.data[key]
	return value, exists
}

// Has reports whether key is present.
func (bb *Blackboard) Has(key string) bool {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	_, exists := bb.data[key]
	return exists
}

// Delete removes key.
func (bb *Blackboard) Delete(key string) {
	bb.mu.Lock()
	defer bb.mu.Unlock()

	delete(bb.data, key)
	bb.version++
}

// GetString retrieves a string value.
func (bb *Blackboard) GetString(key string) (string, bool) {
	value, exists := bb.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// GetInt retrieves an int value, converting from float64 when needed.
func (bb *Blackboard) GetInt(key string) (int, bool) {
	value, exists := bb.Get(key)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetFloat retrieves a float64 value, converting from int when needed.
func (bb *Blackboard) GetFloat(key string) (float64, bool) {
	value, exists := bb.Get(key)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// GetBool retrieves a boolean value.
func (bb *Blackboard) GetBool(key string) (bool, bool) {
	value, exists := bb.Get(key)
	if !exists {
		return false, false
	}
	b, ok := value.(bool)
	return b, ok
}

// GetVector retrieves a Vector3 value.
func (bb *Blackboard) GetVector(key string) (Vector3, bool) {
	value, exists := bb.Get(key)
	if !exists {
		return Vector3{}, false
	}
	v, ok := value.(Vector3)
	return v, ok
}

// Keys returns a snapshot of all present keys.
func (bb *Blackboard) Keys() []string {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	keys := make([]string, 0, len(bb.data))
	for key := range bb.data {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of stored keys.
func (bb *Blackboard) Len() int {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	return len(bb.data)
}

// Version counts writes; diagnostics use it to detect churn.
func (bb *Blackboard) Version() int64 {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	return bb.version
}

// Snapshot returns a shallow copy of the stored data.
func (bb *Blackboard) Snapshot() map[string]any {
	bb.mu.RLock()
	defer bb.mu.RUnlock()

	out := make(map[string]any, len(bb.data))
	for k, v := range bb.data {
		out[k] = v
	}
	return out
}
