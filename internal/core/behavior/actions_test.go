package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPatrolAction(t *testing.T) {
	t.Run("generates a default route on first use", func(t *testing.T) {
		ctx, _ := newTestContext()
		patrol := NewPatrolAction("")

		require.Equal(t, StatusRunning, Execute(patrol, ctx))

		v, ok := ctx.Blackboard.Get(KeyPatrolPoints)
		require.True(t, ok)
		route := v.([]Vector3)
		require.Len(t, route, 4)
		idx, _ := ctx.Blackboard.GetInt(KeyPatrolIndex)
		require.Equal(t, 0, idx)
	})

	t.Run("centers the default route on the agent position", func(t *testing.T) {
		ctx, _ := newTestContext()
		ctx.World = &Collaborators{Movement: &stubMovement{pos: Vector3{X: 100, Y: 50}}}
		patrol := NewPatrolAction("")

		Execute(patrol, ctx)
		route, _ := ctx.Blackboard.Get(KeyPatrolPoints)
		for _, p := range route.([]Vector3) {
			require.InDelta(t, defaultPatrolRadius, distance(p, Vector3{X: 100, Y: 50}), 1e-9)
		}
	})

	t.Run("advances the waypoint index on arrival", func(t *testing.T) {
		ctx, _ := newTestContext()
		movement := &stubMovement{}
		ctx.World = &Collaborators{Movement: movement}
		patrol := NewPatrolAction("")

		Execute(patrol, ctx) // seeds the route
		route, _ := ctx.Blackboard.Get(KeyPatrolPoints)
		first := route.([]Vector3)[0]

		require.Equal(t, StatusRunning, Execute(patrol, ctx))
		require.Equal(t, []Vector3{first}, movement.moves)

		movement.pos = first
		require.Equal(t, StatusRunning, Execute(patrol, ctx))
		idx, _ := ctx.Blackboard.GetInt(KeyPatrolIndex)
		require.Equal(t, 1, idx)
	})

	t.Run("fails without movement once a route exists", func(t *testing.T) {
		ctx, _ := newTestContext()
		patrol := NewPatrolAction("")

		Execute(patrol, ctx)
		require.Equal(t, StatusFailure, Execute(patrol, ctx))
	})
}

func TestAttackAction(t *testing.T) {
	t.Run("attacks the current target", func(t *testing.T) {
		ctx, _ := newTestContext()
		combat := &stubCombat{}
		ctx.World = &Collaborators{Combat: combat}
		ctx.Blackboard.Set(KeyCurrentTarget, EntityRef("enemy-1"))

		require.Equal(t, StatusRunning, Execute(NewAttackAction(""), ctx))
		require.Equal(t, []EntityRef{"enemy-1"}, combat.attacked)
	})

	t.Run("fails without a target", func(t *testing.T) {
		ctx, _ := newTestContext()
		ctx.World = &Collaborators{Combat: &stubCombat{}}
		require.Equal(t, StatusFailure, Execute(NewAttackAction(""), ctx))
	})

	t.Run("fails without the combat collaborator", func(t *testing.T) {
		ctx, _ := newTestContext()
		ctx.Blackboard.Set(KeyCurrentTarget, EntityRef("enemy-1"))
		require.Equal(t, StatusFailure, Execute(NewAttackAction(""), ctx))
	})
}

func TestMoveToAction(t *testing.T) {
	t.Run("moves until arrival", func(t *testing.T) {
		ctx, _ := newTestContext()
		movement := &stubMovement{}
		ctx.World = &Collaborators{Movement: movement}
		ctx.Blackboard.Set(KeyLastKnownEnemyPos, Vector3{X: 10})

		move := NewMoveToAction("", "")
		require.Equal(t, StatusRunning, Execute(move, ctx))
		require.Equal(t, []Vector3{{X: 10}}, movement.moves)

		movement.pos = Vector3{X: 10}
		require.Equal(t, StatusSuccess, Execute(move, ctx))
	})

	t.Run("fails when the key is absent", func(t *testing.T) {
		ctx, _ := newTestContext()
		ctx.World = &Collaborators{Movement: &stubMovement{}}
		require.Equal(t, StatusFailure, Execute(NewMoveToAction("", "nowhere"), ctx))
	})
}

func TestInvestigateAction(t *testing.T) {
	ctx, _ := newTestContext()
	movement := &stubMovement{}
	ctx.World = &Collaborators{Movement: movement}
	ctx.Blackboard.Set(KeyInvestigationPoints, []Vector3{{X: 5}, {X: 9}})

	inv := NewInvestigateAction("")

	// walk to the first point
	require.Equal(t, StatusRunning, Execute(inv, ctx))
	movement.pos = Vector3{X: 5}
	require.Equal(t, StatusRunning, Execute(inv, ctx))

	// the consumed point is gone from the queue
	v, _ := ctx.Blackboard.Get(KeyInvestigationPoints)
	require.Equal(t, []Vector3{{X: 9}}, v)

	movement.pos = Vector3{X: 9}
	require.Equal(t, StatusSuccess, Execute(inv, ctx))

	// empty queue: nothing left to do
	require.Equal(t, StatusSuccess, Execute(inv, ctx))
}

func TestWaitAction(t *testing.T) {
	ctx, now := newTestContext()
	wait := NewWaitAction("", 100*time.Millisecond)

	require.Equal(t, StatusRunning, Execute(wait, ctx))
	*now = now.Add(100 * time.Millisecond)
	require.Equal(t, StatusSuccess, Execute(wait, ctx))

	// abort re-arms
	wait.Abort()
	require.Equal(t, StatusRunning, Execute(wait, ctx))
}

func TestCommandLeaves(t *testing.T) {
	t.Run("find cover", func(t *testing.T) {
		ctx, _ := newTestContext()
		combat := &stubCombat{}
		ctx.World = &Collaborators{Combat: combat}

		require.Equal(t, StatusSuccess, Execute(NewFindCoverAction(""), ctx))
		require.Equal(t, 1, combat.covers)
	})

	t.Run("suppress and flank need a target", func(t *testing.T) {
		ctx, _ := newTestContext()
		combat := &stubCombat{}
		ctx.World = &Collaborators{Combat: combat}

		require.Equal(t, StatusFailure, Execute(NewSuppressFireAction(""), ctx))
		require.Equal(t, StatusFailure, Execute(NewFlankAction(""), ctx))

		ctx.Blackboard.Set(KeyCurrentTarget, EntityRef("enemy-1"))
		require.Equal(t, StatusSuccess, Execute(NewSuppressFireAction(""), ctx))
		require.Equal(t, StatusRunning, Execute(NewFlankAction(""), ctx))
		require.Equal(t, []EntityRef{"enemy-1"}, combat.suppressed)
		require.Equal(t, []EntityRef{"enemy-1"}, combat.flanked)
	})

	t.Run("throw at the remembered position", func(t *testing.T) {
		ctx, _ := newTestContext()
		combat := &stubCombat{}
		ctx.World = &Collaborators{Combat: combat}
		ctx.Blackboard.Set(KeyLastKnownEnemyPos, Vector3{X: 3})

		require.Equal(t, StatusSuccess, Execute(NewThrowAtAction("", ""), ctx))
		require.Equal(t, []Vector3{{X: 3}}, combat.throws)
	})

	t.Run("set value", func(t *testing.T) {
		ctx, _ := newTestContext()
		require.Equal(t, StatusSuccess, Execute(NewSetValueAction("", "mode", "stealth"), ctx))
		v, _ := ctx.Blackboard.GetString("mode")
		require.Equal(t, "stealth", v)
	})

	t.Run("every command leaf fails without its collaborator", func(t *testing.T) {
		ctx, _ := newTestContext()
		ctx.Blackboard.Set(KeyCurrentTarget, EntityRef("enemy-1"))
		ctx.Blackboard.Set(KeyLastKnownEnemyPos, Vector3{X: 3})

		for name, n := range map[string]Node{
			"FindCover":    NewFindCoverAction(""),
			"Flank":        NewFlankAction(""),
			"SuppressFire": NewSuppressFireAction(""),
			"ThrowAt":      NewThrowAtAction("", ""),
			"LookAround":   NewLookAroundAction(""),
			"Communicate":  NewCommunicateAction("", ""),
			"MoveTo":       NewMoveToAction("", ""),
		} {
			require.Equal(t, StatusFailure, Execute(n, ctx), name)
		}
	})
}
