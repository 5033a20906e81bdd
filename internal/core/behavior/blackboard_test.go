package behavior

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlackboard(t *testing.T) {
	t.Run("set get delete", func(t *testing.T) {
		bb := NewBlackboard()

		bb.Set("k", 42)
		v, ok := bb.Get("k")
		require.True(t, ok)
		require.Equal(t, 42, v)
		require.True(t, bb.Has("k"))

		bb.Delete("k")
		require.False(t, bb.Has("k"))
		_, ok = bb.Get("k")
		require.False(t, ok)
	})

	t.Run("typed getters convert numerics", func(t *testing.T) {
		bb := NewBlackboard()
		bb.Set("float", 3.7)
		bb.Set("int", 5)
		bb.Set("str", "hello")
		bb.Set("bool", true)
		bb.Set("vec", Vector3{X: 1, Y: 2, Z: 3})

		i, ok := bb.GetInt("float")
		require.True(t, ok)
		require.Equal(t, 3, i)

		f, ok := bb.GetFloat("int")
		require.True(t, ok)
		require.Equal(t, 5.0, f)

		s, ok := bb.GetString("str")
		require.True(t, ok)
		require.Equal(t, "hello", s)

		b, ok := bb.GetBool("bool")
		require.True(t, ok)
		require.True(t, b)

		vec, ok := bb.GetVector("vec")
		require.True(t, ok)
		require.Equal(t, Vector3{X: 1, Y: 2, Z: 3}, vec)

		_, ok = bb.GetInt("str")
		require.False(t, ok)
	})

	t.Run("version counts writes", func(t *testing.T) {
		bb := NewBlackboard()
		require.EqualValues(t, 0, bb.Version())

		bb.Set("a", 1)
		bb.Set("a", 2)
		bb.Delete("a")
		require.EqualValues(t, 3, bb.Version())
	})

	t.Run("snapshot is detached from the store", func(t *testing.T) {
		bb := NewBlackboard()
		bb.Set("a", 1)

		snap := bb.Snapshot()
		bb.Set("a", 2)
		require.Equal(t, 1, snap["a"])
	})

	t.Run("concurrent access", func(t *testing.T) {
		bb := NewBlackboard()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					bb.Set("shared", n)
					bb.Get("shared")
					bb.Keys()
				}
			}(i)
		}
		wg.Wait()
		require.Equal(t, 1, bb.Len())
	})
}
