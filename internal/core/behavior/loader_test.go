package behavior

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const presetYAML = `
presets:
  - name: patrol-only
    tree:
      type: Selector
      children:
        - type: Sequence
          children:
            - type: Condition
              condition: HasTarget
            - type: Attack
        - type: Patrol
  - name: guard
    tree:
      type: Timer
      duration: 2.5
      child:
        type: LookAround
`

const presetJSON = `{
  "presets": [
    {
      "name": "patrol-only",
      "tree": {
        "type": "Patrol",
        "name": "walk"
      }
    }
  ]
}`

func TestLoadYAML(t *testing.T) {
	f, err := LoadYAML(strings.NewReader(presetYAML))
	require.NoError(t, err)
	require.Len(t, f.Presets, 2)

	require.Equal(t, "patrol-only", f.Presets[0].Name)
	require.Equal(t, "Selector", f.Presets[0].Tree.Type)
	require.Len(t, f.Presets[0].Tree.Children, 2)

	require.Equal(t, 2.5, f.Presets[1].Tree.Duration)
	require.Equal(t, "LookAround", f.Presets[1].Tree.Child.Type)
}

func TestLoadJSON(t *testing.T) {
	f, err := LoadJSON(strings.NewReader(presetJSON))
	require.NoError(t, err)
	require.Len(t, f.Presets, 1)
	require.Equal(t, "walk", f.Presets[0].Tree.Name)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"missing name": `
presets:
  - tree:
      type: Patrol
`,
		"missing tree": `
presets:
  - name: broken
`,
		"missing type": `
presets:
  - name: broken
    tree:
      name: typeless
`,
		"duplicate names": `
presets:
  - name: twice
    tree: {type: Patrol}
  - name: twice
    tree: {type: Patrol}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestPresetFileApply(t *testing.T) {
	f, err := LoadYAML(strings.NewReader(presetYAML))
	require.NoError(t, err)

	engine := NewEngine(Config{AgentID: "agent-1"})
	require.NoError(t, f.Apply(engine))
	require.ElementsMatch(t, []string{"patrol-only", "guard"}, engine.Presets())
}

func TestPresetFileApplySkipsBadTrees(t *testing.T) {
	f := &PresetFile{Presets: []PresetDef{
		{Name: "bad", Tree: &Definition{Type: "Teleport"}},
		{Name: "good", Tree: &Definition{Type: "Patrol"}},
	}}

	engine := NewEngine(Config{AgentID: "agent-1"})
	err := f.Apply(engine)
	require.Error(t, err)
	require.Contains(t, engine.Presets(), "good")
}
