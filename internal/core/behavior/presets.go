package behavior

// Stock preset names.
const (
	PresetDefault    = "default"
	PresetAggressive = "aggressive"
	PresetDefensive  = "defensive"
	PresetSupport    = "support"
	PresetSniper     = "sniper"
)

// presetForRole maps an agent role to its combat preset.
func presetForRole(role Role) string {
	switch role {
	case RoleAssault:
		return PresetAggressive
	case RoleDefender:
		return PresetDefensive
	case RoleSupport:
		return PresetSupport
	case RoleSniper:
		return PresetSniper
	default:
		return PresetDefault
	}
}

// presetForAlert picks a preset for an alert level: calm agents fall back to
// the default preset, anything higher engages the role preset.
func presetForAlert(level AlertLevel, role Role) string {
	if level == AlertCalm {
		return PresetDefault
	}
	return presetForRole(role)
}

// presetForObjective maps an objective type to the preset best suited to it.
// Unknown types keep the role preset.
func presetForObjective(objType string, role Role) string {
	switch objType {
	case "defend", "hold":
		return PresetDefensive
	case "capture", "attack":
		return PresetAggressive
	case "escort":
		return PresetSupport
	case "overwatch":
		return PresetSniper
	default:
		return presetForRole(role)
	}
}

// DefaultPresetLibrary returns the five stock presets keyed by name. Every
// tree compiles against the default registry and builtin conditions.
func DefaultPresetLibrary() map[string]*Definition {
	return map[string]*Definition{
		PresetDefault:    defaultPreset(),
		PresetAggressive: aggressivePreset(),
		PresetDefensive:  defensivePreset(),
		PresetSupport:    supportPreset(),
		PresetSniper:     sniperPreset(),
	}
}

// defaultPreset: engage a visible target, otherwise investigate anything
// suspicious, otherwise patrol.
func defaultPreset() *Definition {
	return &Definition{
		Type: "Selector",
		Name: "default-root",
		Children: []*Definition{
			{
				Type: "Sequence",
				Name: "engage",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasTarget"},
					{Type: "Attack", Name: "attack-target"},
				},
			},
			{
				Type: "Sequence",
				Name: "investigate",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasInvestigationPoint"},
					{Type: "Investigate", Name: "check-noise"},
				},
			},
			{Type: "Patrol", Name: "patrol-route"},
		},
	}
}

// aggressivePreset: push the target hard, flank when the direct attack stalls,
// suppress as a last resort.
func aggressivePreset() *Definition {
	return &Definition{
		Type: "Selector",
		Name: "aggressive-root",
		Children: []*Definition{
			{
				Type: "Sequence",
				Name: "retreat-when-broken",
				Children: []*Definition{
					{Type: "Condition", Condition: "HealthLow"},
					{Type: "FindCover", Name: "break-contact"},
				},
			},
			{
				Type: "Sequence",
				Name: "assault",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasTarget"},
					{
						Type: "Selector",
						Name: "pick-attack",
						Children: []*Definition{
							{
								Type: "Sequence",
								Name: "direct",
								Children: []*Definition{
									{Type: "Condition", Condition: "TargetVisible"},
									{Type: "Attack", Name: "press-attack"},
								},
							},
							{Type: "Flank", Name: "flank-target"},
							{Type: "SuppressFire", Name: "suppress"},
						},
					},
				},
			},
			{Type: "MoveTo", Name: "push-last-known"},
			{Type: "Patrol", Name: "hunt-patrol"},
		},
	}
}

// defensivePreset: hold ground from cover, fire only at what shows itself.
func defensivePreset() *Definition {
	return &Definition{
		Type: "Selector",
		Name: "defensive-root",
		Children: []*Definition{
			{
				Type: "Sequence",
				Name: "take-cover",
				Children: []*Definition{
					{Type: "Condition", Condition: "UnderFire"},
					{Type: "FindCover", Name: "get-down"},
				},
			},
			{
				Type: "Sequence",
				Name: "return-fire",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasTarget"},
					{Type: "Condition", Condition: "TargetVisible"},
					{Type: "Attack", Name: "hold-fire-lane"},
				},
			},
			{
				Type: "Repeater",
				Name: "watch-cycle",
				Count: 3,
				Child: &Definition{Type: "LookAround", Name: "scan-sector"},
			},
			{
				Type:     "Timer",
				Name:     "hold-position",
				Duration: 2,
				Child:    &Definition{Type: "LookAround", Name: "scan-again"},
			},
		},
	}
}

// supportPreset: keep the squad informed, cover downed teammates, shoot only
// when pressed.
func supportPreset() *Definition {
	return &Definition{
		Type: "Selector",
		Name: "support-root",
		Children: []*Definition{
			{
				Type: "Sequence",
				Name: "cover-downed",
				Children: []*Definition{
					{Type: "Condition", Condition: "TeammateDown"},
					{Type: "SuppressFire", Name: "cover-revive"},
				},
			},
			{
				Type: "Sequence",
				Name: "defend-self",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasTarget"},
					{Type: "Attack", Name: "defend"},
				},
			},
			{
				Type:     "Cooldown",
				Name:     "radio-interval",
				Duration: 5,
				Child: &Definition{
					Type:   "Communicate",
					Name:   "status-report",
					Params: map[string]any{"message": "status"},
				},
			},
			{Type: "Patrol", Name: "shadow-squad"},
		},
	}
}

// sniperPreset: overwatch from position, engage only clean shots, relocate
// when compromised.
func sniperPreset() *Definition {
	return &Definition{
		Type: "Selector",
		Name: "sniper-root",
		Children: []*Definition{
			{
				Type: "Sequence",
				Name: "relocate",
				Children: []*Definition{
					{Type: "Condition", Condition: "UnderFire"},
					{Type: "FindCover", Name: "displace"},
				},
			},
			{
				Type: "Sequence",
				Name: "take-shot",
				Children: []*Definition{
					{Type: "Condition", Condition: "HasTarget"},
					{Type: "Condition", Condition: "TargetVisible"},
					{
						Type:     "Cooldown",
						Name:     "shot-interval",
						Duration: 3,
						Child:    &Definition{Type: "Attack", Name: "fire"},
					},
				},
			},
			{
				Type:  "RetryUntilFail",
				Name:  "overwatch-scan",
				Child: &Definition{Type: "LookAround", Name: "glass-sector"},
			},
		},
	}
}
