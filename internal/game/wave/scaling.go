package wave

// ScalingFactor derives the per-wave difficulty multiplier from the active player count.
//
// Postcondition: Returns max(1, active).
func ScalingFactor(active int) int {
	if active < 1 {
		return 1
	}
	return active
}

// Plan is the effective spawn budget for one group under a given scaling factor.
type Plan struct {
	// Count is the number of spawns to issue; meaningless when Unbounded.
	Count int
	// HealthMultiplier is applied to each spawned entity's base max health.
	HealthMultiplier float64
	// Unbounded groups spawn until their designated boss is gone.
	Unbounded bool
}

// PlanFor computes the spawn plan for g under factor.
//
// Precondition: factor >= 1.
// Postcondition:
//   - boss groups: Count == 1, HealthMultiplier == base × factor.
//   - unbounded groups: Unbounded is true, HealthMultiplier follows the scaling mode.
//   - count scaling: Count == g.Count × factor, HealthMultiplier == 1.
//   - health scaling: Count == g.Count, HealthMultiplier == base × factor.
func PlanFor(g EncounterGroup, factor int) Plan {
	if factor < 1 {
		factor = 1
	}
	scaled := g.BaseMultiplier() * float64(factor)
	switch {
	case g.Boss:
		return Plan{Count: 1, HealthMultiplier: scaled}
	case g.Unbounded():
		mult := 1.0
		if g.ScaleHealth {
			mult = scaled
		}
		return Plan{Unbounded: true, HealthMultiplier: mult}
	case g.ScaleHealth:
		return Plan{Count: g.Count, HealthMultiplier: scaled}
	default:
		return Plan{Count: g.Count * factor, HealthMultiplier: 1}
	}
}
