package npc

import (
	"math"

	"github.com/cory-johannsen/holdout/internal/game/wave"
)

// Instance is a live enemy entity occupying an arena.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateID is the source template's ID.
	TemplateID string
	// Name is copied from the template for display.
	Name string
	// ArenaID is the arena this instance occupies.
	ArenaID string
	// Position is where the instance was created.
	Position wave.Point
	// BaseHP is the template's MaxHP before any multiplier.
	BaseHP int
	// MaxHP is the instance's maximum hit points after scaling.
	MaxHP int
	// CurrentHP is the instance's current hit points.
	CurrentHP int
	// Hostile instances block wave clearance.
	Hostile bool
}

// NewInstance creates a live instance from a template, placed in arenaID at pos.
//
// Precondition: id must be non-empty; tmpl must be non-nil; arenaID must be non-empty.
// Postcondition: CurrentHP == MaxHP == BaseHP == tmpl.MaxHP.
func NewInstance(id string, tmpl *Template, arenaID string, pos wave.Point) *Instance {
	return &Instance{
		ID:         id,
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		ArenaID:    arenaID,
		Position:   pos,
		BaseHP:     tmpl.MaxHP,
		MaxHP:      tmpl.MaxHP,
		CurrentHP:  tmpl.MaxHP,
		Hostile:    tmpl.Hostile(),
	}
}

// ScaleHealth applies mult to the base max health and fills the instance to full.
//
// Postcondition: MaxHP == max(1, round(BaseHP*mult)) and CurrentHP == MaxHP.
func (i *Instance) ScaleHealth(mult float64) {
	hp := int(math.Round(float64(i.BaseHP) * mult))
	if hp < 1 {
		hp = 1
	}
	i.MaxHP = hp
	i.CurrentHP = hp
}

// IsDead reports whether the instance has zero or fewer hit points.
func (i *Instance) IsDead() bool {
	return i.CurrentHP <= 0
}

// HealthDescription returns a coarse health state string.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	if i.CurrentHP <= 0 {
		return "destroyed"
	}
	pct := float64(i.CurrentHP) / float64(i.MaxHP)
	switch {
	case pct >= 1.0:
		return "intact"
	case pct >= 0.60:
		return "damaged"
	case pct >= 0.20:
		return "failing"
	default:
		return "critical"
	}
}
