// Package npc provides enemy template definitions and live instance management.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned when a prototype ID has no template.
var ErrUnknownTemplate = errors.New("unknown npc template")

// BossSpec marks a template as the root of a multi-part boss sharing one health pool.
type BossSpec struct {
	// PoolHealth is the base total of the shared pool; 0 means the root's MaxHP.
	PoolHealth int `yaml:"pool_health"`
	// Parts lists template IDs spawned alongside the root and bound to the same pool.
	Parts []string `yaml:"parts"`
}

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxHP       int    `yaml:"max_hp"`
	// Passive templates never count as hostile, e.g. decorative structures.
	Passive bool      `yaml:"passive"`
	Boss    *BossSpec `yaml:"boss"`
}

// Hostile reports whether instances of t block wave clearance.
func (t *Template) Hostile() bool { return !t.Passive }

// PoolTotal returns the base total for a boss pool rooted at t.
//
// Precondition: t.Boss must be non-nil.
func (t *Template) PoolTotal() int {
	if t.Boss.PoolHealth > 0 {
		return t.Boss.PoolHealth
	}
	return t.MaxHP
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP >= 1, and any boss
// section has a non-negative pool and no empty or self-referencing part IDs.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	if t.Boss != nil {
		if t.Boss.PoolHealth < 0 {
			return fmt.Errorf("npc template %q: boss.pool_health must be >= 0", t.ID)
		}
		for _, p := range t.Boss.Parts {
			if p == "" || p == t.ID {
				return fmt.Errorf("npc template %q: invalid boss part %q", t.ID, p)
			}
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Catalog is an immutable lookup of templates by ID.
type Catalog struct {
	byID map[string]*Template
}

// NewCatalog indexes templates and checks cross-references.
//
// Postcondition: Returns an error on duplicate IDs, on boss parts naming unknown
// templates, or on parts that are themselves bosses.
func NewCatalog(templates []*Template) (*Catalog, error) {
	byID := make(map[string]*Template, len(templates))
	for _, t := range templates {
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate npc template %q", t.ID)
		}
		byID[t.ID] = t
	}
	for _, t := range templates {
		if t.Boss == nil {
			continue
		}
		for _, p := range t.Boss.Parts {
			part, ok := byID[p]
			if !ok {
				return nil, fmt.Errorf("npc template %q: boss part %q: %w", t.ID, p, ErrUnknownTemplate)
			}
			if part.Boss != nil {
				return nil, fmt.Errorf("npc template %q: boss part %q is itself a boss", t.ID, p)
			}
		}
	}
	return &Catalog{byID: byID}, nil
}

// Get returns the template with the given ID or ErrUnknownTemplate.
func (c *Catalog) Get(id string) (*Template, error) {
	t, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownTemplate)
	}
	return t, nil
}

// IDs returns the sorted template IDs.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.byID))
	for id := range c.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
