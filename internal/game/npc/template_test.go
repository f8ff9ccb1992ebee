package npc_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holdout/internal/game/npc"
)

func TestLoadTemplateFromBytes_Boss(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(`
id: furnace_core
name: Furnace Core
max_hp: 400
boss:
  pool_health: 1000
  parts: [furnace_wall, furnace_wall]
`))
	require.NoError(t, err)
	require.NotNil(t, tmpl.Boss)
	assert.Equal(t, 1000, tmpl.PoolTotal())
	assert.Len(t, tmpl.Boss.Parts, 2)
	assert.True(t, tmpl.Hostile())
}

func TestLoadTemplateFromBytes_PoolDefaultsToMaxHP(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte("id: warden\nname: Warden\nmax_hp: 250\nboss: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, 250, tmpl.PoolTotal())
}

func TestLoadTemplateFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"no id":     "name: X\nmax_hp: 1\n",
		"no name":   "id: x\nmax_hp: 1\n",
		"no hp":     "id: x\nname: X\n",
		"self part": "id: x\nname: X\nmax_hp: 1\nboss: {parts: [x]}\n",
		"bad yaml":  ":::",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := npc.LoadTemplateFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplates_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scrapper.yaml"), []byte("id: scrapper\nname: Scrapper\nmax_hp: 20\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	templates, err := npc.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "scrapper", templates[0].ID)
}

func TestLoadTemplates_MissingDir(t *testing.T) {
	_, err := npc.LoadTemplates(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestNewCatalog_ResolvesParts(t *testing.T) {
	wall := &npc.Template{ID: "wall", Name: "Wall", MaxHP: 50}
	core := &npc.Template{ID: "core", Name: "Core", MaxHP: 100, Boss: &npc.BossSpec{Parts: []string{"wall"}}}
	cat, err := npc.NewCatalog([]*npc.Template{wall, core})
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "wall"}, cat.IDs())

	got, err := cat.Get("core")
	require.NoError(t, err)
	assert.Same(t, core, got)

	_, err = cat.Get("ghost")
	assert.True(t, errors.Is(err, npc.ErrUnknownTemplate))
}

func TestNewCatalog_RejectsBadReferences(t *testing.T) {
	core := &npc.Template{ID: "core", Name: "Core", MaxHP: 100, Boss: &npc.BossSpec{Parts: []string{"missing"}}}
	_, err := npc.NewCatalog([]*npc.Template{core})
	assert.True(t, errors.Is(err, npc.ErrUnknownTemplate))

	other := &npc.Template{ID: "other", Name: "Other", MaxHP: 1, Boss: &npc.BossSpec{}}
	nested := &npc.Template{ID: "nested", Name: "Nested", MaxHP: 1, Boss: &npc.BossSpec{Parts: []string{"other"}}}
	_, err = npc.NewCatalog([]*npc.Template{other, nested})
	assert.Error(t, err)

	_, err = npc.NewCatalog([]*npc.Template{other, other})
	assert.Error(t, err)
}

func TestProperty_Template_ValidateAcceptsPositiveHP(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tmpl := &npc.Template{
			ID:    rapid.StringMatching(`[a-z][a-z0-9_]{0,15}`).Draw(rt, "id"),
			Name:  rapid.StringMatching(`[A-Z][a-z]{1,10}`).Draw(rt, "name"),
			MaxHP: rapid.IntRange(1, 5000).Draw(rt, "max_hp"),
		}
		if err := tmpl.Validate(); err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
	})
}
