package gameserver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/holdout/internal/gameserver"
)

type stepTarget struct {
	steps []string
}

func (s *stepTarget) HaltSpawners() { s.steps = append(s.steps, "halt") }

func (s *stepTarget) DestroyEntities() int {
	s.steps = append(s.steps, "entities")
	return 4
}

func (s *stepTarget) DestroyBossPools() int {
	s.steps = append(s.steps, "pools")
	return 1
}

func (s *stepTarget) ClearActiveBoss() { s.steps = append(s.steps, "clear") }

func (s *stepTarget) AdvanceOrRetry(shouldAdvance bool) {
	if shouldAdvance {
		s.steps = append(s.steps, "advance")
		return
	}
	s.steps = append(s.steps, "retry")
}

func TestRetryCoordinator_ExecuteRunsStepsInOrder(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gameserver.NewRetryCoordinator(zap.New(core))
	target := &stepTarget{}

	r.Execute(target)
	assert.Equal(t, []string{"halt", "entities", "pools", "clear"}, target.steps)
	assert.True(t, r.Pending())
	assert.Equal(t, 1, r.Attempts())

	entries := logs.FilterMessage("wave torn down for retry").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(4), entries[0].ContextMap()["entities_destroyed"])
	}
}

func TestRetryCoordinator_TickRestartsOnce(t *testing.T) {
	r := gameserver.NewRetryCoordinator(zap.NewNop())
	target := &stepTarget{}

	assert.False(t, r.Tick(target))
	assert.Empty(t, target.steps)

	r.Execute(target)
	assert.True(t, r.Tick(target))
	assert.False(t, r.Tick(target))
	assert.Equal(t, []string{"halt", "entities", "pools", "clear", "retry"}, target.steps)
	assert.False(t, r.Pending())
}

func TestRetryCoordinator_CountsAttempts(t *testing.T) {
	r := gameserver.NewRetryCoordinator(zap.NewNop())
	for i := 0; i < 3; i++ {
		r.Execute(&stepTarget{})
		r.Tick(&stepTarget{})
	}
	assert.Equal(t, 3, r.Attempts())
}
