package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holdout/internal/game/rng"
)

func TestSequenceSource_WrapsAndReduces(t *testing.T) {
	s := rng.NewSequenceSource(0, 4, -1)
	assert.Equal(t, 0, s.Intn(3))
	assert.Equal(t, 1, s.Intn(3))
	assert.Equal(t, 2, s.Intn(3))
	assert.Equal(t, 0, s.Intn(3))
}

func TestSequenceSource_EmptyYieldsZero(t *testing.T) {
	assert.Equal(t, 0, rng.NewSequenceSource().Intn(7))
}

func TestSources_PanicOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { rng.NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { rng.NewSequenceSource(1).Intn(-2) })
}

func TestProperty_Sources_StayInRange(t *testing.T) {
	crypto := rng.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 1000).Draw(rt, "n")
		seq := rng.NewSequenceSource(rapid.SliceOfN(rapid.Int(), 1, 10).Draw(rt, "values")...)
		for _, v := range []int{crypto.Intn(n), seq.Intn(n)} {
			if v < 0 || v >= n {
				rt.Fatalf("value %d out of [0, %d)", v, n)
			}
		}
	})
}
