// Package prompts builds the natural-language instructions sent to the
// generation backends. Each builder is a pure function of the profile and its
// contextual parameters; the only state on the composer is the randomness
// source used to assign diversity recipes, injected so tests can be
// deterministic.
package prompts

import (
	"math/rand"
	"time"

	"dreamweaver-server/internal/models"
)

// Composer builds prompts for the three generation tasks: option listing,
// full-segment generation and choice-driven continuation.
type Composer struct {
	rng *rand.Rand
}

// NewComposer creates a composer. A nil rng gets a time-seeded source.
func NewComposer(rng *rand.Rand) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Composer{rng: rng}
}

// pickEnergyLevels selects count mutually exclusive energy levels.
func (c *Composer) pickEnergyLevels(count int) []models.EnergyLevel {
	perm := c.rng.Perm(len(models.AllEnergyLevels))
	if count > len(perm) {
		count = len(perm)
	}
	picked := make([]models.EnergyLevel, count)
	for i := 0; i < count; i++ {
		picked[i] = models.AllEnergyLevels[perm[i]]
	}
	return picked
}

// pickStyles selects count mutually exclusive entries from a style pool.
func (c *Composer) pickStyles(pool []string, count int) []string {
	perm := c.rng.Perm(len(pool))
	if count > len(perm) {
		count = len(perm)
	}
	picked := make([]string, count)
	for i := 0; i < count; i++ {
		picked[i] = pool[perm[i]]
	}
	return picked
}
