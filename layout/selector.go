package layout

import (
	"math/rand"

	"github.com/rs/zerolog"

	"rotation/types"
)

// type Selector struct {{{

// Picks the next layout to show.
//
// The Selector owns the cooldown bookkeeping and is not safe for concurrent
// use - the engine calls it from its single tick goroutine only.
type Selector struct {
	l zerolog.Logger

	layouts []*Layout

	// How many normal layouts must show after a restricted one before
	// restricted layouts come back into the pool.
	cooldown int

	// Restricted-subset state. inCooldown is set the moment a restricted
	// layout is selected, normalSince counts normal selections since.
	inCooldown  bool
	normalSince int

	rng *rand.Rand
} // }}}

// func NewSelector {{{

// cooldown < 0 picks the default of 5. cooldown == 0 disables the rule.
func NewSelector(layouts []*Layout, cooldown int, rng *rand.Rand, l *zerolog.Logger) *Selector {
	if cooldown < 0 {
		cooldown = 5
	}

	return &Selector{
		l:        l.With().Str("mod", "selector").Logger(),
		layouts:  layouts,
		cooldown: cooldown,
		rng:      rng,
	}
} // }}}

// func Selector.Next {{{

// Selects the next layout.
//
// Weighted draw over the catalog, minus the restricted subset while its
// cooldown is active. Zero-weight layouts are never selected. Returns
// types.ErrNoLayouts when there is nothing selectable at all - the caller
// should keep showing whatever it has.
func (se *Selector) Next() (*Layout, error) {
	fl := se.l.With().Str("func", "Next").Logger()

	if len(se.layouts) < 1 {
		return nil, types.ErrNoLayouts
	}

	excludeRestricted := se.inCooldown && se.cooldown > 0

	weights := make([]int, len(se.layouts))
	for i, lay := range se.layouts {
		if excludeRestricted && lay.Restricted {
			continue
		}

		weights[i] = lay.Weight
	}

	sa := NewSampler(weights)

	var lay *Layout

	if !sa.Empty() {
		lay = se.layouts[sa.Pick(se.rng)]
	} else if excludeRestricted {
		// Every weighted layout is restricted and cooling down. Rather
		// then stall the rotation, fall back to a uniform pick over the
		// normal layouts, weights ignored.
		var normal []*Layout
		for _, la := range se.layouts {
			if !la.Restricted {
				normal = append(normal, la)
			}
		}

		if len(normal) < 1 {
			return nil, types.ErrNoLayouts
		}

		lay = normal[se.rng.Intn(len(normal))]
		fl.Warn().Str("layout", lay.Name).Msg("cooldown emptied pool, uniform fallback")
	} else {
		// Catalog exists but nothing carries weight.
		return nil, types.ErrNoLayouts
	}

	// Update the cooldown state machine.
	if lay.Restricted {
		se.inCooldown = true
		se.normalSince = 0
	} else if se.inCooldown {
		se.normalSince++

		if se.normalSince >= se.cooldown {
			se.inCooldown = false
			se.normalSince = 0
		}
	}

	fl.Debug().Str("layout", lay.Name).Bool("cooldown", se.inCooldown).Int("normalSince", se.normalSince).Send()

	return lay, nil
} // }}}
