// Photo selection.
//
// Given the layout chosen for this rotation and the library's category
// buckets, assign one photo to every pane. The picker owns all the
// selection bookkeeping - which photos each category has already shown,
// and which photos are on screen together right now.
package picker

import (
	"math/rand"

	"github.com/rs/zerolog"

	"rotation/classify"
	"rotation/types"
)

// type Params struct {{{

// Selection tunables.
//
// The historical implementations of this algorithm never agreed on these
// numbers, so none of them are load-bearing - they are defaults the
// configuration can override.
type Params struct {
	// Days either side of today for the recency window.
	WindowDays int

	// How many extra draws a recency-window photo gets. 3 means triple
	// the selection probability.
	Multiplier int

	// Maximum acceptable crop value (|photo ratio - pane ratio|) for a
	// non ultra-wide pane.
	CropMax float64

	// Draw attempts per pane before falling back to a linear scan.
	DrawCap int

	// Full re-assignment attempts when the first assignment misses the
	// crop budget.
	AltAttempts int

	// Draw attempts for the two-pane independent-draw special case.
	DualAttempts int
} // }}}

// func DefaultParams {{{

func DefaultParams() Params {
	return Params{
		WindowDays:   7,
		Multiplier:   3,
		CropMax:      0.2,
		DrawCap:      50,
		AltAttempts:  10,
		DualAttempts: 20,
	}
} // }}}

// type Result struct {{{

// One committed assignment.
type Result struct {
	// Pane name to photo. Every pane of the layout is present.
	Photos map[string]*types.Photo

	// Set when the assignment missed the crop budget or needed any
	// fallback. Diagnostic only, the assignment still displays.
	Degraded bool

	// Worst crop value across the non ultra-wide panes.
	MaxCrop float64
} // }}}

// type Picker struct {{{

// The selection engine.
//
// Not safe for concurrent use - the engine confines all calls to its tick
// goroutine, which is the only thread of control in this program. A caller
// driving the Picker from multiple goroutines needs its own mutex.
type Picker struct {
	l zerolog.Logger

	pa Params

	rng *rand.Rand

	// Per-category "already shown" photo paths. When a category's bucket
	// is fully shown, its set resets and the rotation starts over.
	used map[classify.Category]map[string]struct{}
} // }}}

// func New {{{

// The rand source is the caller's so tests can seed it.
func New(pa Params, rng *rand.Rand, l *zerolog.Logger) *Picker {
	return &Picker{
		l:    l.With().Str("mod", "picker").Logger(),
		pa:   pa,
		rng:  rng,
		used: make(map[classify.Category]map[string]struct{}, 8),
	}
} // }}}

// func Picker.Reset {{{

// Drops all repetition-reduction state, every photo becomes fresh again.
func (pk *Picker) Reset() {
	pk.used = make(map[classify.Category]map[string]struct{}, 8)
} // }}}

// func Picker.markUsed {{{

func (pk *Picker) markUsed(ph *types.Photo) {
	set, ok := pk.used[ph.Category]
	if !ok {
		set = make(map[string]struct{}, 16)
		pk.used[ph.Category] = set
	}

	set[ph.Path] = struct{}{}
} // }}}
