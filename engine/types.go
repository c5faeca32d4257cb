// The rotation engine.
//
// Ties the rest of the program together - on every tick it picks the next
// layout, assigns photos to its panes, computes how each photo fits and
// hands the finished frame to the renderer.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"rotation/layout"
	"rotation/picker"
	"rotation/types"
	"rotation/yconf"
)

type confYAML struct {
	// The screen resolution frames render at.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Time between rotations, anything time.ParseDuration() accepts.
	//
	// Default if not set is 15 seconds, minimum 1 second.
	Interval string `yaml:"interval"`

	// Normal layouts required between two restricted ones.
	//
	// Left unset the default applies, an explicit 0 disables the rule.
	Cooldown *int `yaml:"cooldown"`

	// Per-layout weight overrides, keyed by layout name. 0 disables a
	// layout without removing it.
	Weights map[string]int `yaml:"weights"`

	// Names of the restricted layouts. Unset keeps the default subset.
	Restricted []string `yaml:"restricted"`

	// Selection tunables, zero values keep the defaults.
	CropMax      float64 `yaml:"cropmax"`
	Multiplier   int     `yaml:"multiplier"`
	WindowDays   int     `yaml:"windowdays"`
	DrawCap      int     `yaml:"drawcap"`
	AltAttempts  int     `yaml:"altattempts"`
	DualAttempts int     `yaml:"dualattempts"`
}

type conf struct {
	Width  int
	Height int

	Interval time.Duration

	// -1 means not configured, use the default.
	Cooldown int

	Weights    map[string]int
	Restricted []string

	CropMax      float64
	Multiplier   int
	WindowDays   int
	DrawCap      int
	AltAttempts  int
	DualAttempts int
}

// Convert and Notify are set in New(), as they need access to the loaded *Engine.
var ycCallers = yconf.Callers{
	Empty:   func() interface{} { return &confYAML{} },
	Merge:   yconfMerge,
	Changed: yconfChanged,
}

// type Engine struct {{{

type Engine struct {
	l zerolog.Logger

	cPath string

	co atomic.Value

	yc *yconf.YConf

	lib   types.Library
	re    types.Renderer
	clock types.Clock

	// Everything below eMut is the rotation state - the catalog, the
	// layout selector and the photo picker. Rotations from the ticker and
	// manual Tick() calls both take the lock, so they never overlap.
	eMut sync.Mutex
	rng  *rand.Rand
	lays []*layout.Layout
	sel  *layout.Selector
	pk   *picker.Picker

	// The last successfully displayed layout name, "" before the first
	// frame. Kept so selection errors leave the screen alone.
	last string

	// Set on configuration reload, the next rotation rebuilds the
	// rotation state. Use atomics.
	rebuild uint32

	// Do not access directly, use atomics. 1 means ticks skip rotating.
	paused uint32

	// Closed when Close() runs, shuts down loopy.
	bye chan struct{}

	// Do not access directly, use atomics.
	closed uint32

	ctx context.Context
} // }}}
