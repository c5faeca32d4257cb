package types

import (
	"errors"
	"image"
	"time"

	"rotation/classify"
	"rotation/geometry"
)

var ErrShutdown = errors.New("Shutdown")

// The catalog produced no layouts for the configured resolution.
//
// This one is fatal to the tick - the caller keeps whatever was on screen.
var ErrNoLayouts = errors.New("no layouts available")

// The library has no photos at all, nothing can be assigned anywhere.
var ErrNoPhotos = errors.New("no photos in library")

// type Photo struct {{{

// A single photo in the library.
//
// The path is the identity, photos are created once at scan time and never
// modified after - anything holding a *Photo can read it without locking.
type Photo struct {
	// Full path to the file, unique within the library.
	Path string

	// Pixel dimensions as decoded from the file header.
	Width  int
	Height int

	// EXIF date taken when the file has one, file modification time
	// otherwise. Used only for the recency weighting window.
	Taken time.Time

	// Classified once from Width/Height, never recomputed.
	Category classify.Category
} // }}}

// func Photo.Ratio {{{

// The width:height aspect ratio, or 0 for broken dimensions.
func (p *Photo) Ratio() float64 {
	if p.Height <= 0 {
		return 0
	}

	return float64(p.Width) / float64(p.Height)
} // }}}

// type FramePane struct {{{

// One pane of a committed frame - which photo goes where, and how to make
// it fit.
type FramePane struct {
	Name string

	// Where on screen the pane sits.
	Rect image.Rectangle

	Photo *Photo

	Plan geometry.Plan
} // }}}

// type Frame struct {{{

// A committed assignment for one rotation tick.
//
// This is what the engine hands to the Renderer, and it is read-only once
// built.
type Frame struct {
	// The layout name this frame was built from.
	Layout string

	// Full frame dimensions.
	Width  int
	Height int

	Panes []FramePane

	// True when the assignment missed the crop budget or needed a
	// fallback photo. The frame still renders, this is diagnostic.
	Degraded bool

	// Worst crop value across the non ultra-wide panes.
	MaxCrop float64
} // }}}

// type Library interface {{{

// Where photos come from.
//
// Buckets returns the current classification buckets. The returned map and
// slices are read-only snapshots - a rescan publishes a new map rather than
// mutating one already handed out.
type Library interface {
	Buckets() map[classify.Category][]*Photo

	// Total photos across all buckets.
	Len() int

	Close()
} // }}}

// type Renderer interface {{{

// The display side.
//
// Display blocks until the frame has been handed off, the engine does not
// start its next tick timer until it returns.
type Renderer interface {
	Display(*Frame) error
} // }}}

// type Clock interface {{{

// The engine's only notion of "today", injectable so the recency window is
// testable.
type Clock interface {
	Now() time.Time
} // }}}
