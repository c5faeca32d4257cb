// Layout catalog and rotation.
//
// A layout is a named tiling of panes for one screen resolution. The catalog
// builds the available layouts for a resolution, the Selector picks which
// one shows next.
package layout

import (
	"image"

	"rotation/classify"
)

// Layout names as they appear in configuration and logs.
const (
	SinglePane    = "Single Pane"
	TwoPhotos     = "Two Photos"
	ThreeVertical = "Three Vertical"
	ThreeMixed    = "Three Mixed"
	FourPhotos    = "Four Photos"
	FivePhotos    = "Five Photos"
	SixPhotos     = "Six Photos"
)

// type Pane struct {{{

// One rectangular region of a layout, displaying exactly one photo.
type Pane struct {
	// Unique within the layout.
	Name string

	// Screen coordinates.
	Rect image.Rectangle

	// Accepted categories in preference order - the first entries are the
	// better matches for this pane's shape.
	Categories []classify.Category
} // }}}

// func Pane.Ratio {{{

func (pa *Pane) Ratio() float64 {
	if pa.Rect.Dy() < 1 {
		return 0
	}

	return float64(pa.Rect.Dx()) / float64(pa.Rect.Dy())
} // }}}

// type Layout struct {{{

type Layout struct {
	Name string

	Panes []Pane

	// Relative selection weight. Zero means the layout exists but is
	// never picked.
	Weight int

	// Restricted layouts are subject to the cooldown rule - after one
	// shows, none of them can show again until enough normal layouts
	// have.
	Restricted bool
} // }}}

// type Options struct {{{

// Configuration knobs for building a catalog.
type Options struct {
	// Per-name weight overrides. Names not present keep their default.
	Weights map[string]int

	// Names of the layouts in the restricted subset. Nil keeps the
	// default (the five and six pane layouts).
	Restricted []string
} // }}}
