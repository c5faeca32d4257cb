package layout

import (
	"image"

	"rotation/classify"
)

// Multi-pane layouts need at least this much screen to be worth showing.
const (
	minMultiWidth  = 1920
	minMultiHeight = 1080
)

// The default weight distribution, heavily skewed toward the single pane.
// These are overridable per name through Options.Weights.
var defaultWeights = map[string]int{
	SinglePane:    70,
	TwoPhotos:     8,
	ThreeVertical: 5,
	ThreeMixed:    8,
	FourPhotos:    4,
	FivePhotos:    4,
	SixPhotos:     1,
}

// The busiest arrangements sit in the restricted subset by default, so the
// display is not wall-to-wall thumbnails several rotations in a row.
var defaultRestricted = []string{FivePhotos, SixPhotos}

// func split {{{

// Splits total pixels by the given fractions, handing any rounding
// remainder to the last part so the parts always sum to total exactly.
//
// The fractions must sum to 1.0 - that is the catalog's tiling invariant,
// the rounding here only redistributes sub-pixel error.
func split(total int, fracs ...float64) []int {
	out := make([]int, len(fracs))

	used := 0
	for i, fr := range fracs {
		if i == len(fracs)-1 {
			out[i] = total - used
			break
		}

		out[i] = int(float64(total) * fr)
		used += out[i]
	}

	return out
} // }}}

// func Build {{{

// Builds the layout catalog for a screen resolution.
//
// Single Pane is always present. The multi-pane layouts only appear at
// minMultiWidth x minMultiHeight or better - below that, panes get too
// small to be anything but clutter.
//
// Build is pure - calling it twice with the same arguments produces
// structurally identical catalogs.
func Build(screenW, screenH int, opts Options) []*Layout {
	if screenW < 1 || screenH < 1 {
		return nil
	}

	var lays []*Layout

	full := image.Rect(0, 0, screenW, screenH)

	// The full-screen pane takes the non-vertical categories, verticals
	// would lose most of their pixels to the crop.
	lays = append(lays, &Layout{
		Name: SinglePane,
		Panes: []Pane{
			{
				Name: "main",
				Rect: full,
				Categories: []classify.Category{
					classify.CatUltraWide,
					classify.CatWide16x9,
					classify.CatWide4x3,
					classify.CatSquare,
				},
			},
		},
	})

	if screenW >= minMultiWidth && screenH >= minMultiHeight {
		lays = append(lays,
			buildTwoPhotos(screenW, screenH),
			buildThreeVertical(screenW, screenH),
			buildThreeMixed(screenW, screenH),
			buildFourPhotos(screenW, screenH),
			buildFivePhotos(screenW, screenH),
			buildSixPhotos(screenW, screenH),
		)
	}

	// Now apply weights and the restricted subset.
	restricted := opts.Restricted
	if restricted == nil {
		restricted = defaultRestricted
	}

	for _, lay := range lays {
		lay.Weight = defaultWeights[lay.Name]

		if opts.Weights != nil {
			if w, ok := opts.Weights[lay.Name]; ok {
				lay.Weight = w
			}
		}

		for _, name := range restricted {
			if lay.Name == name {
				lay.Restricted = true
				break
			}
		}
	}

	return lays
} // }}}

// func buildTwoPhotos {{{

// A 60/40 vertical split.
//
// The two panes declare exactly one category each - square on the wide
// side, 4:3 vertical on the narrow one. That exact pair is what triggers
// the picker's independent-draw special case.
func buildTwoPhotos(w, h int) *Layout {
	cols := split(w, 0.6, 0.4)

	return &Layout{
		Name: TwoPhotos,
		Panes: []Pane{
			{
				Name:       "left",
				Rect:       image.Rect(0, 0, cols[0], h),
				Categories: []classify.Category{classify.CatSquare},
			},
			{
				Name:       "right",
				Rect:       image.Rect(cols[0], 0, w, h),
				Categories: []classify.Category{classify.CatTall4x3},
			},
		},
	}
} // }}}

// func buildThreeVertical {{{

// Three full-height columns.
func buildThreeVertical(w, h int) *Layout {
	third := 1.0 / 3.0
	cols := split(w, third, third, third)

	cats := []classify.Category{classify.CatTall16x9, classify.CatTall4x3}

	x := 0
	panes := make([]Pane, 0, 3)

	for i, name := range []string{"left", "center", "right"} {
		panes = append(panes, Pane{
			Name:       name,
			Rect:       image.Rect(x, 0, x+cols[i], h),
			Categories: cats,
		})
		x += cols[i]
	}

	return &Layout{Name: ThreeVertical, Panes: panes}
} // }}}

// func buildThreeMixed {{{

// One large pane on the left two thirds, two stacked on the right third.
func buildThreeMixed(w, h int) *Layout {
	cols := split(w, 2.0/3.0, 1.0/3.0)
	rows := split(h, 0.5, 0.5)

	cats := []classify.Category{classify.CatWide4x3, classify.CatSquare}

	return &Layout{
		Name: ThreeMixed,
		Panes: []Pane{
			{
				Name:       "main",
				Rect:       image.Rect(0, 0, cols[0], h),
				Categories: cats,
			},
			{
				Name:       "top_right",
				Rect:       image.Rect(cols[0], 0, w, rows[0]),
				Categories: cats,
			},
			{
				Name:       "bottom_right",
				Rect:       image.Rect(cols[0], rows[0], w, h),
				Categories: cats,
			},
		},
	}
} // }}}

// func buildFourPhotos {{{

// A 2x2 grid. Each cell keeps the screen's own 16:9-ish shape.
func buildFourPhotos(w, h int) *Layout {
	cols := split(w, 0.5, 0.5)
	rows := split(h, 0.5, 0.5)

	cats := []classify.Category{classify.CatWide16x9, classify.CatWide4x3}

	return &Layout{
		Name: FourPhotos,
		Panes: []Pane{
			{Name: "top_left", Rect: image.Rect(0, 0, cols[0], rows[0]), Categories: cats},
			{Name: "top_right", Rect: image.Rect(cols[0], 0, w, rows[0]), Categories: cats},
			{Name: "bottom_left", Rect: image.Rect(0, rows[0], cols[0], h), Categories: cats},
			{Name: "bottom_right", Rect: image.Rect(cols[0], rows[0], w, h), Categories: cats},
		},
	}
} // }}}

// func buildFivePhotos {{{

// Two halves on top, three thirds below.
func buildFivePhotos(w, h int) *Layout {
	topCols := split(w, 0.5, 0.5)
	third := 1.0 / 3.0
	botCols := split(w, third, third, third)
	rows := split(h, 0.5, 0.5)

	wide := []classify.Category{classify.CatWide16x9, classify.CatWide4x3}
	squat := []classify.Category{classify.CatWide4x3, classify.CatSquare}

	panes := []Pane{
		{Name: "top_left", Rect: image.Rect(0, 0, topCols[0], rows[0]), Categories: wide},
		{Name: "top_right", Rect: image.Rect(topCols[0], 0, w, rows[0]), Categories: wide},
	}

	x := 0
	for i, name := range []string{"bottom_left", "bottom_center", "bottom_right"} {
		panes = append(panes, Pane{
			Name:       name,
			Rect:       image.Rect(x, rows[0], x+botCols[i], h),
			Categories: squat,
		})
		x += botCols[i]
	}

	return &Layout{Name: FivePhotos, Panes: panes}
} // }}}

// func buildSixPhotos {{{

// A 3x2 grid.
func buildSixPhotos(w, h int) *Layout {
	third := 1.0 / 3.0
	cols := split(w, third, third, third)
	rows := split(h, 0.5, 0.5)

	cats := []classify.Category{classify.CatWide4x3, classify.CatSquare}

	names := [][]string{
		{"top_left", "top_center", "top_right"},
		{"bottom_left", "bottom_center", "bottom_right"},
	}

	panes := make([]Pane, 0, 6)

	y := 0
	for r := 0; r < 2; r++ {
		x := 0
		for c := 0; c < 3; c++ {
			panes = append(panes, Pane{
				Name:       names[r][c],
				Rect:       image.Rect(x, y, x+cols[c], y+rows[r]),
				Categories: cats,
			})
			x += cols[c]
		}
		y += rows[r]
	}

	return &Layout{Name: SixPhotos, Panes: panes}
} // }}}
