// Pure fit planning.
//
// Given a photo's native dimensions and a pane's rectangle, work out how the
// photo has to be scaled and cropped (or letterboxed) to fill that pane.
// No pixels are touched here - the render package applies the plan.
package geometry

import (
	"image"
)

// type Plan struct {{{

// How to place one photo into one pane.
//
// For Letterbox plans the photo is scaled to ScaledW x ScaledH and centered
// in the pane, margins left as fill color. Otherwise the photo is scaled to
// ScaledW x ScaledH and Crop (in scaled-image coordinates) is drawn at the
// pane origin.
type Plan struct {
	// Scale factor from native to scaled dimensions.
	Scale float64

	// The photo's dimensions after scaling.
	ScaledW int
	ScaledH int

	// Letterbox means fit entirely inside the pane, no cropping.
	Letterbox bool

	// The region of the scaled image to display. Ignored for Letterbox.
	Crop image.Rectangle

	// Set when even the clamped crop is smaller then the pane and the
	// remainder needs to be padded with fill color rather then failing.
	Pad bool
} // }}}

// func Fit {{{

// Builds the plan for displaying a photoW x photoH photo in a paneW x paneH
// pane.
//
// Ultra-wide photos always letterbox - they keep every pixel and accept the
// margins. Everything else covers the pane fully and gives up a symmetric
// border instead.
func Fit(photoW, photoH, paneW, paneH int, ultraWide bool) Plan {
	// Broken input gets a do-nothing pad plan rather then a panic,
	// the renderer just fills the pane.
	if photoW <= 0 || photoH <= 0 || paneW <= 0 || paneH <= 0 {
		return Plan{Pad: true}
	}

	dx := float64(paneW) / float64(photoW)
	dy := float64(paneH) / float64(photoH)

	if ultraWide {
		// Scale by the smaller factor so both dimensions fit inside.
		by := dx
		if dy < dx {
			by = dy
		}

		return Plan{
			Scale:     by,
			ScaledW:   int(float64(photoW) * by),
			ScaledH:   int(float64(photoH) * by),
			Letterbox: true,
		}
	}

	// Cover - scale by the larger factor so both dimensions are at least
	// the pane's.
	by := dx
	if dy > dx {
		by = dy
	}

	// Round up, never down. A scaled dimension 1 pixel short of the pane
	// would leave an uncovered line.
	sw := ceilMul(photoW, by)
	sh := ceilMul(photoH, by)

	pl := Plan{
		Scale:   by,
		ScaledW: sw,
		ScaledH: sh,
	}

	// Center the pane-sized crop within the scaled image.
	x0 := (sw - paneW) / 2
	y0 := (sh - paneH) / 2
	pl.Crop = image.Rect(x0, y0, x0+paneW, y0+paneH)

	// Rounding should make this impossible, but if the crop pokes outside
	// the scaled image anyway, clamp it back in and re-center.
	if pl.Crop.Min.X < 0 || pl.Crop.Min.Y < 0 || pl.Crop.Max.X > sw || pl.Crop.Max.Y > sh {
		pl.Crop = clampCenter(pl.Crop, sw, sh)

		// Still smaller then the pane? Then the renderer pads.
		if pl.Crop.Dx() < paneW || pl.Crop.Dy() < paneH {
			pl.Pad = true
		}
	}

	return pl
} // }}}

// func ceilMul {{{

func ceilMul(v int, by float64) int {
	f := float64(v) * by
	i := int(f)

	if f > float64(i) {
		i++
	}

	return i
} // }}}

// func clampCenter {{{

// Clamps r into a (0,0)-(w,h) box, keeping it as centered as the bounds
// allow.
func clampCenter(r image.Rectangle, w, h int) image.Rectangle {
	rw := r.Dx()
	rh := r.Dy()

	if rw > w {
		rw = w
	}

	if rh > h {
		rh = h
	}

	x0 := (w - rw) / 2
	y0 := (h - rh) / 2

	return image.Rect(x0, y0, x0+rw, y0+rh)
} // }}}
