package geometry

import (
	"image"
	"testing"
)

type fitTest struct {
	PhotoW, PhotoH int
	PaneW, PaneH   int
	UltraWide      bool

	Letterbox bool
	ScaledW   int
	ScaledH   int
}

func TestFit(t *testing.T) {
	// Our tests to run.
	tests := []fitTest{
		// Exact shape match, scale only.
		{3840, 2160, 1920, 1080, false, false, 1920, 1080},

		// A 4:3 photo covering a 16:9 pane scales by width.
		{1600, 1200, 1920, 1080, false, false, 1920, 1440},

		// A vertical photo covering a vertical pane.
		{1200, 1600, 640, 1080, false, false, 810, 1080},

		// Ultra-wide letterboxes inside the pane.
		{2560, 1080, 1920, 1080, true, true, 1920, 810},

		// Ultra-wide in a pane wider then the photo shape still fits both
		// dimensions.
		{3600, 1500, 1800, 1080, true, true, 1800, 750},
	}

	for _, test := range tests {
		pl := Fit(test.PhotoW, test.PhotoH, test.PaneW, test.PaneH, test.UltraWide)

		if pl.Letterbox != test.Letterbox {
			t.Logf("Test: %#v", test)
			t.Fatalf("Letterbox: Expected %v != Got %v", test.Letterbox, pl.Letterbox)
		}

		if pl.ScaledW != test.ScaledW || pl.ScaledH != test.ScaledH {
			t.Logf("Test: %#v", test)
			t.Fatalf("Scaled: Expected %dx%d != Got %dx%d", test.ScaledW, test.ScaledH, pl.ScaledW, pl.ScaledH)
		}
	}
}

func TestFitCoverCrop(t *testing.T) {
	// Cover plans must produce a crop of exactly the pane size, inside the
	// scaled image bounds.
	dims := [][4]int{
		{3000, 2000, 1920, 1080},
		{1200, 1600, 640, 1080},
		{1000, 1000, 1152, 1080},
		{4000, 3000, 960, 540},
		{333, 777, 640, 1080},
	}

	for _, d := range dims {
		pl := Fit(d[0], d[1], d[2], d[3], false)

		if pl.Pad {
			t.Fatalf("Fit(%v): unexpected Pad", d)
		}

		if pl.Crop.Dx() != d[2] || pl.Crop.Dy() != d[3] {
			t.Fatalf("Fit(%v): crop %v is not pane sized", d, pl.Crop)
		}

		bounds := image.Rect(0, 0, pl.ScaledW, pl.ScaledH)
		if !pl.Crop.In(bounds) {
			t.Fatalf("Fit(%v): crop %v outside scaled bounds %v", d, pl.Crop, bounds)
		}
	}
}

func TestFitBrokenInput(t *testing.T) {
	tests := [][4]int{
		{0, 1000, 1920, 1080},
		{1000, 0, 1920, 1080},
		{1000, 1000, 0, 1080},
		{1000, 1000, 1920, -5},
	}

	for _, d := range tests {
		pl := Fit(d[0], d[1], d[2], d[3], false)

		if !pl.Pad {
			t.Fatalf("Fit(%v): Expected Pad plan, got %#v", d, pl)
		}

		if pl.ScaledW != 0 || pl.ScaledH != 0 {
			t.Fatalf("Fit(%v): broken input produced scale %dx%d", d, pl.ScaledW, pl.ScaledH)
		}
	}
}
