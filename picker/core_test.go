package picker

import (
	"fmt"
	"image"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rotation/classify"
	"rotation/layout"
	"rotation/types"
)

var testDay = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

// func newTestPicker {{{

func newTestPicker(seed int64) *Picker {
	l := zerolog.Nop()

	return New(DefaultParams(), rand.New(rand.NewSource(seed)), &l)
} // }}}

// func wide {{{

// A 16:9 photo taken well outside any recency window.
func wide(path string) *types.Photo {
	return &types.Photo{
		Path:     path,
		Width:    1920,
		Height:   1080,
		Taken:    time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC),
		Category: classify.CatWide16x9,
	}
} // }}}

// func widePane {{{

func widePane(name string, w, h int) layout.Pane {
	return layout.Pane{
		Name:       name,
		Rect:       image.Rect(0, 0, w, h),
		Categories: []classify.Category{classify.CatWide16x9},
	}
} // }}}

func TestAssignEmptyLibrary(t *testing.T) {
	pk := newTestPicker(1)

	lay := &layout.Layout{Name: "test", Panes: []layout.Pane{widePane("main", 1920, 1080)}}

	if _, err := pk.Assign(lay, nil, testDay); err != types.ErrNoPhotos {
		t.Fatalf("Expected ErrNoPhotos != Got %v", err)
	}

	empty := map[classify.Category][]*types.Photo{classify.CatSquare: {}}

	if _, err := pk.Assign(lay, empty, testDay); err != types.ErrNoPhotos {
		t.Fatalf("Expected ErrNoPhotos != Got %v", err)
	}
}

func TestAssignUniquePerPane(t *testing.T) {
	pk := newTestPicker(2)

	lay := &layout.Layout{Name: "grid", Panes: []layout.Pane{
		widePane("a", 960, 540),
		widePane("b", 960, 540),
		widePane("c", 960, 540),
		widePane("d", 960, 540),
	}}

	buckets := map[classify.Category][]*types.Photo{}
	for i := 0; i < 6; i++ {
		buckets[classify.CatWide16x9] = append(buckets[classify.CatWide16x9], wide(fmt.Sprintf("w%d.jpg", i)))
	}

	for run := 0; run < 20; run++ {
		res, err := pk.Assign(lay, buckets, testDay)
		if err != nil {
			t.Fatalf("run %d: Assign: %v", run, err)
		}

		if len(res.Photos) != 4 {
			t.Fatalf("run %d: Expected 4 panes filled, got %d", run, len(res.Photos))
		}

		seen := make(map[string]string, 4)
		for pane, ph := range res.Photos {
			if prev, ok := seen[ph.Path]; ok {
				t.Fatalf("run %d: %s in both %s and %s", run, ph.Path, prev, pane)
			}
			seen[ph.Path] = pane
		}
	}
}

func TestAssignPrefersShownOverRepeat(t *testing.T) {
	pk := newTestPicker(11)

	lay := &layout.Layout{Name: "pair", Panes: []layout.Pane{
		widePane("a", 960, 540),
		widePane("b", 960, 540),
	}}

	buckets := map[classify.Category][]*types.Photo{
		classify.CatWide16x9: {wide("w0.jpg"), wide("w1.jpg"), wide("w2.jpg")},
	}

	// Two of the three already shown in earlier rotations. The one unshown
	// photo can only cover one pane - the other has to fall back to a
	// shown photo rather then duplicating within the frame.
	pk.markUsed(buckets[classify.CatWide16x9][0])
	pk.markUsed(buckets[classify.CatWide16x9][1])

	for run := 0; run < 20; run++ {
		res, err := pk.Assign(lay, buckets, testDay)
		if err != nil {
			t.Fatalf("run %d: Assign: %v", run, err)
		}

		a, b := res.Photos["a"], res.Photos["b"]

		if a == nil || b == nil {
			t.Fatalf("run %d: pane left empty: %v", run, res.Photos)
		}

		if a.Path == b.Path {
			t.Fatalf("run %d: %s on both panes with unshown photos left", run, a.Path)
		}
	}
}

func TestAssignPoolReset(t *testing.T) {
	pk := newTestPicker(3)

	lay := &layout.Layout{Name: "single", Panes: []layout.Pane{widePane("main", 1920, 1080)}}

	a := wide("a.jpg")
	b := wide("b.jpg")

	buckets := map[classify.Category][]*types.Photo{
		classify.CatWide16x9: {a, b},
	}

	// Two photos, six selections. Exhausting the category resets its used
	// set, so every pair of selections covers both photos - three each.
	counts := map[string]int{}

	for i := 0; i < 6; i++ {
		res, err := pk.Assign(lay, buckets, testDay)
		if err != nil {
			t.Fatalf("selection %d: %v", i, err)
		}

		counts[res.Photos["main"].Path]++
	}

	if counts["a.jpg"] != 3 || counts["b.jpg"] != 3 {
		t.Fatalf("reset did not balance selection: %v", counts)
	}
}

func TestAssignRecencyWeighting(t *testing.T) {
	pk := newTestPicker(4)

	lay := &layout.Layout{Name: "single", Panes: []layout.Pane{widePane("main", 1920, 1080)}}

	// One photo taken around this date years ago, nine far from it.
	boosted := wide("boosted.jpg")
	boosted.Taken = time.Date(2020, 8, 27, 0, 0, 0, 0, time.UTC)

	buckets := map[classify.Category][]*types.Photo{
		classify.CatWide16x9: {boosted},
	}

	for i := 0; i < 9; i++ {
		buckets[classify.CatWide16x9] = append(buckets[classify.CatWide16x9], wide(fmt.Sprintf("plain%d.jpg", i)))
	}

	hits := 0
	runs := 3000

	for i := 0; i < runs; i++ {
		// Reset each time so repetition reduction does not flatten the
		// distribution we are measuring.
		pk.Reset()

		res, err := pk.Assign(lay, buckets, testDay)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}

		if res.Photos["main"].Path == "boosted.jpg" {
			hits++
		}
	}

	// Weight 3 of 12 total is an expected hit rate of 1 in 4. A plain
	// photo would sit at 1 in 12. Anything above 1 in 6 shows the boost
	// clearly without being flaky.
	if hits < runs/6 {
		t.Fatalf("recency boost missing: %d hits out of %d", hits, runs)
	}
}

func TestAssignCropBudget(t *testing.T) {
	pk := newTestPicker(5)

	lay := &layout.Layout{Name: "single", Panes: []layout.Pane{widePane("main", 1920, 1080)}}

	// One photo fits the pane exactly, the other would crop far past the
	// budget. The alternative search has to settle on the good one.
	good := wide("good.jpg")

	bad := wide("bad.jpg")
	bad.Width = 1440
	bad.Height = 1080

	buckets := map[classify.Category][]*types.Photo{
		classify.CatWide16x9: {good, bad},
	}

	for i := 0; i < 10; i++ {
		pk.Reset()

		res, err := pk.Assign(lay, buckets, testDay)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}

		if res.Degraded {
			t.Fatalf("run %d: degraded with a fitting photo available", i)
		}

		if got := res.Photos["main"].Path; got != "good.jpg" {
			t.Fatalf("run %d: Expected good.jpg != Got %s", i, got)
		}

		if res.MaxCrop > pk.pa.CropMax {
			t.Fatalf("run %d: crop %f over budget", i, res.MaxCrop)
		}
	}
}

func TestAssignDegradedWhenNothingFits(t *testing.T) {
	pk := newTestPicker(6)

	lay := &layout.Layout{Name: "single", Panes: []layout.Pane{widePane("main", 1920, 1080)}}

	// Only badly fitting photos. The frame still has to fill, flagged.
	bad := wide("bad.jpg")
	bad.Width = 1440
	bad.Height = 1080

	buckets := map[classify.Category][]*types.Photo{
		classify.CatWide16x9: {bad},
	}

	res, err := pk.Assign(lay, buckets, testDay)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if !res.Degraded {
		t.Fatalf("Expected Degraded")
	}

	if res.Photos["main"] == nil {
		t.Fatalf("pane left empty")
	}
}

func TestAssignUltraWideExempt(t *testing.T) {
	pk := newTestPicker(7)

	lay := &layout.Layout{Name: "single", Panes: []layout.Pane{
		{
			Name:       "main",
			Rect:       image.Rect(0, 0, 1920, 1080),
			Categories: []classify.Category{classify.CatUltraWide},
		},
	}}

	// An ultra-wide photo mismatches the pane ratio far past the budget,
	// but letterboxing makes that free - never degraded.
	uw := &types.Photo{Path: "uw.jpg", Width: 2560, Height: 1080, Category: classify.CatUltraWide}

	buckets := map[classify.Category][]*types.Photo{
		classify.CatUltraWide: {uw},
	}

	res, err := pk.Assign(lay, buckets, testDay)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if res.Degraded {
		t.Fatalf("ultra-wide photo flagged degraded")
	}

	if res.MaxCrop != 0 {
		t.Fatalf("ultra-wide photo counted toward crop: %f", res.MaxCrop)
	}
}

// func dualLayout {{{

// The square + 4:3 vertical pair with pane shapes both categories fit.
func dualLayout() *layout.Layout {
	return &layout.Layout{
		Name: "dual",
		Panes: []layout.Pane{
			{
				Name:       "left",
				Rect:       image.Rect(0, 0, 1080, 1080),
				Categories: []classify.Category{classify.CatSquare},
			},
			{
				Name:       "right",
				Rect:       image.Rect(1080, 0, 1920, 1080),
				Categories: []classify.Category{classify.CatTall4x3},
			},
		},
	}
} // }}}

func TestAssignDualPane(t *testing.T) {
	pk := newTestPicker(8)

	lay := dualLayout()

	buckets := map[classify.Category][]*types.Photo{
		classify.CatSquare: {
			{Path: "sq1.jpg", Width: 1000, Height: 1000, Category: classify.CatSquare},
			{Path: "sq2.jpg", Width: 1200, Height: 1200, Category: classify.CatSquare},
		},
		classify.CatTall4x3: {
			{Path: "ta1.jpg", Width: 1200, Height: 1600, Category: classify.CatTall4x3},
			{Path: "ta2.jpg", Width: 900, Height: 1200, Category: classify.CatTall4x3},
		},
	}

	for run := 0; run < 10; run++ {
		pk.Reset()

		res, err := pk.Assign(lay, buckets, testDay)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}

		if res.Degraded {
			t.Fatalf("run %d: degraded with fitting pairs available", run)
		}

		// A validated pair can only sit one way around - the square photo
		// in the square pane, the vertical in the narrow one.
		left, right := res.Photos["left"], res.Photos["right"]

		if left == nil || right == nil {
			t.Fatalf("run %d: pane left empty: %v", run, res.Photos)
		}

		if left.Category != classify.CatSquare || right.Category != classify.CatTall4x3 {
			t.Fatalf("run %d: wrong categories: left %s right %s", run, left.Category, right.Category)
		}

		if left.Path == right.Path {
			t.Fatalf("run %d: same photo in both panes", run)
		}
	}
}

func TestAssignDualFallsBackWhenShort(t *testing.T) {
	pk := newTestPicker(9)

	lay := dualLayout()

	// No vertical photos at all - the special path cannot run, the
	// default one still fills both panes from what exists.
	buckets := map[classify.Category][]*types.Photo{
		classify.CatSquare: {
			{Path: "sq1.jpg", Width: 1000, Height: 1000, Category: classify.CatSquare},
			{Path: "sq2.jpg", Width: 1100, Height: 1100, Category: classify.CatSquare},
		},
	}

	res, err := pk.Assign(lay, buckets, testDay)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if len(res.Photos) != 2 {
		t.Fatalf("Expected 2 panes filled, got %d", len(res.Photos))
	}

	// Borrowing from the wrong category is a degraded frame.
	if !res.Degraded {
		t.Fatalf("Expected Degraded")
	}
}

func TestReset(t *testing.T) {
	pk := newTestPicker(10)

	lay := &layout.Layout{Name: "single", Panes: []layout.Pane{widePane("main", 1920, 1080)}}

	buckets := map[classify.Category][]*types.Photo{
		classify.CatWide16x9: {wide("a.jpg"), wide("b.jpg")},
	}

	if _, err := pk.Assign(lay, buckets, testDay); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if len(pk.used) < 1 {
		t.Fatalf("nothing marked used")
	}

	pk.Reset()

	if len(pk.used) != 0 {
		t.Fatalf("Reset left state behind: %v", pk.used)
	}
}
