package classify

import (
	"testing"
)

type classifyTest struct {
	Width    int
	Height   int
	Expected Category
}

func TestClassify(t *testing.T) {
	// Our tests to run.
	tests := []classifyTest{
		// The common screen and camera shapes.
		{1920, 1080, CatWide16x9},
		{3840, 2160, CatWide16x9},
		{1080, 1920, CatTall16x9},
		{1600, 1200, CatWide4x3},
		{1200, 1600, CatTall4x3},
		{1000, 1000, CatSquare},
		{2560, 1080, CatUltraWide},
		{3440, 1440, CatUltraWide},

		// Near misses still inside tolerance.
		{1900, 1080, CatWide16x9},
		{1100, 1000, CatSquare},

		// Extreme shapes match nothing.
		{5000, 500, CatUnknown},
		{500, 5000, CatUnknown},

		// Broken dimensions.
		{0, 1080, CatUnknown},
		{1920, 0, CatUnknown},
		{-100, 100, CatUnknown},
	}

	for _, test := range tests {
		got := Classify(test.Width, test.Height)
		if got != test.Expected {
			t.Fatalf("Classify(%d, %d): Expected %s != Got %s", test.Width, test.Height, test.Expected, got)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	// The same dimensions always land in the same category, no matter how
	// many times we ask.
	for i := 0; i < 100; i++ {
		if got := Classify(1920, 1080); got != CatWide16x9 {
			t.Fatalf("run %d: Expected %s != Got %s", i, CatWide16x9, got)
		}
	}
}

func TestCategories(t *testing.T) {
	cats := Categories()

	if len(cats) != 6 {
		t.Fatalf("Expected 6 categories, got %d", len(cats))
	}

	// Unknown is terminal, never in the classifiable list.
	for _, cat := range cats {
		if cat == CatUnknown {
			t.Fatalf("Categories() contains %s", CatUnknown)
		}
	}
}

func TestTolerance(t *testing.T) {
	// Ultra-wide carries the loosest tolerance of the lot.
	if Tolerance(CatUltraWide) <= Tolerance(CatSquare) {
		t.Fatalf("ultra_wide tolerance %f not above square %f", Tolerance(CatUltraWide), Tolerance(CatSquare))
	}

	if Tolerance(CatUnknown) != 0 {
		t.Fatalf("unknown tolerance: Expected 0 != Got %f", Tolerance(CatUnknown))
	}
}
