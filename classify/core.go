// Aspect ratio classification.
//
// Every photo in the library gets classified exactly once, at scan time, into
// one of a fixed set of aspect categories. Layout panes then declare which
// categories they accept, so all of selection works on these buckets rather
// than raw pixel dimensions.
package classify

// The category a photo's aspect ratio falls into.
//
// The string values are what shows up in configuration files and logs, so
// they are part of the external format and should not change.
type Category string

const (
	CatUltraWide Category = "ultra_wide"
	CatWide16x9  Category = "16:9_landscape"
	CatTall16x9  Category = "16:9_vertical"
	CatWide4x3   Category = "4:3_landscape"
	CatTall4x3   Category = "4:3_vertical"
	CatSquare    Category = "square"

	// Not a failure - photos that fit no category within tolerance are
	// still valid, they just only ever display in panes that accept
	// everything.
	CatUnknown Category = "unknown"
)

// type target struct {{{

type target struct {
	cat   Category
	ratio float64
	tol   float64
} // }}}

// The candidate categories, in declaration order.
//
// Order matters twice - it decides ties when two targets are equally close,
// and it is the order Categories() hands back.
//
// This is a slice and not a map on purpose, map iteration order would make
// Classify() nondeterministic on exact ties.
var targets = []target{
	{CatUltraWide, 21.0 / 9.0, 0.3},
	{CatWide16x9, 16.0 / 9.0, 0.25},
	{CatTall16x9, 9.0 / 16.0, 0.2},
	{CatWide4x3, 4.0 / 3.0, 0.2},
	{CatTall4x3, 3.0 / 4.0, 0.2},
	{CatSquare, 1.0, 0.2},
}

// func Classify {{{

// Returns the category for the given pixel dimensions.
//
// Pure and total - any input gets a category back, with anything
// unclassifiable (including zero or negative dimensions) being CatUnknown.
func Classify(width, height int) Category {
	if width <= 0 || height <= 0 {
		return CatUnknown
	}

	actual := float64(width) / float64(height)

	best := CatUnknown
	bestDiff := 0.0
	bestTol := 0.0

	for _, ta := range targets {
		diff := actual - ta.ratio
		if diff < 0 {
			diff = -diff
		}

		// Strictly less - on an exact tie the earlier declared target
		// keeps the win.
		if best == CatUnknown || diff < bestDiff {
			best = ta.cat
			bestDiff = diff
			bestTol = ta.tol
		}
	}

	// Closest target still has to actually be close enough.
	if bestDiff > bestTol {
		return CatUnknown
	}

	return best
} // }}}

// func Categories {{{

// All real categories in declaration order.
//
// CatUnknown is not included, nothing selects for it directly.
func Categories() []Category {
	out := make([]Category, 0, len(targets))

	for _, ta := range targets {
		out = append(out, ta.cat)
	}

	return out
} // }}}

// func Tolerance {{{

// Returns the tolerance for a category, or 0 for one we do not know.
func Tolerance(cat Category) float64 {
	for _, ta := range targets {
		if ta.cat == cat {
			return ta.tol
		}
	}

	return 0
} // }}}
