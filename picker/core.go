package picker

import (
	"math"
	"time"

	"rotation/classify"
	"rotation/layout"
	"rotation/types"
)

// func Picker.Assign {{{

// Assigns one photo to every pane of the layout.
//
// This never fails for quality reasons - a poorly-fitting assignment comes
// back with Degraded set rather then an error. The only error conditions
// are an empty library (types.ErrNoPhotos) and a layout with no panes.
//
// today anchors the recency window, passed in rather then read from the
// clock so the engine controls time.
func (pk *Picker) Assign(lay *layout.Layout, buckets map[classify.Category][]*types.Photo, today time.Time) (*Result, error) {
	fl := pk.l.With().Str("func", "Assign").Str("layout", lay.Name).Logger()

	if len(lay.Panes) < 1 {
		return nil, types.ErrNoLayouts
	}

	total := 0
	for _, ph := range buckets {
		total += len(ph)
	}

	if total < 1 {
		return nil, types.ErrNoPhotos
	}

	win := newWindow(today, pk.pa.WindowDays)

	// The two-pane square + vertical layout gets its own selection path.
	// When either category is empty it falls through to the normal one.
	if isDualPair(lay) {
		if res, ok := pk.assignDual(lay, buckets, win); ok {
			return res, nil
		}

		fl.Debug().Msg("dual pair short a category, using default selection")
	}

	photos, degraded := pk.assignOnce(lay, buckets, win, nil)

	ok, maxCrop := validate(lay, photos, pk.pa.CropMax)

	if !ok {
		photos, degraded, maxCrop = pk.alternatives(lay, buckets, win, photos, maxCrop)
	}

	for _, ph := range photos {
		pk.markUsed(ph)
	}

	if degraded {
		fl.Info().Float64("maxCrop", maxCrop).Msg("degraded assignment")
	}

	return &Result{Photos: photos, Degraded: degraded, MaxCrop: maxCrop}, nil
} // }}}

// func isDualPair {{{

// The special pair is exactly two panes whose accepted categories union to
// exactly {square, 4:3 vertical}.
func isDualPair(lay *layout.Layout) bool {
	if len(lay.Panes) != 2 {
		return false
	}

	union := make(map[classify.Category]struct{}, 2)
	for _, pa := range lay.Panes {
		for _, cat := range pa.Categories {
			union[cat] = struct{}{}
		}
	}

	if len(union) != 2 {
		return false
	}

	_, sq := union[classify.CatSquare]
	_, ta := union[classify.CatTall4x3]

	return sq && ta
} // }}}

// func Picker.available {{{

// The photos of a category not yet shown.
//
// When the whole bucket has been shown the used set resets and the full
// bucket comes back - the rotation starts over rather then starving.
func (pk *Picker) available(cat classify.Category, buckets map[classify.Category][]*types.Photo) []*types.Photo {
	bucket := buckets[cat]
	if len(bucket) < 1 {
		return nil
	}

	set := pk.used[cat]

	avail := make([]*types.Photo, 0, len(bucket)-len(set))
	for _, ph := range bucket {
		if _, ok := set[ph.Path]; !ok {
			avail = append(avail, ph)
		}
	}

	if len(avail) < 1 {
		pk.l.Debug().Str("category", string(cat)).Msg("category exhausted, resetting")
		delete(pk.used, cat)

		avail = append(avail, bucket...)
	}

	return avail
} // }}}

// func Picker.candidates {{{

// The candidate pool for one pane - every available photo of every
// accepted category, minus the skip set, with a parallel weight slice for
// the sampler. Photos taken around this date, any year, weigh more.
func (pk *Picker) candidates(pane *layout.Pane, buckets map[classify.Category][]*types.Photo, win window, skip map[string]struct{}) ([]*types.Photo, []int) {
	var pool []*types.Photo

	for _, cat := range pane.Categories {
		for _, ph := range pk.available(cat, buckets) {
			if skip != nil {
				if _, ok := skip[ph.Path]; ok {
					continue
				}
			}

			pool = append(pool, ph)
		}
	}

	weights := make([]int, len(pool))
	for i, ph := range pool {
		if win.In(ph.Taken) {
			weights[i] = pk.pa.Multiplier
		} else {
			weights[i] = 1
		}
	}

	return pool, weights
} // }}}

// func Picker.drawPane {{{

// Draws one photo for a pane, avoiding anything already placed in this
// assignment.
//
// Weighted draws first, up to DrawCap. Past that a linear scan takes the
// first unplaced candidate, then the pool widens to photos already shown
// in earlier rotations, and only as the very last resort does a photo
// repeat within the layout - reuse beats an empty pane. Returns nil only
// when the pane's categories have no photos at all.
func (pk *Picker) drawPane(pane *layout.Pane, buckets map[classify.Category][]*types.Photo, win window, placed map[string]struct{}, skip map[string]struct{}) (*types.Photo, bool) {
	pool, weights := pk.candidates(pane, buckets, win, skip)

	if len(pool) < 1 && skip != nil {
		// The skip set can empty a pool that otherwise has photos.
		pool, weights = pk.candidates(pane, buckets, win, nil)
	}

	if len(pool) < 1 {
		return nil, false
	}

	sa := layout.NewSampler(weights)

	for i := 0; i < pk.pa.DrawCap; i++ {
		ph := pool[sa.Pick(pk.rng)]

		if _, ok := placed[ph.Path]; !ok {
			return ph, false
		}
	}

	for _, ph := range pool {
		if _, ok := placed[ph.Path]; !ok {
			return ph, false
		}
	}

	// Everything unshown is already on this layout. Photos shown in
	// earlier rotations are still better then repeating one within the
	// frame, so widen to the full buckets before reusing.
	var shown []*types.Photo

	for _, cat := range pane.Categories {
		for _, ph := range buckets[cat] {
			if _, ok := placed[ph.Path]; !ok {
				shown = append(shown, ph)
			}
		}
	}

	if len(shown) > 0 {
		return shown[pk.rng.Intn(len(shown))], false
	}

	// Every photo the pane accepts is already on screen.
	return pool[pk.rng.Intn(len(pool))], true
} // }}}

// func Picker.assignOnce {{{

// One complete pass over the panes.
//
// A pane whose categories are all empty borrows from the rest of the
// library rather then going dark - the library is known non-empty by the
// time this runs.
func (pk *Picker) assignOnce(lay *layout.Layout, buckets map[classify.Category][]*types.Photo, win window, skip map[string]struct{}) (map[string]*types.Photo, bool) {
	fl := pk.l.With().Str("func", "assignOnce").Str("layout", lay.Name).Logger()

	photos := make(map[string]*types.Photo, len(lay.Panes))
	placed := make(map[string]struct{}, len(lay.Panes))

	degraded := false

	for i := range lay.Panes {
		pane := &lay.Panes[i]

		ph, reused := pk.drawPane(pane, buckets, win, placed, skip)

		if ph == nil {
			ph, reused = pk.anyPhoto(buckets, placed)
			fl.Warn().Str("pane", pane.Name).Str("photo", ph.Path).Msg("no category match, borrowing from library")
			degraded = true
		}

		if reused {
			fl.Warn().Str("pane", pane.Name).Str("photo", ph.Path).Msg("photo repeats within layout")
			degraded = true
		}

		photos[pane.Name] = ph
		placed[ph.Path] = struct{}{}
	}

	return photos, degraded
} // }}}

// func Picker.anyPhoto {{{

// A photo from anywhere in the library, preferring one not already placed.
func (pk *Picker) anyPhoto(buckets map[classify.Category][]*types.Photo, placed map[string]struct{}) (*types.Photo, bool) {
	var all []*types.Photo

	for _, ph := range buckets {
		all = append(all, ph...)
	}

	free := make([]*types.Photo, 0, len(all))
	for _, ph := range all {
		if _, ok := placed[ph.Path]; !ok {
			free = append(free, ph)
		}
	}

	if len(free) > 0 {
		return free[pk.rng.Intn(len(free))], false
	}

	return all[pk.rng.Intn(len(all))], true
} // }}}

// func cropValue {{{

// How badly a photo fits a pane - the absolute difference of the two
// aspect ratios. 0 is a perfect fit.
func cropValue(ph *types.Photo, pane *layout.Pane) float64 {
	pr := ph.Ratio()
	ar := pane.Ratio()

	if pr == 0 || ar == 0 {
		return 0
	}

	return math.Abs(pr - ar)
} // }}}

// func validate {{{

// validate checks every pane's crop against the budget and reports the
// worst value seen.
//
// Ultra-wide photos are exempt - they letterbox instead of cropping, so
// their ratio mismatch costs pixels, not content.
func validate(lay *layout.Layout, photos map[string]*types.Photo, cropMax float64) (bool, float64) {
	ok := true
	maxCrop := 0.0

	for i := range lay.Panes {
		pane := &lay.Panes[i]

		ph, have := photos[pane.Name]
		if !have || ph.Category == classify.CatUltraWide {
			continue
		}

		cv := cropValue(ph, pane)
		if cv > maxCrop {
			maxCrop = cv
		}

		if cv > cropMax {
			ok = false
		}
	}

	return ok, maxCrop
} // }}}

// func ultraCount {{{

func ultraCount(photos map[string]*types.Photo) int {
	n := 0
	for _, ph := range photos {
		if ph.Category == classify.CatUltraWide {
			n++
		}
	}

	return n
} // }}}

// func Picker.alternatives {{{

// Retries the whole assignment looking for a combination inside the crop
// budget.
//
// Each attempt excludes everything tried before it. The first combination
// that validates without adding ultra-wide photos wins, otherwise the best
// crop seen - including the original - displays with Degraded set. The
// display always shows something.
func (pk *Picker) alternatives(lay *layout.Layout, buckets map[classify.Category][]*types.Photo, win window, first map[string]*types.Photo, firstCrop float64) (map[string]*types.Photo, bool, float64) {
	fl := pk.l.With().Str("func", "alternatives").Str("layout", lay.Name).Logger()

	baseUltra := ultraCount(first)

	best, bestCrop := first, firstCrop

	tried := make(map[string]struct{}, len(first)*(pk.pa.AltAttempts+1))
	for _, ph := range first {
		tried[ph.Path] = struct{}{}
	}

	for i := 0; i < pk.pa.AltAttempts; i++ {
		alt, _ := pk.assignOnce(lay, buckets, win, tried)

		for _, ph := range alt {
			tried[ph.Path] = struct{}{}
		}

		if ultraCount(alt) > baseUltra {
			continue
		}

		ok, cv := validate(lay, alt, pk.pa.CropMax)

		if ok {
			fl.Debug().Int("attempt", i+1).Float64("maxCrop", cv).Msg("alternative fits the crop budget")
			return alt, false, cv
		}

		if cv < bestCrop {
			best, bestCrop = alt, cv
		}
	}

	fl.Info().Float64("maxCrop", bestCrop).Msg("no combination fits the crop budget")

	return best, true, bestCrop
} // }}}

// func Picker.assignDual {{{

// The square + 4:3 vertical pair.
//
// Both categories draw independently with recency weighting, the pair
// lands on the two panes in random order, and the whole combination
// re-rolls until it fits the crop budget or runs out of attempts. Reports
// false when either category has no photos, the caller then uses the
// normal path.
func (pk *Picker) assignDual(lay *layout.Layout, buckets map[classify.Category][]*types.Photo, win window) (*Result, bool) {
	fl := pk.l.With().Str("func", "assignDual").Logger()

	squares := pk.available(classify.CatSquare, buckets)
	talls := pk.available(classify.CatTall4x3, buckets)

	if len(squares) < 1 || len(talls) < 1 {
		return nil, false
	}

	sqSampler := layout.NewSampler(pk.weigh(squares, win))
	taSampler := layout.NewSampler(pk.weigh(talls, win))

	var photos map[string]*types.Photo
	maxCrop := 0.0

	for i := 0; i < pk.pa.DualAttempts; i++ {
		sq := squares[sqSampler.Pick(pk.rng)]
		ta := talls[taSampler.Pick(pk.rng)]

		if sq.Path == ta.Path {
			continue
		}

		// Either photo can land on either pane.
		first, second := 0, 1
		if pk.rng.Intn(2) == 1 {
			first, second = 1, 0
		}

		photos = map[string]*types.Photo{
			lay.Panes[first].Name:  sq,
			lay.Panes[second].Name: ta,
		}

		ok, cv := validate(lay, photos, pk.pa.CropMax)
		maxCrop = cv

		if ok {
			pk.markUsed(sq)
			pk.markUsed(ta)

			return &Result{Photos: photos, MaxCrop: cv}, true
		}
	}

	if photos == nil {
		return nil, false
	}

	// Out of attempts - the last pair displays anyway.
	fl.Info().Float64("maxCrop", maxCrop).Msg("no pair fits the crop budget")

	for _, ph := range photos {
		pk.markUsed(ph)
	}

	return &Result{Photos: photos, Degraded: true, MaxCrop: maxCrop}, true
} // }}}

// func Picker.weigh {{{

func (pk *Picker) weigh(photos []*types.Photo, win window) []int {
	weights := make([]int, len(photos))

	for i, ph := range photos {
		if win.In(ph.Taken) {
			weights[i] = pk.pa.Multiplier
		} else {
			weights[i] = 1
		}
	}

	return weights
} // }}}
