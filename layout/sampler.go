package layout

import (
	"math/rand"
	"sort"
)

// type weightList struct {{{

// All items sharing one weight.
//
// So details on how the sampler works -
//
// Items are grouped by weight and the groups sorted. Each group covers the
// roll range [Start, Start + Weight*len(Items)). To pick, roll a number
// below MaxRoll, binary search for the covering group, and the offset
// within the group divided by the weight names the item.
//
// Same cost as a plain cumulative array but the grouping keeps it small
// when most items share a weight, which is the normal case here (weight 1
// photos with a handful of weight 3 recency boosts).
type weightList struct {
	Weight int
	Start  int
	Items  []int
} // }}}

// type Sampler struct {{{

// Weighted random selection over item indexes.
//
// Read-only once built, safe to share. The rand source is the caller's so
// tests can seed it.
type Sampler struct {
	lists   []*weightList
	maxRoll int
} // }}}

// func NewSampler {{{

// Builds a sampler where item i is drawn with relative weight weights[i].
//
// Items with weight < 1 are never drawn. A sampler with no drawable items
// is valid, Pick just always misses.
func NewSampler(weights []int) *Sampler {
	byWeight := make(map[int][]int, 4)

	for i, w := range weights {
		if w < 1 {
			continue
		}

		byWeight[w] = append(byWeight[w], i)
	}

	sa := &Sampler{
		lists: make([]*weightList, 0, len(byWeight)),
	}

	for w, items := range byWeight {
		sa.lists = append(sa.lists, &weightList{Weight: w, Items: items})
	}

	// Sort for a stable layout, then assign the Start offsets.
	sort.Slice(sa.lists, func(i, j int) bool { return sa.lists[i].Weight < sa.lists[j].Weight })

	roll := 0
	for _, wl := range sa.lists {
		wl.Start = roll
		roll += wl.Weight * len(wl.Items)
	}

	sa.maxRoll = roll

	return sa
} // }}}

// func Sampler.Empty {{{

func (sa *Sampler) Empty() bool {
	return sa.maxRoll < 1
} // }}}

// func Sampler.Pick {{{

// Draws one item index, or -1 if nothing is drawable.
func (sa *Sampler) Pick(rng *rand.Rand) int {
	if sa.maxRoll < 1 {
		return -1
	}

	roll := rng.Intn(sa.maxRoll)

	// Find the first list starting past the roll - the one before it
	// covers the roll.
	i := sort.Search(len(sa.lists), func(i int) bool { return sa.lists[i].Start > roll })
	wl := sa.lists[i-1]

	return wl.Items[(roll-wl.Start)/wl.Weight]
} // }}}
