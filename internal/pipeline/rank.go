package pipeline

import (
	"sort"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

// tier orders items into groups that never interleave.
func tier(it dining.ScoredFoodItem, prioritizeProtein bool) int {
	if prioritizeProtein {
		switch {
		case it.Nutrients != nil && it.Nutrients.ProteinG != nil:
			return 0
		case it.Scored():
			return 1
		default:
			return 2
		}
	}
	if it.Scored() {
		return 0
	}
	return 2
}

// Rank sorts items in place. By default scored items come first by score
// descending; with prioritizeProtein, items with a protein figure lead by
// protein descending, then score. Unscored items always trail. Ties fall
// back to menu position, so the order never depends on fetch timing.
func Rank(items []dining.ScoredFoodItem, prioritizeProtein bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ta, tb := tier(a, prioritizeProtein), tier(b, prioritizeProtein)
		if ta != tb {
			return ta < tb
		}
		if prioritizeProtein && ta == 0 {
			pa, pb := *a.Nutrients.ProteinG, *b.Nutrients.ProteinG
			if pa != pb {
				return pa > pb
			}
		}
		sa, sb := scoreOf(a), scoreOf(b)
		if sa != sb {
			return sa > sb
		}
		return a.Position < b.Position
	})
}

func scoreOf(it dining.ScoredFoodItem) int {
	if it.Score == nil {
		return -1
	}
	return *it.Score
}
