package topping

import (
	"github.com/pedilo/storefront/internal/apperr"
)

// Validate checks the selected topping ids against the groups configured for a
// product. It returns a snapshot per selection, in selection order, and the
// per-unit surcharge they add.
func Validate(groups []Group, selections []int64) ([]Selected, int64, error) {
	if len(groups) == 0 {
		if len(selections) > 0 {
			return nil, 0, apperr.New(apperr.ErrInvalidSelection, "product does not accept toppings")
		}
		return []Selected{}, 0, nil
	}

	type entry struct {
		topping Topping
		groupID int64
	}

	byID := make(map[int64]entry)
	for _, g := range groups {
		for _, t := range g.Toppings {
			byID[t.ID] = entry{topping: t, groupID: g.ID}
		}
	}

	perGroup := make(map[int64]int, len(groups))
	snapshots := make([]Selected, 0, len(selections))
	var surcharge int64

	for _, id := range selections {
		e, ok := byID[id]
		if !ok {
			return nil, 0, apperr.New(apperr.ErrInvalidSelection, "topping %d is not available for this product", id)
		}
		if !e.topping.Available {
			return nil, 0, apperr.New(apperr.ErrInvalidSelection, "topping '%s' is not available", e.topping.Name)
		}

		perGroup[e.groupID]++
		snapshots = append(snapshots, Selected{Name: e.topping.Name, Price: e.topping.Price})
		surcharge += e.topping.Price
	}

	for _, g := range groups {
		count := perGroup[g.ID]
		if count < g.MinSelections {
			return nil, 0, apperr.New(apperr.ErrInvalidSelection,
				"select at least %d option(s) from '%s'", g.MinSelections, g.Name)
		}
		if count > g.MaxSelections {
			return nil, 0, apperr.New(apperr.ErrInvalidSelection,
				"select at most %d option(s) from '%s'", g.MaxSelections, g.Name)
		}
	}

	return snapshots, surcharge, nil
}
