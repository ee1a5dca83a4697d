// Package unitconv converts between packaging units (sets) and retail
// items. The ledger stores quantities as plain item counts; conversion
// happens once at the edge, when a document is created or approved.
package unitconv

import (
	"fmt"
	"strings"

	"stockyard/internal/core/apperror"
)

// Labels holds the display forms of a measurement unit.
type Labels struct {
	Singular string
	Plural   string
}

// For returns the label form matching the count.
func (l Labels) For(n int64) string {
	if n == 1 {
		return l.Singular
	}
	return l.Plural
}

// Packaging describes how a product is packed: how many retail items
// one set contains, and how both units are named.
type Packaging struct {
	// ItemsPerSet is the number of retail items in one set.
	// 1 means the product is sold loose (no set packaging).
	ItemsPerSet int64

	SetUnit  Labels
	ItemUnit Labels
}

// Validate checks packaging invariants.
func (p Packaging) Validate() error {
	if p.ItemsPerSet < 1 {
		return apperror.NewValidation("items per set must be at least 1").
			WithDetail("itemsPerSet", p.ItemsPerSet)
	}
	return nil
}

// ToItems converts a quantity expressed as whole sets plus loose items
// into the canonical item count.
func (p Packaging) ToItems(sets, items int64) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if sets < 0 || items < 0 {
		return 0, apperror.NewValidation("quantity cannot be negative").
			WithDetail("sets", sets).
			WithDetail("items", items)
	}
	return sets*p.ItemsPerSet + items, nil
}

// Split breaks a canonical item count into whole sets and remaining items.
func (p Packaging) Split(total int64) (sets, items int64) {
	if p.ItemsPerSet <= 1 {
		return 0, total
	}
	return total / p.ItemsPerSet, total % p.ItemsPerSet
}

// Format renders an item count for display, e.g. "1 set, 2 bottles",
// "3 sets", "11 bottles". Zero renders as "0 <items>".
func (p Packaging) Format(total int64) string {
	sets, items := p.Split(total)

	var parts []string
	if sets > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", sets, p.SetUnit.For(sets)))
	}
	if items > 0 || sets == 0 {
		parts = append(parts, fmt.Sprintf("%d %s", items, p.ItemUnit.For(items)))
	}
	return strings.Join(parts, ", ")
}
