// Package ledger is the single authority over stock quantities. It
// tracks balances per scope (central warehouse or unit inventory) and
// product, and is the only code allowed to mutate them.
package ledger

import (
	"fmt"

	"stockyard/internal/core/id"
)

// ScopeKind distinguishes balance locations.
type ScopeKind int8

const (
	// KindCentral is the central warehouse (one balance per product).
	KindCentral ScopeKind = iota

	// KindInventory is an operating unit's local stock.
	KindInventory
)

func (k ScopeKind) String() string {
	switch k {
	case KindCentral:
		return "central"
	case KindInventory:
		return "inventory"
	default:
		return "unknown"
	}
}

// Scope identifies where a balance lives. Comparable: two scopes are
// equal iff kind and unit match.
type Scope struct {
	Kind   ScopeKind
	UnitID id.ID // zero for central
}

// Central returns the central warehouse scope.
func Central() Scope {
	return Scope{Kind: KindCentral}
}

// Inventory returns the scope of an operating unit's stock.
func Inventory(unitID id.ID) Scope {
	return Scope{Kind: KindInventory, UnitID: unitID}
}

// IsCentral reports whether the scope is the central warehouse.
func (s Scope) IsCentral() bool {
	return s.Kind == KindCentral
}

func (s Scope) String() string {
	if s.IsCentral() {
		return "central"
	}
	return fmt.Sprintf("unit:%s", s.UnitID)
}

// before defines a stable total order over scopes (kind first, then
// unit id). Row locks are always acquired in this order so that
// opposite-direction transfers cannot deadlock.
func (s Scope) before(o Scope) bool {
	if s.Kind != o.Kind {
		return s.Kind < o.Kind
	}
	return s.UnitID.String() < o.UnitID.String()
}
