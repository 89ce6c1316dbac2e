package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	StoreCatalog = "catalog"
	StoreCart    = "cart"
)

// Operations reported in Change.Op.
const (
	OpLoad      = "load"
	OpReset     = "reset"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpAdd       = "add"
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpRemove    = "remove"
	OpClear     = "clear"
	// OpStatus is a loading/error flag change with no collection mutation.
	OpStatus = "status"
)

// Change describes one committed store mutation. EntityID is zero for
// whole-collection operations.
type Change struct {
	ID         uuid.UUID `json:"id"`
	Store      string    `json:"store"`
	Op         string    `json:"op"`
	EntityID   int       `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewChange(store, op string, entityID int) Change {
	return Change{
		ID:         uuid.New(),
		Store:      store,
		Op:         op,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// Source is anything that exposes change subscriptions, typically a store.
type Source interface {
	Subscribe(fn func(Change)) (unsubscribe func())
}
