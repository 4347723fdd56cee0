package enrichment

import (
	"github.com/google/uuid"
	"github.com/simaogato/luthier-backend/internal/domain"
)

// LookupMap resolves records by id. Stored pointers reference the source slice,
// so the same source always yields the same attached pointers.
type LookupMap[V any] struct {
	byID map[uuid.UUID]*V
}

// NewLookupMap indexes items by idFn. A repeated id keeps the last item.
func NewLookupMap[V any](items []V, idFn func(*V) uuid.UUID) LookupMap[V] {
	byID := make(map[uuid.UUID]*V, len(items))
	for i := range items {
		byID[idFn(&items[i])] = &items[i]
	}
	return LookupMap[V]{byID: byID}
}

// Get returns the record for id. A nil id is a normal miss.
func (m LookupMap[V]) Get(id *uuid.UUID) (*V, bool) {
	if id == nil {
		return nil, false
	}
	v, ok := m.byID[*id]
	return v, ok
}

// Has reports whether id resolves to a record
func (m LookupMap[V]) Has(id *uuid.UUID) bool {
	_, ok := m.Get(id)
	return ok
}

// Len returns the number of indexed records
func (m LookupMap[V]) Len() int {
	return len(m.byID)
}

// Lookups bundles the client and instrument indexes used to enrich sales
type Lookups struct {
	Clients     LookupMap[domain.Client]
	Instruments LookupMap[domain.Instrument]
}

// NewLookups builds both indexes
func NewLookups(clients []domain.Client, instruments []domain.Instrument) *Lookups {
	return &Lookups{
		Clients:     NewLookupMap(clients, func(c *domain.Client) uuid.UUID { return c.ID }),
		Instruments: NewLookupMap(instruments, func(i *domain.Instrument) uuid.UUID { return i.ID }),
	}
}
