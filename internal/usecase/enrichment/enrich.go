package enrichment

import (
	"bytes"
	"slices"
	"sync"

	"github.com/simaogato/luthier-backend/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Enrich attaches the client and instrument of every sale.
// Output order equals input order; unmatched or NULL references stay nil.
func Enrich(sales []domain.Sale, lookups *Lookups) []domain.EnrichedSale {
	enriched := make([]domain.EnrichedSale, len(sales))
	for i, sale := range sales {
		enriched[i].Sale = sale
		if client, ok := lookups.Clients.Get(sale.ClientID); ok {
			enriched[i].Client = client
		}
		if instrument, ok := lookups.Instruments.Get(sale.InstrumentID); ok {
			enriched[i].Instrument = instrument
		}
	}
	return enriched
}

// Enricher caches the lookup indexes for the most recent pair of source slices.
// The cache is keyed on slice identity (backing array and length), so callers must
// treat the slices they pass as immutable snapshots.
type Enricher struct {
	mu          sync.Mutex
	clients     sliceKey[domain.Client]
	instruments sliceKey[domain.Instrument]
	lookups     *Lookups
}

type sliceKey[V any] struct {
	first *V
	n     int
}

func keyOf[V any](s []V) sliceKey[V] {
	if len(s) == 0 {
		return sliceKey[V]{}
	}
	return sliceKey[V]{first: &s[0], n: len(s)}
}

// NewEnricher creates an Enricher with an empty cache
func NewEnricher() *Enricher {
	return &Enricher{}
}

// Lookups returns the indexes for clients and instruments, rebuilding them only
// when either slice differs from the previous call
func (e *Enricher) Lookups(clients []domain.Client, instruments []domain.Instrument) *Lookups {
	ck, ik := keyOf(clients), keyOf(instruments)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lookups != nil && e.clients == ck && e.instruments == ik {
		return e.lookups
	}

	e.lookups = NewLookups(clients, instruments)
	e.clients = ck
	e.instruments = ik
	return e.lookups
}

// Enrich is Enrich with memoized lookups
func (e *Enricher) Enrich(sales []domain.Sale, clients []domain.Client, instruments []domain.Instrument) []domain.EnrichedSale {
	return Enrich(sales, e.Lookups(clients, instruments))
}

// ApplySort orders sales by the derived client name when column is
// domain.ClientNameColumn. Any other column was ordered by the data source and
// the input is returned untouched.
func ApplySort(sales []domain.EnrichedSale, column string, direction domain.SortDirection) []domain.EnrichedSale {
	if column != domain.ClientNameColumn {
		return sales
	}
	return SortByClientName(sales, direction)
}

// SortByClientName returns a stably sorted copy ordered by the client's display
// name. Sales without a client sort as an empty name.
func SortByClientName(sales []domain.EnrichedSale, direction domain.SortDirection) []domain.EnrichedSale {
	type keyed struct {
		sale domain.EnrichedSale
		key  []byte
	}

	collator := collate.New(language.Und, collate.IgnoreCase)
	var buf collate.Buffer

	items := make([]keyed, len(sales))
	for i, sale := range sales {
		name := ""
		if sale.Client != nil {
			name = sale.Client.DisplayName()
		}
		// KeyFromString reuses buf, so copy the key out
		items[i] = keyed{sale: sale, key: bytes.Clone(collator.KeyFromString(&buf, name))}
		buf.Reset()
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		if direction == domain.SortDescending {
			return bytes.Compare(b.key, a.key)
		}
		return bytes.Compare(a.key, b.key)
	})

	out := make([]domain.EnrichedSale, len(items))
	for i, item := range items {
		out[i] = item.sale
	}
	return out
}
