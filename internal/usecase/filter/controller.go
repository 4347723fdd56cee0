package filter

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/simaogato/luthier-backend/internal/domain"
)

// QueryStore is the externally visible query string the controller mirrors into
type QueryStore interface {
	Query() url.Values
	ReplaceQuery(values url.Values)
}

// ScrollMemory keeps the page scroll offset across a filter-triggered reload
type ScrollMemory interface {
	ScrollOffset() int
	SaveScrollOffset(offset int)
}

// Preset is a named date range relative to today
type Preset string

const (
	PresetLast7     Preset = "last7"
	PresetLast30    Preset = "last30"
	PresetLast90    Preset = "last90"
	PresetThisMonth Preset = "thisMonth"
	PresetThisYear  Preset = "thisYear"
	PresetAll       Preset = "all"
)

var ErrUnknownPreset = errors.New("unknown date preset")

// Range returns from/to in DateLayout for the day containing now.
// PresetAll clears both bounds.
func (p Preset) Range(now time.Time) (string, string, error) {
	today := domain.CalendarDate(now)
	var from time.Time
	switch p {
	case PresetLast7:
		from = today.AddDate(0, 0, -6)
	case PresetLast30:
		from = today.AddDate(0, 0, -29)
	case PresetLast90:
		from = today.AddDate(0, 0, -89)
	case PresetThisMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PresetThisYear:
		from = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case PresetAll:
		return "", "", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	return from.Format(DateLayout), today.Format(DateLayout), nil
}

// Controller holds the filter state of the sales list and mirrors it into a
// QueryStore. Search input is debounced; every other change is written at once.
type Controller struct {
	mu        sync.Mutex
	store     QueryStore
	scroll    ScrollMemory
	clock     Clock
	delay     time.Duration
	defaults  Filters
	state     Filters
	search    string // latest typed text, may be ahead of state.Search
	debouncer *Debouncer
	closed    bool
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the system clock, mainly in tests
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithScrollMemory lets date presets keep the scroll offset
func WithScrollMemory(scroll ScrollMemory) Option {
	return func(c *Controller) { c.scroll = scroll }
}

// WithSearchDelay overrides DefaultSearchDelay
func WithSearchDelay(delay time.Duration) Option {
	return func(c *Controller) { c.delay = delay }
}

// NewController resolves the initial state from the store once
func NewController(store QueryStore, defaults Filters, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		clock:    SystemClock{},
		delay:    DefaultSearchDelay,
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state = Resolve(store.Query(), defaults)
	c.search = c.state.Search
	c.debouncer = NewDebouncer(c.delay, c.clock)
	return c
}

// Snapshot returns the committed filter state
func (c *Controller) Snapshot() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if s.HasClient != nil {
		v := *s.HasClient
		s.HasClient = &v
	}
	return s
}

// SearchText returns the latest typed search text, committed or not
func (c *Controller) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// SetFrom sets the start date; an empty date removes the bound
func (c *Controller) SetFrom(date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	c.update(func(f *Filters) { f.From = date })
	return nil
}

// SetTo sets the end date; an empty date removes the bound
func (c *Controller) SetTo(date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	c.update(func(f *Filters) { f.To = date })
	return nil
}

// SetHasClient filters on whether a sale has a client. nil shows both.
func (c *Controller) SetHasClient(v *bool) {
	c.update(func(f *Filters) {
		if v == nil {
			f.HasClient = nil
			return
		}
		b := *v
		f.HasClient = &b
	})
}

// SetSort sets both sort fields
func (c *Controller) SetSort(column string, direction domain.SortDirection) error {
	if !IsSortable(column) {
		return fmt.Errorf("column %q is not sortable", column)
	}
	if !direction.Valid() {
		return fmt.Errorf("invalid sort direction: %s", direction)
	}
	c.update(func(f *Filters) {
		f.SortColumn = column
		f.SortDirection = direction
	})
	return nil
}

// ToggleSort flips the direction when column is already active, otherwise it
// switches to column in descending order
func (c *Controller) ToggleSort(column string) error {
	if !IsSortable(column) {
		return fmt.Errorf("column %q is not sortable", column)
	}
	c.update(func(f *Filters) {
		if f.SortColumn == column {
			if f.SortDirection == domain.SortAscending {
				f.SortDirection = domain.SortDescending
			} else {
				f.SortDirection = domain.SortAscending
			}
			return
		}
		f.SortColumn = column
		f.SortDirection = domain.SortDescending
	})
	return nil
}

// SetSearch records the typed text and commits it after the search delay.
// Only the last text of a burst is written.
func (c *Controller) SetSearch(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.search = text
	c.mu.Unlock()

	c.debouncer.Trigger(func() { c.commitSearch(text) })
}

func (c *Controller) commitSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.search != text {
		return
	}
	c.state.Search = text
	c.writeLocked()
}

// HandleDatePreset stores the scroll offset when the page is scrolled, then
// applies the preset range
func (c *Controller) HandleDatePreset(p Preset) error {
	from, to, err := p.Range(c.clock.Now())
	if err != nil {
		return err
	}

	if c.scroll != nil {
		if offset := c.scroll.ScrollOffset(); offset > 0 {
			c.scroll.SaveScrollOffset(offset)
		}
	}

	c.update(func(f *Filters) {
		f.From = from
		f.To = to
	})
	return nil
}

// ClearFilters resets search, dates and the client filter. Sort is kept.
func (c *Controller) ClearFilters() {
	c.debouncer.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.search = ""
	c.state.Search = ""
	c.state.From = ""
	c.state.To = ""
	c.state.HasClient = nil
	c.writeLocked()
}

// Close cancels a pending search commit. A closed controller never writes.
func (c *Controller) Close() {
	c.debouncer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) update(fn func(*Filters)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	fn(&c.state)
	c.writeLocked()
}

func (c *Controller) writeLocked() {
	c.store.ReplaceQuery(Merge(c.store.Query(), c.state, c.defaults))
}
