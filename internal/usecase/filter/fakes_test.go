package filter

import (
	"net/url"
	"sync"
	"time"
)

type fakeTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every timer that became due
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type memStore struct {
	mu     sync.Mutex
	values url.Values
	writes []url.Values
}

func newMemStore(raw string) *memStore {
	values, _ := url.ParseQuery(raw)
	return &memStore{values: values}
}

func (s *memStore) Query() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := url.Values{}
	for k, v := range s.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (s *memStore) ReplaceQuery(values url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values
	s.writes = append(s.writes, values)
}

func (s *memStore) Writes() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.writes...)
}

type memScroll struct {
	offset int
	saved  []int
}

func (m *memScroll) ScrollOffset() int { return m.offset }

func (m *memScroll) SaveScrollOffset(offset int) { m.saved = append(m.saved, offset) }
