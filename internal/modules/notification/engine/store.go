package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mercastudio/storefront-admin/internal/modules/notification/domain"
)

// Item wraps a backend record with the panel's ephemeral delivery state.
// Records are never mutated; all state lives on the wrapper.
type Item struct {
	Record        domain.Notification `json:"record"`
	DismissedAt   *time.Time          `json:"dismissed_at,omitempty"`
	ReappearCount int                 `json:"reappear_count"`
	LocalRead     bool                `json:"local_read"`
}

func (it Item) visible() bool {
	return !it.LocalRead && it.DismissedAt == nil
}

// TimerCanceller is the slice of the scheduler the store needs so that
// marking an item read always cancels its reappearance timer, no matter
// which caller path performed the mark.
type TimerCanceller interface {
	Cancel(id uuid.UUID)
}

// Store is the single mutable collection of tracked notifications. It is
// only ever mutated through its methods; invalid transitions are
// idempotent no-ops rather than errors, which keeps every interleaving of
// timer callbacks, push deliveries and HTTP handlers safe.
type Store struct {
	mu       sync.Mutex
	items    []*Item // newest arrivals first
	capacity int
	visible  int

	timers   TimerCanceller // optional, set by the engine
	onChange func()         // optional, invoked outside the lock
	now      func() time.Time
}

func NewStore(capacity, visibleLimit int) *Store {
	return &Store{
		capacity: capacity,
		visible:  visibleLimit,
		now:      time.Now,
	}
}

// SetTimerCanceller wires the dismissal scheduler in. Must be called
// before the store receives traffic.
func (s *Store) SetTimerCanceller(tc TimerCanceller) { s.timers = tc }

// SetOnChange registers a hook run after every effective mutation, used
// to push visible-set snapshots to connected panels.
func (s *Store) SetOnChange(fn func()) { s.onChange = fn }

// Upsert tracks a newly delivered record. Re-delivery of an already
// tracked id is a no-op: the store, not the backend feed, owns the
// ephemeral state. Returns true when a new item was created.
func (s *Store) Upsert(n domain.Notification) bool {
	s.mu.Lock()
	if s.indexOf(n.ID) >= 0 {
		s.mu.Unlock()
		dedupedTotal.Inc()
		return false
	}
	s.items = append([]*Item{{Record: n}}, s.items...)
	s.evictLocked()
	s.mu.Unlock()

	deliveredTotal.Inc()
	s.notify()
	return true
}

// Dismiss hides the item from the panel while keeping it tracked for
// reappearance. No-op if the item is unknown, already dismissed or read.
func (s *Store) Dismiss(id uuid.UUID) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.items[i].LocalRead || s.items[i].DismissedAt != nil {
		s.mu.Unlock()
		return false
	}
	t := s.now()
	s.items[i].DismissedAt = &t
	s.mu.Unlock()

	dismissedTotal.Inc()
	s.notify()
	return true
}

// Reappear resurfaces a dismissed item. No-op if the item is no longer
// tracked or was marked read in the meantime.
func (s *Store) Reappear(id uuid.UUID) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.items[i].LocalRead {
		s.mu.Unlock()
		return false
	}
	s.items[i].DismissedAt = nil
	s.items[i].ReappearCount++
	s.mu.Unlock()

	reappearedTotal.Inc()
	s.notify()
	return true
}

// SetLocalRead flips the optimistic read flag. Setting it true cancels
// any armed reappearance timer; setting it back false (rollback of a
// failed mutation) makes the item visible again without re-arming a
// timer, since the operator never dismissed it.
func (s *Store) SetLocalRead(id uuid.UUID, read bool) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.items[i].LocalRead == read {
		s.mu.Unlock()
		return false
	}
	s.items[i].LocalRead = read
	if !read {
		s.items[i].DismissedAt = nil
	}
	s.mu.Unlock()

	if read && s.timers != nil {
		s.timers.Cancel(id)
	}
	s.notify()
	return true
}

// Remove drops a terminally read item from the store.
func (s *Store) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()

	if s.timers != nil {
		s.timers.Cancel(id)
	}
	s.notify()
	return true
}

// VisibleItems returns the bounded panel view: unread, undismissed items,
// newest first, capped at the display limit. The cap is enforced here at
// read time only; items pushed below it stay tracked and surface once
// older ones are dismissed or read.
func (s *Store) VisibleItems() []Item {
	s.mu.Lock()
	out := make([]Item, 0, s.visible)
	for _, it := range s.items {
		if it.visible() {
			out = append(out, *it)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.CreatedAt.After(out[j].Record.CreatedAt)
	})
	if len(out) > s.visible {
		out = out[:s.visible]
	}
	return out
}

// UnreadIDs snapshots every tracked id whose optimistic read flag is
// still false, for mark-all-read.
func (s *Store) UnreadIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.items))
	for _, it := range s.items {
		if !it.LocalRead {
			ids = append(ids, it.Record.ID)
		}
	}
	return ids
}

// Item returns a copy of the tracked item for id.
func (s *Store) Item(id uuid.UUID) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return *s.items[i], true
	}
	return Item{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id uuid.UUID) int {
	for i, it := range s.items {
		if it.Record.ID == id {
			return i
		}
	}
	return -1
}

// evictLocked enforces the tracked-capacity bound: oldest read items go
// first, then oldest overall.
func (s *Store) evictLocked() {
	for len(s.items) > s.capacity {
		dropped := false
		for i := len(s.items) - 1; i >= 0; i-- {
			if s.items[i].LocalRead {
				s.items = append(s.items[:i], s.items[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			s.items = s.items[:len(s.items)-1]
		}
	}
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
