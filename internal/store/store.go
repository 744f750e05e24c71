// Package store owns the canonical event collection. Every mutation goes
// through Store's methods; readers only ever receive copies.
package store

import (
	"strconv"
	"sync"

	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// Store is the single authoritative owner of the event collection and of
// id assignment. It is safe for concurrent use; mutations are serialized.
type Store struct {
	mu      sync.RWMutex
	events  []model.Event
	nextID  int
	version uint64
}

// New returns an empty store whose first assigned id is "1".
func New() *Store {
	return &Store{nextID: 1}
}

// Initialize replaces the collection wholesale and resets the id counter
// to len(events)+1. Events that could never have been produced by Add
// (missing or duplicate id, or failing Event.Validate) are dropped.
func (s *Store) Initialize(events []model.Event) {
	kept := make([]model.Event, 0, len(events))
	seen := make(map[string]struct{}, len(events))

	for _, e := range events {
		if e.ID == "" {
			appLog.Warn("store: dropping seed event without id", "title", e.Title)
			continue
		}
		if err := e.Validate(); err != nil {
			appLog.Warn("store: dropping invalid seed event", "id", e.ID, "reason", err)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			appLog.Warn("store: dropping seed event with duplicate id", "id", e.ID)
			continue
		}
		seen[e.ID] = struct{}{}
		kept = append(kept, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = kept
	s.nextID = len(events) + 1
	s.version++
}

// Add validates and appends a new event, returning it with its assigned id.
// On a ValidationError the collection is unchanged.
func (s *Store) Add(title string, start, end model.Date, color model.Color) (model.Event, error) {
	e := model.Event{
		Title: title,
		Start: start,
		End:   end,
		Color: color,
	}
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.assignID()
	s.events = append(s.events, e)
	s.version++
	return e, nil
}

// Update merges patch into the event with the given id. A missing id is
// not an error. The merged event must still be valid, otherwise a
// ValidationError is returned and the event is left as it was.
func (s *Store) Update(id string, patch model.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	if patch.Empty() {
		return nil
	}

	merged := patch.Apply(s.events[i])
	if err := merged.Validate(); err != nil {
		return err
	}
	s.events[i] = merged
	s.version++
	return nil
}

// Delete removes the event with the given id, if present.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.version++
}

// MoveByOffset shifts both ends of an event by dayOffset calendar days,
// preserving its duration. A missing id is a no-op.
func (s *Store) MoveByOffset(id string, dayOffset int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || dayOffset == 0 {
		return
	}
	s.events[i].Start = s.events[i].Start.AddDays(dayOffset)
	s.events[i].End = s.events[i].End.AddDays(dayOffset)
	s.version++
}

// Get returns a copy of the event with the given id.
func (s *Store) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, false
	}
	return s.events[i], true
}

// Events returns a copy of the collection in storage order.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Version increases on every state change. Callers can compare versions
// to detect whether anything happened since they last looked.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// assignID hands out the next counter value, skipping ids already taken
// by seeded events. Caller holds s.mu.
func (s *Store) assignID() string {
	for {
		id := strconv.Itoa(s.nextID)
		s.nextID++
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}
