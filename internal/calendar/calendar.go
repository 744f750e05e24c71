// Package calendar is the surface a presentation layer talks to: the event
// store plus the currently displayed (granularity, reference date) pair.
package calendar

import (
	"sync"

	"evcal/internal/bucket"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/nav"
	"evcal/internal/store"
)

// Calendar combines an event store with navigation state. All methods are
// safe for concurrent use.
type Calendar struct {
	store *store.Store

	mu   sync.RWMutex
	view nav.View
}

// New wraps st and starts on the given view. An invalid granularity falls
// back to month.
func New(st *store.Store, view nav.View) *Calendar {
	if !view.Granularity.Valid() {
		view.Granularity = model.Month
	}
	return &Calendar{store: st, view: view}
}

// Store exposes the underlying event store.
func (c *Calendar) Store() *store.Store {
	return c.store
}

// View returns the current navigation state.
func (c *Calendar) View() nav.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func (c *Calendar) Title() string {
	return c.View().Title()
}

// DaysToDisplay expands the current view into its calendar days.
func (c *Calendar) DaysToDisplay() []model.Date {
	v := c.View()
	return bucket.DaysToDisplay(v.Granularity, v.Reference)
}

// EventsForDay returns the stored events covering day.
func (c *Calendar) EventsForDay(day model.Date) []model.Event {
	return bucket.EventsForDay(day, c.store.Events())
}

// Buckets resolves the current view into day cells with their events,
// reading the collection once so every cell sees the same state.
func (c *Calendar) Buckets() []bucket.Bucket {
	return bucket.Buckets(c.DaysToDisplay(), c.store.Events())
}

func (c *Calendar) Events() []model.Event {
	return c.store.Events()
}

func (c *Calendar) Event(id string) (model.Event, bool) {
	return c.store.Get(id)
}

func (c *Calendar) Initialize(events []model.Event) {
	c.store.Initialize(events)
	appLog.Info("calendar initialized", "events", c.store.Len())
}

func (c *Calendar) Add(title string, start, end model.Date, color model.Color) (model.Event, error) {
	e, err := c.store.Add(title, start, end, color)
	if err != nil {
		appLog.Debug("calendar add rejected", "title", title, "reason", err)
		return e, err
	}
	appLog.Debug("calendar event added", "id", e.ID, "start", e.Start, "end", e.End)
	return e, nil
}

func (c *Calendar) Update(id string, patch model.Patch) error {
	return c.store.Update(id, patch)
}

func (c *Calendar) Delete(id string) {
	c.store.Delete(id)
}

func (c *Calendar) MoveByOffset(id string, dayOffset int) {
	c.store.MoveByOffset(id, dayOffset)
}

// Drop applies a completed drag: the event moves by the number of days
// between the cell it was picked up from and the cell it landed on.
func (c *Calendar) Drop(eventID string, originalDay, targetDay model.Date) {
	offset := bucket.DropOffset(originalDay, targetDay)
	appLog.Debug("calendar drop", "id", eventID, "from", originalDay, "to", targetDay, "offset", offset)
	c.store.MoveByOffset(eventID, offset)
}

// Previous pages back one period and returns the new view.
func (c *Calendar) Previous() nav.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.Previous()
	return c.view
}

// Next pages forward one period and returns the new view.
func (c *Calendar) Next() nav.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.Next()
	return c.view
}

// SetGranularity switches the display unit, keeping the reference date.
func (c *Calendar) SetGranularity(g model.Granularity) (nav.View, error) {
	if !g.Valid() {
		return c.View(), &model.ValidationError{Field: "granularity", Reason: "unknown granularity " + string(g)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.WithGranularity(g)
	return c.view, nil
}

// SetReference jumps to the period containing day.
func (c *Calendar) SetReference(day model.Date) nav.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Reference = day
	return c.view
}
