// Package gallery keeps track of which unsold item the vending machine is
// showing, advancing automatically until a viewer takes over.
package gallery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erazemk/vendart/internal/model"
)

// State is the rotation state of the gallery.
type State string

// Gallery states.
const (
	Rotating State = "rotating"
	Paused   State = "paused"
)

// DefaultInterval is the time between automatic advances.
const DefaultInterval = 4 * time.Second

// ScreenCount is how many items the machine front shows at once.
const ScreenCount = 4

// ErrNotInView is returned when selecting an item that is not on display.
var ErrNotInView = errors.New("item not in gallery")

// Source provides the unsold view and notifies about changes to it.
type Source interface {
	Unsold() []model.Item
	Subscribe(fn func(unsold []model.Item))
}

// Snapshot is a point-in-time copy of the gallery state.
type Snapshot struct {
	State    State        `json:"state"`
	Index    int          `json:"index"`
	Count    int          `json:"count"`
	Selected *model.Item  `json:"selected"`
	Screens  []model.Item `json:"screens"`
}

// Engine holds the filtered view and the current selection.
type Engine struct {
	interval time.Duration

	mu       sync.Mutex
	view     []model.Item
	index    int
	selected string
	state    State

	// wake tells Run that the state changed.
	wake chan struct{}
}

// NewEngine returns a rotating engine with an empty view.
func NewEngine(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{
		interval: interval,
		state:    Rotating,
		wake:     make(chan struct{}, 1),
	}
}

// Follow loads the current view from src and refreshes on every change.
func (e *Engine) Follow(src Source) {
	src.Subscribe(e.Refresh)
	e.Refresh(src.Unsold())
}

// Refresh replaces the filtered view and recomputes the selection: the item
// at the current index, or the first item if the index fell off the end.
func (e *Engine) Refresh(unsold []model.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.view = make([]model.Item, len(unsold))
	for i, it := range unsold {
		e.view[i] = it.Clone()
	}
	e.reselect()
}

// Tick advances the selection by one while rotating.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Rotating || len(e.view) == 0 {
		return
	}
	e.index = (e.index + 1) % len(e.view)
	e.selected = e.view[e.index].ID
}

// Select shows the given item and stops rotation.
func (e *Engine) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return ErrNotInView
	}
	e.index = i
	e.selected = id
	e.setState(Paused)
	return nil
}

// Toggle flips between rotating and paused without changing the selection.
func (e *Engine) Toggle() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Rotating {
		e.setState(Paused)
	} else {
		e.setState(Rotating)
	}
	return e.state
}

// State returns the rotation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Selected returns the highlighted item, if any.
func (e *Engine) Selected() (model.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(e.selected); i >= 0 {
		return e.view[i].Clone(), true
	}
	return model.Item{}, false
}

// Snapshot returns a copy of the current gallery state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		State:   e.state,
		Index:   e.index,
		Count:   len(e.view),
		Screens: []model.Item{},
	}
	for i := 0; i < len(e.view) && i < ScreenCount; i++ {
		snap.Screens = append(snap.Screens, e.view[i].Clone())
	}
	if i := e.indexOf(e.selected); i >= 0 {
		sel := e.view[i].Clone()
		snap.Selected = &sel
	}
	return snap
}

// Run ticks every interval while rotating until ctx is done. The ticker is
// stopped while paused and restarted on resume.
func (e *Engine) Run(ctx context.Context) {
	for {
		if e.State() != Rotating {
			select {
			case <-ctx.Done():
				return
			case <-e.wake:
				continue
			}
		}

		ticker := time.NewTicker(e.interval)
	rotating:
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-e.wake:
				break rotating
			case <-ticker.C:
				e.Tick()
			}
		}
		ticker.Stop()
	}
}

// setState changes the state and wakes Run. Callers hold e.mu.
func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	e.state = s
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// reselect applies the selection rule after the view changed. Callers hold e.mu.
func (e *Engine) reselect() {
	if len(e.view) == 0 {
		e.index = 0
		e.selected = ""
		return
	}
	if e.index < 0 || e.index >= len(e.view) {
		e.index = 0
	}
	e.selected = e.view[e.index].ID
}

func (e *Engine) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range e.view {
		if e.view[i].ID == id {
			return i
		}
	}
	return -1
}
