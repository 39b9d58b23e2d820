package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/erazemk/vendart/internal/model"
)

// ItemsKey is the backend key holding the JSON array of all items.
const ItemsKey = "vendart_items"

var (
	// ErrInvalidID is returned when an item id is empty or malformed.
	ErrInvalidID = errors.New("invalid item id")
	// ErrDuplicateID is returned when appending an id already in the store.
	ErrDuplicateID = errors.New("duplicate item id")
	// ErrNotFound is returned when patching an id that is not in the store.
	ErrNotFound = errors.New("item not found")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateID checks that id is usable as an item id.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Items is the single source of truth for all artwork items. The collection
// is kept newest-first and written to the backend in full after every change.
type Items struct {
	backend Backend

	mu          sync.RWMutex
	items       []model.Item
	subscribers []func(unsold []model.Item)
}

// NewItems returns an empty store writing to b.
func NewItems(b Backend) *Items {
	return &Items{backend: b}
}

// LoadItems reads the item collection from b. Missing or unreadable data
// yields an empty store; the failure is logged, never returned.
func LoadItems(ctx context.Context, b Backend) *Items {
	s := NewItems(b)

	raw, err := b.Get(ctx, ItemsKey)
	if err != nil {
		slog.Warn("failed to read items, starting empty", "error", err)
		return s
	}
	if len(raw) == 0 {
		return s
	}

	var loaded []model.Item
	if err := json.Unmarshal(raw, &loaded); err != nil {
		slog.Warn("stored items are malformed, starting empty", "error", err)
		return s
	}

	seen := make(map[string]bool, len(loaded))
	for _, it := range loaded {
		if ValidateID(it.ID) != nil || seen[it.ID] {
			slog.Warn("skipping stored item with bad or duplicate id", "id", it.ID)
			continue
		}
		seen[it.ID] = true
		it.Normalize()
		s.items = append(s.items, it)
	}

	slog.Info("items loaded", "count", len(s.items))
	return s
}

// List returns a copy of all items, newest first.
func (s *Items) List() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Get returns the item with the given id.
func (s *Items) Get(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return model.Item{}, false
}

// Has reports whether an item with the given id exists.
func (s *Items) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Unsold returns the items still available in the gallery, newest first.
func (s *Items) Unsold() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsold()
}

// Subscribe registers fn to receive the unsold view after every successful
// mutation. fn runs while the store is locked and must not call back into it.
func (s *Items) Subscribe(fn func(unsold []model.Item)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Append inserts item at the front of the collection.
func (s *Items) Append(ctx context.Context, item model.Item) error {
	if err := ValidateID(item.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(item.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
	}

	item = item.Clone()
	item.Normalize()
	s.items = append([]model.Item{item}, s.items...)

	return s.commit(ctx)
}

// Patch merges p into the item with the given id and returns the result.
func (s *Items) Patch(ctx context.Context, id string, p model.Patch) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p.Apply(&s.items[i])
	updated := s.items[i].Clone()

	return updated, s.commit(ctx)
}

// commit writes the whole collection and notifies subscribers. The in-memory
// change stays applied even if the write fails. Callers hold s.mu.
func (s *Items) commit(ctx context.Context) error {
	unsold := s.unsold()
	for _, fn := range s.subscribers {
		fn(unsold)
	}

	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}
	if err := s.backend.Put(ctx, ItemsKey, data); err != nil {
		slog.Error("failed to persist items", "error", err)
		return fmt.Errorf("persisting items: %w", err)
	}
	return nil
}

func (s *Items) unsold() []model.Item {
	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		if !it.Sold {
			out = append(out, it.Clone())
		}
	}
	return out
}

func (s *Items) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
