// Package memory keeps items and the sync cursor in process memory. It backs
// the "memory" database driver and the tests of the core.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"EngagementSync/internal/domain"
	"EngagementSync/internal/ports"
)

// ItemStore is a map-backed ports.ItemStore.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string]domain.Item
	order []string
	now   func() time.Time
}

var _ ports.ItemStore = (*ItemStore)(nil)

// NewItemStore seeds a store with items, keeping their order for List.
func NewItemStore(items ...domain.Item) *ItemStore {
	s := &ItemStore{items: map[string]domain.Item{}, now: time.Now}
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if _, exists := s.items[item.ID]; !exists {
			s.order = append(s.order, item.ID)
		}
		s.items[item.ID] = clone(item)
	}
	return s
}

// List returns every item in insertion order.
func (s *ItemStore) List(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.items[id]))
	}
	return out, nil
}

// Get returns a copy of the item with id.
func (s *ItemStore) Get(_ context.Context, id string) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, errors.Wrapf(domain.ErrItemNotFound, "item %s", id)
	}
	return clone(item), nil
}

// ListByStatus returns items with the given status, newest publish date first.
func (s *ItemStore) ListByStatus(ctx context.Context, status domain.ItemStatus) ([]domain.Item, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Item, 0, len(all))
	for _, item := range all {
		if item.Status == status {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishDate.After(out[j].PublishDate)
	})
	return out, nil
}

// Update merges patch into the stored item.
func (s *ItemStore) Update(_ context.Context, id string, patch domain.ItemPatch) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, errors.Wrapf(domain.ErrItemNotFound, "item %s", id)
	}
	item = patch.Apply(item)
	item.UpdatedAt = s.now()
	s.items[id] = item
	return clone(item), nil
}

// Create stores a new item, assigning an ID when missing.
func (s *ItemStore) Create(_ context.Context, item domain.Item) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, exists := s.items[item.ID]; exists {
		return domain.Item{}, errors.Newf("item %s already exists", item.ID)
	}
	if item.Status == "" {
		item.Status = domain.StatusDraft
	}
	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = clone(item)
	s.order = append(s.order, item.ID)
	return clone(item), nil
}

func clone(item domain.Item) domain.Item {
	if item.Links != nil {
		links := make(domain.Links, len(item.Links))
		for k, v := range item.Links {
			links[k] = v
		}
		item.Links = links
	}
	return item
}

// CursorStore is a map-backed ports.CursorStore.
type CursorStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ ports.CursorStore = (*CursorStore)(nil)

// NewCursorStore builds an empty key/value store.
func NewCursorStore() *CursorStore {
	return &CursorStore{values: map[string]string{}}
}

// Get returns the stored value and whether it exists.
func (c *CursorStore) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok, nil
}

// Set overwrites the value under key.
func (c *CursorStore) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}
