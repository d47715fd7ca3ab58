package domain

import "time"

// ItemStatus enumerates the lifecycle of a tracked content item.
type ItemStatus string

const (
	StatusDraft      ItemStatus = "draft"
	StatusInProgress ItemStatus = "in_progress"
	StatusPublished  ItemStatus = "published"
)

// Valid reports whether s is one of the known lifecycle states.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusPublished:
		return true
	default:
		return false
	}
}

// Links maps a platform key (tiktok, instagram, other, ...) to a URL.
type Links map[string]string

// Stats is the engagement record persisted on an item.
type Stats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
}

// Item is a content record owned by the item store.
type Item struct {
	ID          string
	Title       string
	Status      ItemStatus
	Links       Links
	Stats       Stats
	PublishDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemPatch carries the fields of a partial update. Nil fields are left as stored.
type ItemPatch struct {
	Title       *string
	Status      *ItemStatus
	Links       Links
	Stats       *Stats
	PublishDate *time.Time
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Status == nil && p.Links == nil && p.Stats == nil && p.PublishDate == nil
}

// Apply returns a copy of item with the patch merged in.
func (p ItemPatch) Apply(item Item) Item {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.Links != nil {
		links := make(Links, len(p.Links))
		for k, v := range p.Links {
			links[k] = v
		}
		item.Links = links
	}
	if p.Stats != nil {
		item.Stats = *p.Stats
	}
	if p.PublishDate != nil {
		item.PublishDate = *p.PublishDate
	}
	return item
}
