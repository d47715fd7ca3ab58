package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"EngagementSync/internal/domain"
	"EngagementSync/internal/gate"
	"EngagementSync/internal/infrastructure/memory"
)

// eventLog records the order of progress, fetch and pacing events.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeClient struct {
	log       *eventLog
	available bool
	results   map[string]domain.BatchResult
	onFetch   func(urls []string)

	mu      sync.Mutex
	probes  int
	fetches [][]string
}

func (f *fakeClient) Probe(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.available
}

func (f *fakeClient) FetchOne(_ context.Context, url string) domain.FetchResult {
	return domain.FetchResult{Success: false, Error: "not used: " + url}
}

func (f *fakeClient) FetchBatch(_ context.Context, urls []string) domain.BatchResult {
	f.mu.Lock()
	f.fetches = append(f.fetches, urls)
	f.mu.Unlock()

	if f.log != nil {
		f.log.add("fetch " + strings.Join(urls, ","))
	}
	if f.onFetch != nil {
		f.onFetch(urls)
	}
	if res, ok := f.results[urls[0]]; ok {
		return res
	}
	return domain.BatchResult{Success: false, Error: "unknown url"}
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

type recordingPacer struct {
	log   *eventLog
	err   error
	waits int
}

func (p *recordingPacer) Wait(context.Context) error {
	p.waits++
	if p.log != nil {
		p.log.add("wait")
	}
	return p.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var epoch = time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)

func okBatch(views, likes, comments, shares int64) domain.BatchResult {
	return domain.BatchResult{
		Success: true,
		Summary: &domain.Summary{
			TotalViews:    domain.Count(views),
			TotalLikes:    domain.Count(likes),
			TotalComments: domain.Count(comments),
			TotalShares:   domain.Count(shares),
		},
	}
}

func published(id string, links domain.Links) domain.Item {
	return domain.Item{
		ID:     id,
		Title:  "item " + id,
		Status: domain.StatusPublished,
		Links:  links,
		Stats:  domain.Stats{Views: 1, Likes: 1, Comments: 1},
	}
}

type harness struct {
	orchestrator *Orchestrator
	gate         *gate.Gate
	cursor       *memory.CursorStore
	store        *memory.ItemStore
	client       *fakeClient
	pacer        *recordingPacer
	clock        *fakeClock
	log          *eventLog
}

func newHarness(items ...domain.Item) *harness {
	log := &eventLog{}
	cursor := memory.NewCursorStore()
	g := gate.New(cursor)
	client := &fakeClient{log: log, available: true, results: map[string]domain.BatchResult{}}
	pacer := &recordingPacer{log: log}
	clock := &fakeClock{now: epoch}

	return &harness{
		orchestrator: NewOrchestrator(OrchestratorDeps{
			Gate:   g,
			Client: client,
			Pacer:  pacer,
			Clock:  clock.Now,
		}),
		gate:   g,
		cursor: cursor,
		store:  memory.NewItemStore(items...),
		client: client,
		pacer:  pacer,
		clock:  clock,
		log:    log,
	}
}

func (h *harness) items() []domain.Item {
	items, _ := h.store.List(context.Background())
	return items
}

func (h *harness) progress(current, total int) {
	h.log.add(progressEvent(current, total))
}

func progressEvent(current, total int) string {
	return fmt.Sprintf("progress %d/%d", current, total)
}
