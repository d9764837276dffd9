package db

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mithrel/inkpad/pkg/api"
)

// memStore keeps everything in maps behind one RWMutex. It backs unit tests
// and the mem:// DSN; semantics mirror the sqlite store including CAS.
type memStore struct {
	mu     sync.RWMutex
	events []api.Event
	byID   map[string]api.Document
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]api.Document)}
}

type nop struct{}

func (nop) Read(p []byte) (int, error) { return 0, io.EOF }

func (m *memStore) Append(ctx context.Context, ev api.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) List(ctx context.Context, cur api.Cursor, limit int) ([]api.Event, api.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Event, 0, len(m.events))
	for _, ev := range m.events {
		if !cur.After.IsZero() && !ev.Time.After(cur.After) {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	var next api.Cursor
	if len(out) > 0 {
		next.After = out[len(out)-1].Time
	}
	return out, next, nil
}

func (m *memStore) GetDoc(ctx context.Context, id string) (api.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.byID[id]
	if !ok {
		return api.Document{}, ErrNotFound
	}
	return d, nil
}

func (m *memStore) CreateDoc(ctx context.Context, d api.Document) (api.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		return api.Document{}, ErrConflict
	}
	if _, exists := m.byID[d.ID]; exists {
		return api.Document{}, ErrConflict
	}
	if d.Version == 0 {
		d.Version = 1
	}
	m.byID[d.ID] = d
	m.events = append(m.events, api.Event{Time: d.UpdatedAt, Type: api.EventUpsert, ID: d.ID, Doc: &d})
	return d, nil
}

func (m *memStore) UpdateDocCAS(ctx context.Context, d api.Document, ifVersion int64) (api.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[d.ID]
	if !ok {
		return api.Document{}, ErrNotFound
	}
	if cur.Version != ifVersion {
		return api.Document{}, ErrConflict
	}
	d.CreatedAt = cur.CreatedAt
	m.byID[d.ID] = d
	m.events = append(m.events, api.Event{Time: d.UpdatedAt, Type: api.EventUpsert, ID: d.ID, Doc: &d})
	return d, nil
}

func (m *memStore) DeleteDoc(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	m.events = append(m.events, api.Event{Time: time.Now().UTC(), Type: api.EventDelete, ID: id})
	return nil
}

func (m *memStore) ListDocs(ctx context.Context, f Filter) ([]api.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Document, 0, len(m.byID))
	for _, d := range m.byID {
		if !matchTags(d.Tags, f) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) SearchDocs(ctx context.Context, f Filter) ([]api.Document, error) {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return m.ListDocs(ctx, f)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Document, 0)
	for _, d := range m.byID {
		if !matchTags(d.Tags, f) {
			continue
		}
		hay := strings.ToLower(d.Title + "\n" + d.Body + "\n" + strings.Join(d.Tags, " "))
		if strings.Contains(hay, q) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) Titles(ctx context.Context, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byID))
	for _, d := range m.byID {
		out = append(out, d.ID+"\t"+d.Title)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchTags(tags []string, f Filter) bool {
	if len(f.Any) == 0 && len(f.All) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, t := range f.All {
		if _, ok := set[strings.ToLower(strings.TrimSpace(t))]; !ok {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	for _, t := range f.Any {
		if _, ok := set[strings.ToLower(strings.TrimSpace(t))]; ok {
			return true
		}
	}
	return false
}
