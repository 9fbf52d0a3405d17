package memoryhost

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fr0gg/fr0gg/gallery"
)

// Host is an in-memory implementation of gallery.Store.
type Host struct {
	mu      sync.RWMutex
	entries []record // ascending seq
	byID    map[string]int
	seq     uint64

	now func() time.Time
}

type record struct {
	seq   uint64
	entry gallery.Entry
}

var _ gallery.Store = (*Host)(nil)

// New returns an empty Host.
func New() *Host {
	return &Host{byID: make(map[string]int), now: time.Now}
}

func (h *Host) Add(ctx context.Context, e gallery.Entry) (gallery.Entry, error) {
	if err := ctx.Err(); err != nil {
		return gallery.Entry{}, err
	}
	e, err := gallery.Prepare(e, h.now())
	if err != nil {
		return gallery.Entry{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byID[e.ID]; ok {
		return gallery.Entry{}, fmt.Errorf("%w: %s", gallery.ErrConflict, e.ID)
	}
	h.seq++
	h.byID[e.ID] = len(h.entries)
	h.entries = append(h.entries, record{seq: h.seq, entry: e})
	return e, nil
}

func (h *Host) Get(ctx context.Context, id string) (gallery.Entry, error) {
	if err := ctx.Err(); err != nil {
		return gallery.Entry{}, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, ok := h.byID[id]
	if !ok {
		return gallery.Entry{}, fmt.Errorf("%w: %s", gallery.ErrNotFound, id)
	}
	return h.entries[i].entry, nil
}

func (h *Host) List(ctx context.Context, opts gallery.ListOptions) (gallery.Page, error) {
	if err := ctx.Err(); err != nil {
		return gallery.Page{}, err
	}
	limit, before, err := opts.Resolve()
	if err != nil {
		return gallery.Page{}, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	// end is one past the newest record eligible for this page.
	end := len(h.entries)
	if before > 0 {
		end = sort.Search(len(h.entries), func(i int) bool { return h.entries[i].seq >= before })
	}

	page := gallery.Page{Entries: make([]gallery.Entry, 0, min(limit, end))}
	i := end - 1
	for ; i >= 0 && len(page.Entries) < limit; i-- {
		page.Entries = append(page.Entries, h.entries[i].entry)
	}
	if i >= 0 {
		page.NextCursor = gallery.EncodeCursor(h.entries[i+1].seq)
	}
	return page, nil
}

// Close is a no-op; the entries stay readable.
func (h *Host) Close() error { return nil }
