// Package gallerytest provides a behavioral test suite that every
// gallery.Store implementation must pass.
package gallerytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fr0gg/fr0gg/gallery"
)

// StoreFactory creates a new, empty Store for one subtest.
type StoreFactory func(t *testing.T) gallery.Store

// RunStoreTests runs the complete Store test suite against the provided factory.
func RunStoreTests(t *testing.T, factory StoreFactory) {
	t.Run("Add_AssignsIDAndCreatedAt", func(t *testing.T) { testAddAssignsDefaults(t, factory) })
	t.Run("Add_KeepsCallerID", func(t *testing.T) { testAddKeepsCallerID(t, factory) })
	t.Run("Add_DuplicateIDConflicts", func(t *testing.T) { testAddConflict(t, factory) })
	t.Run("Add_InvalidEntryRejected", func(t *testing.T) { testAddInvalid(t, factory) })
	t.Run("Get_UnknownIsNotFound", func(t *testing.T) { testGetNotFound(t, factory) })

	t.Run("List_EmptyStore", func(t *testing.T) { testListEmpty(t, factory) })
	t.Run("List_NewestFirst", func(t *testing.T) { testListNewestFirst(t, factory) })
	t.Run("List_PaginatesWithoutGapsOrRepeats", func(t *testing.T) { testListPaginates(t, factory) })
	t.Run("List_DefaultAndMaxLimit", func(t *testing.T) { testListLimits(t, factory) })
	t.Run("List_InvalidOptions", func(t *testing.T) { testListInvalid(t, factory) })
	t.Run("List_CursorStableAcrossInserts", func(t *testing.T) { testListCursorStable(t, factory) })

	t.Run("Concurrency_ParallelAdds", func(t *testing.T) { testParallelAdds(t, factory) })
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Frog returns a valid entry whose fields are derived from n.
func Frog(n int) gallery.Entry {
	return gallery.Entry{
		Date:     fmt.Sprintf("2023-01-%02d", n%28+1),
		ImageURL: fmt.Sprintf("https://images.fr0.gg/%d.png", n),
		Prompt:   fmt.Sprintf("a small cute ceramic frog souvenir number %d", n),
	}
}

func mustAdd(t *testing.T, ctx context.Context, s gallery.Store, e gallery.Entry) gallery.Entry {
	t.Helper()
	got, err := s.Add(ctx, e)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return got
}

func testAddAssignsDefaults(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	before := time.Now().Add(-time.Second)
	e := mustAdd(t, ctx, s, Frog(1))
	if e.ID == "" {
		t.Fatalf("Add did not assign an id")
	}
	if e.CreatedAt.Before(before) {
		t.Fatalf("CreatedAt = %v, want a recent time", e.CreatedAt)
	}

	got, err := s.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != e.ID || got.Prompt != e.Prompt || got.ImageURL != e.ImageURL || got.Date != e.Date {
		t.Fatalf("Get = %+v, want %+v", got, e)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
}

func testAddKeepsCallerID(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	in := Frog(2)
	in.ID = "-NVq1aB_c2"
	e := mustAdd(t, ctx, s, in)
	if e.ID != in.ID {
		t.Fatalf("ID = %q, want %q", e.ID, in.ID)
	}
	if _, err := s.Get(ctx, in.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func testAddConflict(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	first := Frog(3)
	first.ID = "frog-3"
	mustAdd(t, ctx, s, first)

	second := Frog(4)
	second.ID = "frog-3"
	if _, err := s.Add(ctx, second); !errors.Is(err, gallery.ErrConflict) {
		t.Fatalf("Add duplicate error = %v, want ErrConflict", err)
	}
	got, err := s.Get(ctx, "frog-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Prompt != first.Prompt {
		t.Fatalf("duplicate Add overwrote the entry: %+v", got)
	}
	page, err := s.List(ctx, gallery.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Entries) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(page.Entries))
	}
}

func testAddInvalid(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	tests := []struct {
		name   string
		mutate func(*gallery.Entry)
	}{
		{"missing date", func(e *gallery.Entry) { e.Date = "" }},
		{"relative image url", func(e *gallery.Entry) { e.ImageURL = "/frog.png" }},
		{"ftp image url", func(e *gallery.Entry) { e.ImageURL = "ftp://example.com/frog.png" }},
		{"empty prompt", func(e *gallery.Entry) { e.Prompt = " " }},
		{"multi-line prompt", func(e *gallery.Entry) { e.Prompt = "a\nfrog" }},
		{"id with slash", func(e *gallery.Entry) { e.ID = "a/b" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Frog(5)
			tt.mutate(&e)
			if _, err := s.Add(ctx, e); !errors.Is(err, gallery.ErrInvalidEntry) {
				t.Fatalf("Add error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func testGetNotFound(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)
	if _, err := s.Get(ctx, "no-such-frog"); !errors.Is(err, gallery.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func testListEmpty(t *testing.T, factory StoreFactory) {
	s := factory(t)
	page, err := s.List(testContext(t), gallery.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Entries == nil {
		t.Fatalf("Entries is nil, want empty slice")
	}
	if len(page.Entries) != 0 || page.NextCursor != "" {
		t.Fatalf("List = %+v, want empty last page", page)
	}
}

func testListNewestFirst(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, mustAdd(t, ctx, s, Frog(i)).ID)
	}
	page, err := s.List(ctx, gallery.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Entries) != len(ids) {
		t.Fatalf("List returned %d entries, want %d", len(page.Entries), len(ids))
	}
	for i, e := range page.Entries {
		if want := ids[len(ids)-1-i]; e.ID != want {
			t.Fatalf("Entries[%d] = %s, want %s", i, e.ID, want)
		}
	}
	if page.NextCursor != "" {
		t.Fatalf("NextCursor = %q on last page", page.NextCursor)
	}
}

func testListPaginates(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	const total = 25
	for i := 0; i < total; i++ {
		mustAdd(t, ctx, s, Frog(i))
	}

	seen := map[string]bool{}
	var sizes []int
	cursor := ""
	for {
		page, err := s.List(ctx, gallery.ListOptions{Cursor: cursor, Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		sizes = append(sizes, len(page.Entries))
		for _, e := range page.Entries {
			if seen[e.ID] {
				t.Fatalf("entry %s returned twice", e.ID)
			}
			seen[e.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		if len(sizes) > total {
			t.Fatalf("pagination did not terminate")
		}
	}
	if len(seen) != total {
		t.Fatalf("saw %d entries, want %d", len(seen), total)
	}
	if fmt.Sprint(sizes) != "[10 10 5]" {
		t.Fatalf("page sizes = %v, want [10 10 5]", sizes)
	}
}

func testListLimits(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	for i := 0; i < gallery.DefaultLimit+5; i++ {
		mustAdd(t, ctx, s, Frog(i))
	}
	page, err := s.List(ctx, gallery.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Entries) != gallery.DefaultLimit {
		t.Fatalf("default page has %d entries, want %d", len(page.Entries), gallery.DefaultLimit)
	}
	if page.NextCursor == "" {
		t.Fatalf("missing NextCursor with more entries remaining")
	}

	page, err = s.List(ctx, gallery.ListOptions{Limit: gallery.MaxLimit + 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Entries) != gallery.DefaultLimit+5 {
		t.Fatalf("oversized limit returned %d entries", len(page.Entries))
	}
}

func testListInvalid(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	for _, opts := range []gallery.ListOptions{
		{Limit: -1},
		{Cursor: "not base64!"},
		{Cursor: "Zm9v"}, // "foo"
	} {
		if _, err := s.List(ctx, opts); !errors.Is(err, gallery.ErrInvalidListOptions) {
			t.Fatalf("List(%+v) error = %v, want ErrInvalidListOptions", opts, err)
		}
	}
}

func testListCursorStable(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, mustAdd(t, ctx, s, Frog(i)).ID)
	}
	first, err := s.List(ctx, gallery.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// New entries land before the first page and must not shift the second.
	mustAdd(t, ctx, s, Frog(99))

	second, err := s.List(ctx, gallery.ListOptions{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(second.Entries) != 2 || second.Entries[0].ID != ids[1] || second.Entries[1].ID != ids[0] {
		t.Fatalf("second page = %+v, want ids %s, %s", second.Entries, ids[1], ids[0])
	}
}

func testParallelAdds(t *testing.T, factory StoreFactory) {
	s := factory(t)
	ctx := testContext(t)

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Add(ctx, Frog(i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("parallel Add: %v", err)
	}

	page, err := s.List(ctx, gallery.ListOptions{Limit: gallery.MaxLimit})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Entries) != n {
		t.Fatalf("List returned %d entries, want %d", len(page.Entries), n)
	}
}
