package gallery_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fr0gg/fr0gg/gallery"
	"github.com/fr0gg/fr0gg/gallery/memoryhost"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, seq := range []uint64{1, 42, 1 << 40} {
		got, err := gallery.DecodeCursor(gallery.EncodeCursor(seq))
		if err != nil {
			t.Fatalf("DecodeCursor: %v", err)
		}
		if got != seq {
			t.Fatalf("DecodeCursor = %d, want %d", got, seq)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		opts      gallery.ListOptions
		wantLimit int
		wantErr   bool
	}{
		{name: "zero limit", opts: gallery.ListOptions{}, wantLimit: gallery.DefaultLimit},
		{name: "explicit", opts: gallery.ListOptions{Limit: 7}, wantLimit: 7},
		{name: "clamped", opts: gallery.ListOptions{Limit: 1000}, wantLimit: gallery.MaxLimit},
		{name: "negative", opts: gallery.ListOptions{Limit: -3}, wantErr: true},
		{name: "zero seq cursor", opts: gallery.ListOptions{Cursor: gallery.EncodeCursor(0)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, _, err := tt.opts.Resolve()
			if tt.wantErr {
				if !errors.Is(err, gallery.ErrInvalidListOptions) {
					t.Fatalf("Resolve error = %v, want ErrInvalidListOptions", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if limit != tt.wantLimit {
				t.Fatalf("limit = %d, want %d", limit, tt.wantLimit)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	now := time.Date(2023, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	e, err := gallery.Prepare(gallery.Entry{
		Date:     "2023-05-01",
		ImageURL: "https://images.fr0.gg/1.png",
		Prompt:   "a small fat ceramic frog souvenir",
	}, now)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if e.ID == "" {
		t.Fatalf("Prepare did not assign an id")
	}
	if e.CreatedAt.Location() != time.UTC || !e.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v", e.CreatedAt)
	}

	_, err = gallery.Prepare(gallery.Entry{ImageURL: "nope"}, now)
	if !errors.Is(err, gallery.ErrInvalidEntry) {
		t.Fatalf("Prepare error = %v, want ErrInvalidEntry", err)
	}
	for _, part := range []string{"date", "image_url", "prompt"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("error %q does not mention %s", err, part)
		}
	}
}

const export = `{
  "image_prompts": {
    "-NB2": {"date": "2023-01-02", "image_url": "https://images.fr0.gg/2.png", "prompt": "a small angry ceramic frog souvenir"},
    "-NB1": {"date": "2023-01-01", "image_url": "https://images.fr0.gg/1.png", "prompt": "a small cute ceramic frog souvenir"},
    "-NB3": {"date": "2023-01-03", "image_url": "https://images.fr0.gg/3.png", "prompt": "a small fat ceramic frog souvenir"}
  }
}`

func TestImport(t *testing.T) {
	ctx := context.Background()
	store := memoryhost.New()

	res, err := gallery.Import(ctx, store, strings.NewReader(export))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Added != 3 || res.Skipped != 0 {
		t.Fatalf("Import = %+v", res)
	}

	page, err := store.List(ctx, gallery.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, e := range page.Entries {
		ids = append(ids, e.ID)
	}
	if strings.Join(ids, ",") != "-NB3,-NB2,-NB1" {
		t.Fatalf("List order = %v, want newest push key first", ids)
	}

	// Re-importing is idempotent.
	res, err = gallery.Import(ctx, store, strings.NewReader(export))
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if res.Added != 0 || res.Skipped != 3 {
		t.Fatalf("second Import = %+v", res)
	}
}

func TestImport_BareObject(t *testing.T) {
	doc := `{"-NC1": {"date": "2023-02-01", "image_url": "https://images.fr0.gg/c.png", "prompt": "a small simple ceramic frog souvenir"}}`
	res, err := gallery.Import(context.Background(), memoryhost.New(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Added != 1 {
		t.Fatalf("Import = %+v", res)
	}
}

func TestImport_InvalidRecordWritesNothing(t *testing.T) {
	doc := `{
  "-ND1": {"date": "2023-03-01", "image_url": "https://images.fr0.gg/d.png", "prompt": "a small cherubic ceramic frog souvenir"},
  "-ND2": {"date": "2023-03-02", "image_url": "not a url", "prompt": "a small devilish ceramic frog souvenir"}
}`
	store := memoryhost.New()
	_, err := gallery.Import(context.Background(), store, strings.NewReader(doc))
	if !errors.Is(err, gallery.ErrInvalidEntry) {
		t.Fatalf("Import error = %v, want ErrInvalidEntry", err)
	}
	if !strings.Contains(err.Error(), "-ND2") {
		t.Fatalf("error %q does not name the bad record", err)
	}
	page, _ := store.List(context.Background(), gallery.ListOptions{})
	if len(page.Entries) != 0 {
		t.Fatalf("Import wrote %d entries before failing", len(page.Entries))
	}
}

func TestImport_MalformedJSON(t *testing.T) {
	if _, err := gallery.Import(context.Background(), memoryhost.New(), strings.NewReader("[1, 2")); err == nil {
		t.Fatalf("Import accepted malformed JSON")
	}
}
