package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
)

// exportRecord is one image_prompts child in a realtime-database export.
type exportRecord struct {
	Date     string `json:"date"`
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Import reads a realtime-database JSON export of image_prompts and adds
// every record to s, using the record key as the entry id. The export may be
// the image_prompts object itself or a document wrapping it under an
// "image_prompts" key.
//
// Keys are imported in sorted order; push keys sort chronologically, so the
// newest record ends up first in List. Records whose id already exists are
// skipped. Every record is validated before anything is written.
func Import(ctx context.Context, s Store, r io.Reader) (ImportResult, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("decode export: %w", err)
	}
	if inner, ok := doc["image_prompts"]; ok && len(doc) == 1 {
		doc = nil
		if err := json.Unmarshal(inner, &doc); err != nil {
			return ImportResult{}, fmt.Errorf("decode image_prompts: %w", err)
		}
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	now := time.Now()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		var rec exportRecord
		if err := json.Unmarshal(doc[k], &rec); err != nil {
			return ImportResult{}, fmt.Errorf("record %q: %w: %w", k, ErrInvalidEntry, err)
		}
		e, err := Prepare(Entry{ID: k, Date: rec.Date, ImageURL: rec.ImageURL, Prompt: rec.Prompt}, now)
		if err != nil {
			return ImportResult{}, fmt.Errorf("record %q: %w", k, err)
		}
		entries = append(entries, e)
	}

	var res ImportResult
	for _, e := range entries {
		if _, err := s.Add(ctx, e); err != nil {
			if errors.Is(err, ErrConflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("add %q: %w", e.ID, err)
		}
		res.Added++
	}
	return res, nil
}
