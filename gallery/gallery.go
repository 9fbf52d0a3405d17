package gallery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("gallery: entry not found")
	// ErrConflict is returned by Add when an entry with the same id exists.
	ErrConflict = errors.New("gallery: entry already exists")
	// ErrInvalidEntry is returned by Add when an entry fails validation.
	ErrInvalidEntry = errors.New("gallery: invalid entry")
	// ErrInvalidListOptions is returned by List for a malformed cursor or a
	// negative limit.
	ErrInvalidListOptions = errors.New("gallery: invalid list options")
)

const (
	// DefaultLimit is the page size used when ListOptions.Limit is zero.
	DefaultLimit = 20
	// MaxLimit caps ListOptions.Limit.
	MaxLimit = 100

	maxIDLen = 128
)

// Entry is one published frog.
type Entry struct {
	ID        string    `json:"id" jsonschema_description:"Stable identifier; generated when omitted on publish"`
	Date      string    `json:"date" jsonschema_description:"Publication date as displayed in the gallery"`
	ImageURL  string    `json:"image_url" jsonschema_description:"Absolute http(s) URL of the generated image"`
	Prompt    string    `json:"prompt" jsonschema_description:"The prompt the image was generated from"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that e can be stored and rendered.
func (e Entry) Validate() error {
	var errs []error
	if e.ID == "" {
		errs = append(errs, errors.New("id is required"))
	} else if err := validateID(e.ID); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(e.Date) == "" {
		errs = append(errs, errors.New("date is required"))
	} else if strings.ContainsAny(e.Date, "\r\n") {
		errs = append(errs, errors.New("date must be a single line"))
	}
	if u, err := url.Parse(e.ImageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("image_url %q is not an absolute http(s) URL", e.ImageURL))
	}
	if strings.TrimSpace(e.Prompt) == "" {
		errs = append(errs, errors.New("prompt is required"))
	} else if strings.ContainsAny(e.Prompt, "\r\n") {
		errs = append(errs, errors.New("prompt must be a single line"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, errors.Join(errs...))
	}
	return nil
}

// validateID accepts uuids and realtime-database push keys.
func validateID(id string) error {
	if len(id) > maxIDLen {
		return fmt.Errorf("id longer than %d bytes", maxIDLen)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("id %q contains %q", id, r)
		}
	}
	return nil
}

// Prepare fills in the id and creation time of e when they are unset and
// validates the result. Stores call it from Add.
func Prepare(e Entry, now time.Time) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ListOptions selects a page of entries.
type ListOptions struct {
	// Cursor is the NextCursor of a previous page, or empty for the first page.
	Cursor string
	// Limit is the page size; zero means DefaultLimit and values above
	// MaxLimit are reduced to MaxLimit.
	Limit int
}

// Page is one page of entries, newest first.
type Page struct {
	Entries    []Entry `json:"entries"`
	NextCursor string  `json:"next_cursor,omitempty" jsonschema_description:"Pass as cursor to fetch the next page; absent on the last page"`
}

// Resolve validates o and returns the effective limit and the sequence
// number the page must start below. A zero sequence means no cursor.
func (o ListOptions) Resolve() (limit int, before uint64, err error) {
	switch {
	case o.Limit < 0:
		return 0, 0, fmt.Errorf("%w: negative limit %d", ErrInvalidListOptions, o.Limit)
	case o.Limit == 0:
		limit = DefaultLimit
	case o.Limit > MaxLimit:
		limit = MaxLimit
	default:
		limit = o.Limit
	}
	if o.Cursor == "" {
		return limit, 0, nil
	}
	before, err = DecodeCursor(o.Cursor)
	if err != nil {
		return 0, 0, err
	}
	return limit, before, nil
}

const cursorPrefix = "seq:"

// EncodeCursor returns the cursor that continues a listing below seq.
func EncodeCursor(seq uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatUint(seq, 10)))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed cursor", ErrInvalidListOptions)
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: malformed cursor", ErrInvalidListOptions)
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil || seq == 0 {
		return 0, fmt.Errorf("%w: malformed cursor", ErrInvalidListOptions)
	}
	return seq, nil
}

// Store persists gallery entries. Implementations are safe for concurrent
// use.
type Store interface {
	// Add stores e and returns it with its id and creation time filled in.
	Add(ctx context.Context, e Entry) (Entry, error)
	// Get returns the entry with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (Entry, error)
	// List returns entries newest first.
	List(ctx context.Context, opts ListOptions) (Page, error)
	// Close releases resources held by the store.
	Close() error
}
