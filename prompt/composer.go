package prompt

import (
	"fmt"
	"sync"

	"github.com/fr0gg/fr0gg/sample"
)

// promptFormat is filled in draw order by ComposeDetailed. The double spaces
// before each "--" flag are part of the format.
const promptFormat = "a small %s ceramic frog souvenir, %s, %s, highly textured Xerox scan of an archival museum catalog, textured white background, %s, full-color photograph, %s, %s  --no nostrils, holes, black circles, text, base, plinth  --stylize 750 --v 3"

// Prompt is a composed prompt together with the entries drawn to build it.
type Prompt struct {
	Text          string   `json:"prompt" jsonschema_description:"The composed prompt"`
	Quality       string   `json:"quality"`
	FiringStyle   string   `json:"firing_style"`
	Species       string   `json:"species"`
	Artists       []string `json:"artists" jsonschema_description:"Two distinct artists, in template order"`
	VisualQuality string   `json:"visual_quality"`
}

// Composer draws prompts from a set of categories.
type Composer struct {
	src sample.Source

	mu   sync.RWMutex
	cats Categories

	changes notifier
}

// Option configures a Composer.
type Option func(*Composer)

// WithSource sets the randomness source. The default is sample.Default().
func WithSource(src sample.Source) Option {
	return func(c *Composer) { c.src = src }
}

// WithCategories replaces the default category lists. The lists are copied.
func WithCategories(cats Categories) Option {
	return func(c *Composer) { c.cats = cats.Clone() }
}

// New returns a Composer using the embedded default categories unless
// WithCategories says otherwise.
func New(opts ...Option) (*Composer, error) {
	c := &Composer{src: sample.Default(), cats: DefaultCategories()}
	for _, opt := range opts {
		opt(c)
	}
	if c.src == nil {
		c.src = sample.Default()
	}
	if err := c.cats.Validate(); err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}
	return c, nil
}

// Compose returns a freshly randomized prompt.
func (c *Composer) Compose() (string, error) {
	p, err := c.ComposeDetailed()
	if err != nil {
		return "", err
	}
	return p.Text, nil
}

// ComposeDetailed is like Compose but also reports which entries were drawn.
// Draw order is artists, quality, firing style, species, visual quality.
func (c *Composer) ComposeDetailed() (Prompt, error) {
	// Lists are never mutated once installed, so the snapshot stays valid
	// after the lock is released.
	c.mu.RLock()
	cats := c.cats
	c.mu.RUnlock()

	artists, err := sample.Sample(c.src, cats.Artists, 2)
	if err != nil {
		return Prompt{}, fmt.Errorf("draw artists: %w", err)
	}
	p := Prompt{Artists: artists}
	for _, d := range []struct {
		name string
		list []string
		dst  *string
	}{
		{"quality", cats.Qualities, &p.Quality},
		{"firing style", cats.FiringStyles, &p.FiringStyle},
		{"species", cats.Species, &p.Species},
		{"visual quality", cats.VisualQualities, &p.VisualQuality},
	} {
		got, err := sample.Sample(c.src, d.list, 1)
		if err != nil {
			return Prompt{}, fmt.Errorf("draw %s: %w", d.name, err)
		}
		*d.dst = got[0]
	}

	p.Text = fmt.Sprintf(promptFormat, p.Quality, p.FiringStyle, p.Species, artists[0], artists[1], p.VisualQuality)
	return p, nil
}

// Categories returns a copy of the lists currently in use.
func (c *Composer) Categories() Categories {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cats.Clone()
}

// Replace validates cats and swaps them in. On error the current lists are
// kept. Subscribers are signalled after a successful swap.
func (c *Composer) Replace(cats Categories) error {
	if err := cats.Validate(); err != nil {
		return err
	}
	cats = cats.Clone()
	c.mu.Lock()
	c.cats = cats
	c.mu.Unlock()
	c.changes.notify()
	return nil
}

// Subscribe returns a channel that receives a value after each successful
// Replace. The channel is buffered; bursts of changes may coalesce into a
// single signal.
func (c *Composer) Subscribe() <-chan struct{} {
	return c.changes.subscribe()
}

// Close closes every channel returned by Subscribe. Composing still works
// after Close.
func (c *Composer) Close() {
	c.changes.close()
}

var defaultComposer = sync.OnceValue(func() *Composer {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the shared Composer built from the embedded categories.
func Default() *Composer { return defaultComposer() }

// Compose composes a prompt with the default Composer.
func Compose() (string, error) {
	return Default().Compose()
}
