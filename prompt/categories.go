package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/fr0gg/fr0gg/sample"
	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

// Categories is the set of lists a prompt is drawn from.
type Categories struct {
	Artists         []string `yaml:"artists" json:"artists" jsonschema_description:"Artist names; two distinct entries are drawn per prompt"`
	Species         []string `yaml:"species" json:"species"`
	Qualities       []string `yaml:"qualities" json:"qualities"`
	FiringStyles    []string `yaml:"firing_styles" json:"firing_styles"`
	VisualQualities []string `yaml:"visual_qualities" json:"visual_qualities"`
}

var defaultCategories = sync.OnceValue(func() Categories {
	c, err := ParseCategories(defaultCategoriesYAML)
	if err != nil {
		panic(fmt.Sprintf("prompt: embedded categories: %v", err))
	}
	return c
})

// DefaultCategories returns a copy of the built-in category lists.
func DefaultCategories() Categories {
	return defaultCategories().Clone()
}

// Clone returns a deep copy of c.
func (c Categories) Clone() Categories {
	return Categories{
		Artists:         slices.Clone(c.Artists),
		Species:         slices.Clone(c.Species),
		Qualities:       slices.Clone(c.Qualities),
		FiringStyles:    slices.Clone(c.FiringStyles),
		VisualQualities: slices.Clone(c.VisualQualities),
	}
}

// Validate reports whether every list can be sampled from and every entry
// fits on a single line of a composed prompt. Errors wrap
// sample.ErrInvalidArgument.
func (c Categories) Validate() error {
	var errs []error
	check := func(name string, list []string, min int) {
		if len(list) < min {
			errs = append(errs, fmt.Errorf("%w: %s needs at least %d entries, has %d", sample.ErrInvalidArgument, name, min, len(list)))
			return
		}
		seen := make(map[string]struct{}, len(list))
		for i, e := range list {
			switch {
			case strings.TrimSpace(e) == "":
				errs = append(errs, fmt.Errorf("%w: %s[%d] is blank", sample.ErrInvalidArgument, name, i))
			case strings.ContainsAny(e, "\r\n"):
				errs = append(errs, fmt.Errorf("%w: %s[%d] contains a line break", sample.ErrInvalidArgument, name, i))
			}
			if _, dup := seen[e]; dup {
				errs = append(errs, fmt.Errorf("%w: %s[%d] duplicates %q", sample.ErrInvalidArgument, name, i, e))
			}
			seen[e] = struct{}{}
		}
	}
	check("artists", c.Artists, 2)
	check("species", c.Species, 1)
	check("qualities", c.Qualities, 1)
	check("firing_styles", c.FiringStyles, 1)
	check("visual_qualities", c.VisualQualities, 1)
	return errors.Join(errs...)
}

// ParseCategories decodes and validates a YAML or JSON category document.
// Unknown keys are rejected.
func ParseCategories(data []byte) (Categories, error) {
	var c Categories
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Categories{}, fmt.Errorf("decode categories: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Categories{}, err
	}
	return c, nil
}

// LoadCategories reads and validates the category file at path.
func LoadCategories(path string) (Categories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Categories{}, fmt.Errorf("read categories: %w", err)
	}
	c, err := ParseCategories(data)
	if err != nil {
		return Categories{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
