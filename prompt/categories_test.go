package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fr0gg/fr0gg/sample"
)

func TestDefaultCategories(t *testing.T) {
	c := DefaultCategories()
	if err := c.Validate(); err != nil {
		t.Fatalf("embedded categories invalid: %v", err)
	}
	tests := []struct {
		name string
		list []string
		want int
	}{
		{"artists", c.Artists, 55},
		{"species", c.Species, 13},
		{"qualities", c.Qualities, 7},
		{"firing_styles", c.FiringStyles, 8},
		{"visual_qualities", c.VisualQualities, 20},
	}
	for _, tt := range tests {
		if len(tt.list) != tt.want {
			t.Errorf("%s: got %d entries, want %d", tt.name, len(tt.list), tt.want)
		}
	}

	// Callers get a copy.
	c.Artists[0] = "changed"
	if DefaultCategories().Artists[0] == "changed" {
		t.Fatalf("DefaultCategories returned shared storage")
	}
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		invalid bool
	}{
		{
			name: "yaml",
			doc: `artists: [a, b]
species: [s]
qualities: [q]
firing_styles: [f]
visual_qualities: [v]
`,
		},
		{
			name: "json",
			doc:  `{"artists":["a","b"],"species":["s"],"qualities":["q"],"firing_styles":["f"],"visual_qualities":["v"]}`,
		},
		{
			name:    "unknown key",
			doc:     "artists: [a, b]\ncolours: [red]\n",
			wantErr: true,
		},
		{
			name:    "missing list",
			doc:     "artists: [a, b]\nspecies: [s]\nqualities: [q]\nfiring_styles: [f]\n",
			wantErr: true,
			invalid: true,
		},
		{
			name:    "empty document",
			doc:     "",
			wantErr: true,
		},
		{
			name:    "malformed",
			doc:     "artists: [a, b",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategories([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategories() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.invalid && !errors.Is(err, sample.ErrInvalidArgument) {
				t.Fatalf("ParseCategories() error = %v, want ErrInvalidArgument", err)
			}
			if !tt.wantErr && len(got.Artists) != 2 {
				t.Fatalf("artists = %v", got.Artists)
			}
		})
	}
}

func TestLoadCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cats.yaml")
	if err := os.WriteFile(path, []byte("artists: [a, b]\nspecies: [s]\nqualities: [q]\nfiring_styles: [f]\nvisual_qualities: [v]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("LoadCategories() error = %v", err)
	}
	if c.VisualQualities[0] != "v" {
		t.Fatalf("VisualQualities = %v", c.VisualQualities)
	}

	if _, err := LoadCategories(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadCategories(missing) error = %v, want ErrNotExist", err)
	}
}
