// Package prompt composes Midjourney-style text prompts describing a small
// ceramic frog souvenir.
//
// A Composer holds five category lists (artists, species, qualities, firing
// styles and visual qualities) and fills a fixed template by drawing two
// distinct artists and one entry from each other list. Draws go through a
// sample.Source, so a Composer built WithSource(sample.NewSeeded(n)) produces
// a reproducible sequence.
//
// The default lists are embedded in the binary. Alternative lists can be
// loaded from a YAML (or JSON) file with LoadCategories and kept current with
// Watch, which swaps the lists in place whenever the file changes.
//
// Composers are safe for concurrent use.
package prompt
