package httpapi

import (
	"encoding/json"
	"fmt"

	"github.com/fr0gg/fr0gg/gallery"
	"github.com/fr0gg/fr0gg/prompt"
	"github.com/invopop/jsonschema"
)

// buildSchemas reflects the JSON documents the API exchanges.
func buildSchemas() (map[string][]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	types := map[string]any{
		"prompt":     new(prompt.Prompt),
		"entry":      new(gallery.Entry),
		"page":       new(gallery.Page),
		"categories": new(prompt.Categories),
	}
	out := make(map[string][]byte, len(types))
	for name, v := range types {
		s := r.Reflect(v)
		s.Title = name
		b, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}
