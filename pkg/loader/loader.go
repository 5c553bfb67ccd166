// Package loader reads presentation documents from JSON and YAML files.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported presentation file %q", path)
	}
}

// Parse decodes a presentation. YAML documents go through the same JSON
// decoding as stored documents, so actions decode identically.
func Parse(data []byte, format Format) (*domain.Presentation, error) {
	switch format {
	case FormatJSON:
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode json presentation: %w", err)
		}
		return FromMap(raw)
	case FormatYAML:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml presentation: %w", err)
		}
		return FromMap(raw)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// FromMap converts a generic document tree into a presentation. Fields with
// the wrong type fail with domain.ErrInvalidPresentation.
func FromMap(raw map[string]any) (*domain.Presentation, error) {
	tree, _ := Normalize(raw).(map[string]any)
	if err := checkShape(tree); err != nil {
		return nil, err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode presentation: %w", err)
	}
	var p domain.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode presentation: %w", err)
	}
	return &p, nil
}

// Normalize rewrites map[any]any nodes into map[string]any so the tree can
// be encoded as JSON.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = Normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = Normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = Normalize(sub)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = Normalize(sub)
		}
		return out
	default:
		return v
	}
}

// ReadFile loads one presentation file.
func ReadFile(path string) (*domain.Presentation, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Dir is a ports.DeckSource over the JSON and YAML files of one directory.
// The deck id is the file name without extension.
type Dir struct {
	root string
}

var _ ports.DeckSource = (*Dir)(nil)

// NewDir creates a directory source.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// LoadDeck reads the deck stored as id.json, id.yaml or id.yml.
func (d *Dir) LoadDeck(ctx context.Context, id string) (*domain.Presentation, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(d.root, id+ext)
		if _, err := os.Stat(path); err == nil {
			return ReadFile(path)
		}
	}
	return nil, fmt.Errorf("%w: deck %s in %s", domain.ErrPresentationNotFound, id, d.root)
}

// ListDecks returns the ids of every presentation file, sorted.
func (d *Dir) ListDecks(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatOf(e.Name()); err != nil {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if seen[id] {
			return nil, fmt.Errorf("collision detected: deck %q is defined more than once in %s", id, d.root)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
