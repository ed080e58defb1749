package config

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed categories.json
var defaultCategories []byte

// Categories maps a category name to its pool of event labels.
type Categories map[string][]string

// Names returns the category names in lexical order so that seeded draws are
// reproducible.
func (c Categories) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every pool can supply minPool distinct labels.
func (c Categories) Validate(minPool int) error {
	if len(c) == 0 {
		return fmt.Errorf("no categories defined")
	}
	for name, labels := range c {
		seen := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			if l == "" {
				return fmt.Errorf("category %s: empty label", name)
			}
			if _, ok := seen[l]; ok {
				return fmt.Errorf("category %s: duplicate label %q", name, l)
			}
			seen[l] = struct{}{}
		}
		if len(labels) < minPool {
			return fmt.Errorf("category %s has %d labels, need at least %d", name, len(labels), minPool)
		}
	}
	return nil
}

// LoadCategories reads a category file in JSON or YAML.
func LoadCategories(path string) (Categories, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	// category names may contain dots
	k := koanf.New("::")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	return unmarshalCategories(k)
}

// DefaultCategories returns the embedded category pools.
func DefaultCategories() (Categories, error) {
	k := koanf.New("::")
	if err := k.Load(rawBytes(defaultCategories), json.Parser()); err != nil {
		return nil, err
	}
	return unmarshalCategories(k)
}

func unmarshalCategories(k *koanf.Koanf) (Categories, error) {
	var c Categories
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	return c, nil
}

// rawBytes is a koanf provider over an in-memory document.
type rawBytes []byte

func (b rawBytes) ReadBytes() ([]byte, error) { return b, nil }

func (b rawBytes) Read() (map[string]any, error) {
	return nil, fmt.Errorf("raw bytes provider requires a parser")
}
