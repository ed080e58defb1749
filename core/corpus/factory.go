package corpus

import (
	"fmt"

	"github.com/kilianp07/planday/core/factory"
)

// Options is the raw configuration shared by the store backends. Path is a
// directory for the JSONL stores and a database file or DSN for sqlite.
type Options struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Stores returns a registry holding the built-in backends: "jsonl",
// "rotating" and "sqlite".
func Stores() *factory.Registry[Store] {
	reg := factory.NewRegistry[Store]()
	_ = reg.Register("jsonl", func(conf map[string]any) (Store, error) {
		o, err := decodeOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(o.Path)
	})
	_ = reg.Register("rotating", func(conf map[string]any) (Store, error) {
		o, err := decodeOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(o.Path, RotatingOptions{
			MaxSizeMB:  o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAgeDays: o.MaxAgeDays,
		})
	})
	_ = reg.Register("sqlite", func(conf map[string]any) (Store, error) {
		o, err := decodeOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(o.Path)
	})
	return reg
}

func decodeOptions(conf map[string]any) (Options, error) {
	var o Options
	if err := factory.Decode(conf, &o); err != nil {
		return o, err
	}
	if o.Path == "" {
		return o, fmt.Errorf("store path is required")
	}
	return o, nil
}
