package completion

import (
	"fmt"

	"github.com/kilianp07/planday/core/factory"
)

// Completers returns a registry holding the local sources: "replay" (conf
// path), "static" (conf text) and "oracle". Transport-backed completers are
// registered by the application.
func Completers() *factory.Registry[Completer] {
	reg := factory.NewRegistry[Completer]()
	_ = reg.Register("replay", func(conf map[string]any) (Completer, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("replay completer requires a path")
		}
		return NewReplay(c.Path)
	})
	_ = reg.Register("static", func(conf map[string]any) (Completer, error) {
		var s Static
		if err := factory.Decode(conf, &s); err != nil {
			return nil, err
		}
		return s, nil
	})
	_ = reg.Register("oracle", func(map[string]any) (Completer, error) {
		return Oracle{}, nil
	})
	return reg
}
