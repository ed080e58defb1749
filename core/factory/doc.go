// Package factory provides a small generic registry used to instantiate
// pluggable modules (corpus stores, metrics sinks, completion sources) from
// configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[corpus.Store]()
//	reg.Register("jsonl", func(conf map[string]any) (corpus.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return corpus.NewJSONLStore(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "data"}})
package factory
