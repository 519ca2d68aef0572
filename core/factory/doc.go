// Package factory provides a small generic registry used to instantiate classifiers
// and metrics sinks from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[classifier.Classifier]()
//	reg.Register("tree", func(conf map[string]any) (classifier.Classifier, error) {
//	    var c struct{ MaxDepth int `json:"max_depth"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return classifier.NewTree(c.MaxDepth, 1), nil
//	})
//	c, err := reg.Create(factory.ModuleConfig{Type: "tree", Conf: map[string]any{"max_depth": 6}})
package factory
