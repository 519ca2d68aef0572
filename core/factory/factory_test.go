package factory

import (
	"reflect"
	"testing"
)

type treeConf struct {
	MaxDepth int     `json:"max_depth"`
	MinLeaf  float64 `json:"min_leaf"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[treeConf]()
	if err := reg.Register("tree", func(conf map[string]any) (treeConf, error) {
		var c treeConf
		err := Decode(conf, &c)
		return c, err
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "tree", Conf: map[string]any{"max_depth": 4, "min_leaf": "2.5"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.MaxDepth != 4 || inst.MinLeaf != 2.5 {
		t.Fatalf("unexpected decode %+v", inst)
	}
	// nil conf leaves defaults untouched
	inst, err = reg.Create(ModuleConfig{Type: "tree"})
	if err != nil || inst.MaxDepth != 0 {
		t.Fatalf("expected zero conf, got %+v err=%v", inst, err)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"tree", "constant", "logistic"} {
		if err := reg.Register(n, func(map[string]any) (int, error) { return 0, nil }); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	want := []string{"constant", "logistic", "tree"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names %v want %v", got, want)
	}
}
