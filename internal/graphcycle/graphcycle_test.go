package graphcycle

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestTopoOrderCycle(t *testing.T) {
	graph := map[int][]int{
		1: {2},
		2: {3},
		3: {1},
	}
	_, err := TopoOrder(Config[int]{
		Starts: []int{1},
		Exists: func(n int) bool {
			_, ok := graph[n]
			return ok
		},
		Next: func(n int) ([]int, error) {
			return graph[n], nil
		},
	})
	if err == nil {
		t.Fatalf("TopoOrder() expected cycle error")
	}
	var cycleError CycleError[int]
	if !errors.As(err, &cycleError) {
		t.Fatalf("TopoOrder() error = %T, want CycleError[int]", err)
	}
	if want := []int{1, 2, 3, 1}; !slices.Equal(cycleError.Path, want) {
		t.Fatalf("CycleError.Path = %v, want %v", cycleError.Path, want)
	}
}

func TestTopoOrderSkipsMissing(t *testing.T) {
	graph := map[int][]int{
		1: {2, 3},
		3: nil,
	}
	order, err := TopoOrder(Config[int]{
		Starts: []int{1},
		Exists: func(n int) bool {
			_, ok := graph[n]
			return ok
		},
		Next: func(n int) ([]int, error) {
			return graph[n], nil
		},
	})
	if err != nil {
		t.Fatalf("TopoOrder() error = %v", err)
	}
	if want := []int{3, 1}; !slices.Equal(order, want) {
		t.Fatalf("TopoOrder() = %v, want %v", order, want)
	}
}

func TestTopoOrderNilNext(t *testing.T) {
	_, err := TopoOrder(Config[int]{Starts: []int{1}})
	if err == nil {
		t.Fatal("TopoOrder() error = nil, want error")
	}
}

func TestTopoOrderDependenciesFirst(t *testing.T) {
	deps := map[string][]string{
		"app":     {"content", "system"},
		"content": {"system"},
		"system":  nil,
	}
	order, err := TopoOrder(Config[string]{
		Starts: []string{"app", "content", "system"},
		Next: func(n string) ([]string, error) {
			return deps[n], nil
		},
	})
	if err != nil {
		t.Fatalf("TopoOrder() error = %v", err)
	}
	if want := []string{"system", "content", "app"}; !slices.Equal(order, want) {
		t.Fatalf("TopoOrder() = %v, want %v", order, want)
	}
}

func TestDepths(t *testing.T) {
	parents := map[string]string{
		"folder":  "cmobject",
		"content": "cmobject",
		"special": "folder",
	}
	keys := []string{"special", "content", "folder", "cmobject"}
	depths, err := Depths(keys, func(k string) (string, bool) {
		p, ok := parents[k]
		return p, ok
	}, nil)
	if err != nil {
		t.Fatalf("Depths() error = %v", err)
	}
	want := map[string]int{"cmobject": 0, "folder": 1, "content": 1, "special": 2}
	for k, d := range want {
		if depths[k] != d {
			t.Fatalf("depth[%s] = %d, want %d", k, depths[k], d)
		}
	}

	buckets := Buckets(depths, strings.Compare)
	if len(buckets) != 3 {
		t.Fatalf("Buckets() len = %d, want 3", len(buckets))
	}
	if !slices.Equal(buckets[1], []string{"content", "folder"}) {
		t.Fatalf("Buckets()[1] = %v, want [content folder]", buckets[1])
	}
}

func TestDepthsExternalParent(t *testing.T) {
	depths, err := Depths([]string{"local"}, func(k string) (string, bool) {
		if k == "local" {
			return "external", true
		}
		return "", false
	}, func(k string) (int, bool) {
		return 3, k == "external"
	})
	if err != nil {
		t.Fatalf("Depths() error = %v", err)
	}
	if depths["local"] != 4 {
		t.Fatalf("depth[local] = %d, want 4", depths["local"])
	}
}

func TestDepthsCycle(t *testing.T) {
	parents := map[string]string{"a": "b", "b": "a", "c": "a"}
	_, err := Depths([]string{"c", "a", "b"}, func(k string) (string, bool) {
		p, ok := parents[k]
		return p, ok
	}, nil)
	var cycleErr CycleError[string]
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Depths() error = %v, want CycleError", err)
	}
	if cycleErr.Key != "a" && cycleErr.Key != "b" {
		t.Fatalf("CycleError.Key = %q, want a class in the loop", cycleErr.Key)
	}
}
