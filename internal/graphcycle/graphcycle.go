package graphcycle

import (
	"fmt"
	"maps"
	"slices"
)

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports a cycle closed at Key. Path holds the walk from the
// first node of the loop back to Key.
type CycleError[K comparable] struct {
	Key  K
	Path []K
}

// Error returns the error string.
func (e CycleError[K]) Error() string {
	return fmt.Sprintf("cycle detected at %v", e.Key)
}

// Config describes a directed graph walked from Starts. Nodes for which
// Exists returns false are skipped.
type Config[K comparable] struct {
	Exists func(K) bool
	Next   func(K) ([]K, error)
	Starts []K
}

// TopoOrder returns Starts and everything reachable from them ordered so that
// every node comes after the nodes it points to. The first cycle met is
// returned as a CycleError.
func TopoOrder[K comparable](cfg Config[K]) ([]K, error) {
	if cfg.Next == nil {
		return nil, fmt.Errorf("topo order: next function is nil")
	}
	states := make(map[K]visitState, len(cfg.Starts))
	order := make([]K, 0, len(cfg.Starts))
	var stack []K

	var visit func(key K) error
	visit = func(key K) error {
		switch states[key] {
		case stateVisiting:
			return CycleError[K]{Key: key, Path: loopPath(stack, key)}
		case stateDone:
			return nil
		}

		if cfg.Exists != nil && !cfg.Exists(key) {
			return nil
		}

		states[key] = stateVisiting
		stack = append(stack, key)
		neighbors, err := cfg.Next(key)
		if err != nil {
			return err
		}
		for _, next := range neighbors {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[key] = stateDone
		order = append(order, key)
		return nil
	}

	for _, start := range cfg.Starts {
		if err := visit(start); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func loopPath[K comparable](stack []K, key K) []K {
	idx := slices.Index(stack, key)
	if idx < 0 {
		return []K{key}
	}
	path := slices.Clone(stack[idx:])
	return append(path, key)
}

// Depths computes the depth of every key in a single-parent hierarchy.
// Roots have depth 0. Parents outside keys are accepted when parentDepth
// reports them; their depth seeds the walk. A loop yields CycleError.
func Depths[K comparable](keys []K, parent func(K) (K, bool), parentDepth func(K) (int, bool)) (map[K]int, error) {
	depths := make(map[K]int, len(keys))
	inSet := make(map[K]bool, len(keys))
	for _, k := range keys {
		inSet[k] = true
	}

	for _, key := range keys {
		if _, ok := depths[key]; ok {
			continue
		}
		// walk up until a known depth, a root, or an external parent
		var chain []K
		onChain := make(map[K]bool)
		base := -1
		current := key
		for {
			if d, ok := depths[current]; ok {
				base = d
				break
			}
			if onChain[current] {
				return nil, CycleError[K]{Key: current, Path: loopPath(chain, current)}
			}
			onChain[current] = true
			chain = append(chain, current)

			p, ok := parent(current)
			if !ok {
				break
			}
			if !inSet[p] {
				if parentDepth != nil {
					if d, known := parentDepth(p); known {
						base = d
					}
				}
				break
			}
			current = p
		}
		for i := len(chain) - 1; i >= 0; i-- {
			base++
			depths[chain[i]] = base
		}
	}
	return depths, nil
}

// Buckets groups keys by ascending depth. Keys inside a bucket are ordered by compare.
func Buckets[K comparable](depths map[K]int, compare func(a, b K) int) [][]K {
	if len(depths) == 0 {
		return nil
	}
	byDepth := make(map[int][]K)
	for k, d := range depths {
		byDepth[d] = append(byDepth[d], k)
	}
	levels := slices.Sorted(maps.Keys(byDepth))
	out := make([][]K, 0, len(levels))
	for _, level := range levels {
		bucket := byDepth[level]
		slices.SortFunc(bucket, compare)
		out = append(out, bucket)
	}
	return out
}

