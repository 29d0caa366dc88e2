package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modelyard/modelyard/pkg/utils"
)

// Graph is the dependency graph of pipeline stages.
//
// Stage B depends on stage A when a dep of B is an out of A.
type Graph struct {
	stages   map[string]Stage
	producer map[string]string
	upstream map[string][]string
	order    []string
}

// NewGraph builds the stage graph of a manifest.
//
// It returns error when the manifest is invalid or stages depend on each
// other in a loop.
func NewGraph(man *Manifest) (*Graph, error) {
	if err := man.Validate(); err != nil {
		return nil, err
	}

	names := utils.KeysOf(man.Stages)
	sort.Strings(names)

	producer := map[string]string{}
	for _, name := range names {
		for _, out := range man.Stages[name].Outs {
			producer[out] = name
		}
	}

	upstream := map[string][]string{}
	for _, name := range names {
		ups := map[string]bool{}
		for _, dep := range man.Stages[name].Deps {
			if p, ok := producer[dep]; ok {
				ups[p] = true
			}
		}
		sorted := utils.KeysOf(ups)
		sort.Strings(sorted)
		upstream[name] = sorted
	}

	g := &Graph{stages: man.Stages, producer: producer, upstream: upstream}
	if err := g.findLoop(names); err != nil {
		return nil, err
	}
	g.order = g.topoSort(names)
	return g, nil
}

// findLoop scans for dependency loops, depth first.
func (g *Graph) findLoop(names []string) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	stack := []string{}

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		stack = append(stack, name)
		for _, up := range g.upstream[name] {
			switch color[up] {
			case gray:
				from := 0
				for i, n := range stack {
					if n == up {
						from = i
						break
					}
				}
				loop := append(append([]string{}, stack[from:]...), up)
				return fmt.Errorf(
					"stages depend on each other in a loop: %s",
					strings.Join(loop, " -> "),
				)
			case white:
				if err := visit(up); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, name := range names {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// topoSort orders stages so that producers come before consumers.
//
// Ties are broken by stage name, so the order is stable for a manifest.
func (g *Graph) topoSort(names []string) []string {
	indeg := map[string]int{}
	downstream := map[string][]string{}
	for _, name := range names {
		indeg[name] = len(g.upstream[name])
		for _, up := range g.upstream[name] {
			downstream[up] = append(downstream[up], name)
		}
	}

	ready := []string{}
	for _, name := range names {
		if indeg[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(names))
	for 0 < len(ready) {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, down := range downstream[name] {
			indeg[down] -= 1
			if indeg[down] == 0 {
				ready = append(ready, down)
			}
		}
		sort.Strings(ready)
	}
	return order
}

// TopoOrder lists all stages, producers before consumers.
func (g *Graph) TopoOrder() []string {
	return append([]string{}, g.order...)
}

// Stage finds a stage by name.
func (g *Graph) Stage(name string) (Stage, bool) {
	st, ok := g.stages[name]
	return st, ok
}

// Producer finds the stage declaring the out.
func (g *Graph) Producer(out string) (string, bool) {
	name, ok := g.producer[out]
	return name, ok
}

// Upstream lists the stages the named stage directly depends on.
func (g *Graph) Upstream(name string) []string {
	return append([]string{}, g.upstream[name]...)
}

// AncestorClosure lists the target and every stage it depends on,
// directly or not, producers before consumers.
func (g *Graph) AncestorClosure(target string) ([]string, error) {
	if _, ok := g.stages[target]; !ok {
		return nil, fmt.Errorf("stage %s is not in the pipeline", target)
	}

	wanted := map[string]bool{target: true}
	queue := []string{target}
	for 0 < len(queue) {
		name := queue[0]
		queue = queue[1:]
		for _, up := range g.upstream[name] {
			if !wanted[up] {
				wanted[up] = true
				queue = append(queue, up)
			}
		}
	}

	closure := []string{}
	for _, name := range g.order {
		if wanted[name] {
			closure = append(closure, name)
		}
	}
	return closure, nil
}
