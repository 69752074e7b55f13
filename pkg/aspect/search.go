package aspect

import (
	"container/heap"
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dijkstra"
)

// item is a priority queue entry. Entries are never updated in place; a
// better cost pushes a fresh entry and stale ones are skipped on pop.
type item struct {
	name string
	step int
	g    int // accumulated cost
	f    int // g plus heuristic
}

type queue []item

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	if q[i].step != q[j].step {
		return q[i].step < q[j].step
	}
	return q[i].name < q[j].name
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// index builds the lvlath views of the relation graph and fills the
// pairwise cost table. Costs run over a directed weighted copy where the
// edge a->b weighs cost(b), so entering an aspect pays its intrinsic cost
// and the source itself is free.
func (g *Graph) index() error {
	weighted := core.NewGraph(core.WithDirected(true), core.WithWeighted())
	g.links = core.NewGraph()
	for _, name := range g.names {
		if err := weighted.AddVertex(name); err != nil {
			return err
		}
		if err := g.links.AddVertex(name); err != nil {
			return err
		}
		for _, next := range g.relations[name] {
			if _, err := weighted.AddEdge(name, next, int64(g.cost[next])); err != nil {
				return fmt.Errorf("aspect: relation %s-%s: %w", name, next, err)
			}
			if name < next {
				if _, err := g.links.AddEdge(name, next, 0); err != nil {
					return fmt.Errorf("aspect: relation %s-%s: %w", name, next, err)
				}
			}
		}
	}

	g.table = make(map[string]map[string]int, len(g.names))
	for _, src := range g.names {
		dist, _, err := dijkstra.Dijkstra(weighted, dijkstra.Source(src))
		if err != nil {
			return fmt.Errorf("aspect: costs from %s: %w", src, err)
		}
		row := make(map[string]int, len(dist))
		for name, d := range dist {
			if d != math.MaxInt64 {
				row[name] = int(d)
			}
		}
		g.table[src] = row
	}
	return nil
}

// ShortestCostPath returns the cheapest aspect path from start to goal,
// both inclusive, or nil if goal is unreachable. It is an A* search using
// [Graph.MinCost] as the heuristic.
func (g *Graph) ShortestCostPath(start, goal string) ([]string, error) {
	if err := g.check(start, goal); err != nil {
		return nil, err
	}
	if g.minCost(start, goal) == Infinite {
		return nil, nil
	}

	best := map[string]int{start: 0}
	prev := map[string]string{}
	pq := &queue{{name: start, f: g.minCost(start, goal)}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if cur.g > best[cur.name] {
			continue
		}
		if cur.name == goal {
			path := []string{goal}
			for n := goal; n != start; {
				n = prev[n]
				path = append(path, n)
			}
			slices.Reverse(path)
			return path, nil
		}
		for _, next := range g.relations[cur.name] {
			h := g.minCost(next, goal)
			if h == Infinite {
				continue
			}
			ng := cur.g + g.cost[next]
			if b, ok := best[next]; ok && ng >= b {
				continue
			}
			best[next] = ng
			prev[next] = cur.name
			heap.Push(pq, item{name: next, g: ng, f: ng + h})
		}
	}
	return nil, nil
}

type stepKey struct {
	name string
	step int
}

// FixedStepPath returns the cheapest path from start to goal that takes
// exactly steps hops, or nil if none exists. The path may revisit aspects.
// steps == 0 succeeds only when start == goal.
//
// The search is best-first over (aspect, step) states with [Graph.MinCost]
// as heuristic. States whose hop distance to goal exceeds the remaining
// steps are pruned.
func (g *Graph) FixedStepPath(start, goal string, steps int) ([]string, error) {
	if err := g.check(start, goal); err != nil {
		return nil, err
	}
	if steps < 0 {
		return nil, nil
	}
	if steps == 0 {
		if start == goal {
			return []string{start}, nil
		}
		return nil, nil
	}

	hops, err := g.hopsTo(goal)
	if err != nil {
		return nil, err
	}
	if h, ok := hops[start]; !ok || h > steps {
		return nil, nil
	}

	origin := stepKey{start, 0}
	best := map[stepKey]int{origin: 0}
	prev := map[stepKey]stepKey{}
	pq := &queue{{name: start, f: g.minCost(start, goal)}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		key := stepKey{cur.name, cur.step}
		if cur.g > best[key] {
			continue
		}
		if cur.step == steps {
			if cur.name != goal {
				continue
			}
			path := make([]string, steps+1)
			for k := key; ; k = prev[k] {
				path[k.step] = k.name
				if k == origin {
					break
				}
			}
			return path, nil
		}
		left := steps - cur.step - 1
		for _, next := range g.relations[cur.name] {
			if h, ok := hops[next]; !ok || h > left {
				continue
			}
			nk := stepKey{next, cur.step + 1}
			ng := cur.g + g.cost[next]
			if b, ok := best[nk]; ok && ng >= b {
				continue
			}
			best[nk] = ng
			prev[nk] = key
			heap.Push(pq, item{name: next, step: nk.step, g: ng, f: ng + g.minCost(next, goal)})
		}
	}
	return nil, nil
}

// hopsTo returns the relation-graph hop count from every reachable aspect
// to goal. Relations are symmetric, so a breadth-first walk from goal gives
// the distances towards it.
func (g *Graph) hopsTo(goal string) (map[string]int, error) {
	res, err := bfs.BFS(g.links, goal)
	if err != nil {
		return nil, fmt.Errorf("aspect: hops to %s: %w", goal, err)
	}
	return res.Depth, nil
}
