package hexgrid

import (
	"context"
	"slices"
)

// ShortestPath runs a breadth-first search from start and returns the first
// discovered path to any of goals, start and goal inclusive. The path has the
// minimum hop count. It returns nil when no goal is reachable and
// [ErrNodeNotFound] when start or a goal is unknown.
func (g *Grid) ShortestPath(start NodeID, goals ...NodeID) ([]NodeID, error) {
	if err := g.check(start); err != nil {
		return nil, err
	}
	if err := g.check(goals...); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}
	if slices.Contains(goals, start) {
		return []NodeID{start}, nil
	}

	goalSet := setOf(goals)
	prev := map[NodeID]NodeID{start: start}
	queue := []NodeID{start}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		for _, v := range g.neighbors(u) {
			if _, seen := prev[v]; seen {
				continue
			}
			prev[v] = u
			if _, ok := goalSet[v]; ok {
				return walkBack(prev, start, v), nil
			}
			queue = append(queue, v)
		}
	}
	return nil, nil
}

// PathWithExactLength searches depth-first for a simple path from start to
// goal using exactly length edges. Cells in blocked are never entered, except
// start and goal themselves. The first path found in neighbor enumeration
// order is returned; it is not necessarily unique or cheapest. nil means no
// such path exists.
//
// The search is exhaustive backtracking. Branches that cannot reach goal in
// the remaining number of steps (by unconstrained BFS distance) are pruned.
func (g *Grid) PathWithExactLength(start, goal NodeID, length int, blocked []NodeID) ([]NodeID, error) {
	return g.PathWithExactLengthContext(context.Background(), start, goal, length, blocked)
}

// PathWithExactLengthContext is [Grid.PathWithExactLength] with a context
// that stops the backtracking early. It returns ctx.Err() when stopped.
func (g *Grid) PathWithExactLengthContext(ctx context.Context, start, goal NodeID, length int, blocked []NodeID) ([]NodeID, error) {
	if err := g.check(start, goal); err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, nil
	}
	if length == 0 {
		if start == goal {
			return []NodeID{start}, nil
		}
		return nil, nil
	}
	if start == goal {
		return nil, nil
	}

	block := setOf(blocked)
	delete(block, start)
	delete(block, goal)

	dist := g.distancesFrom(goal, block)
	if d, ok := dist[start]; !ok || d > length {
		return nil, nil
	}

	s := exactSearch{
		interrupt: interrupt{ctx: ctx},
		grid:      g,
		goal:      goal,
		block:     block,
		dist:      dist,
		visited:   map[NodeID]bool{start: true},
		path:      []NodeID{start},
	}
	found := s.dfs(start, length)
	if s.err != nil {
		return nil, s.err
	}
	if found {
		return s.path, nil
	}
	return nil, nil
}

// interrupt polls a context every few hundred search steps.
type interrupt struct {
	ctx   context.Context
	steps int
	err   error
}

func (in *interrupt) stopped() bool {
	if in.err != nil {
		return true
	}
	if in.steps%256 == 0 {
		in.err = in.ctx.Err()
	}
	in.steps++
	return in.err != nil
}

type exactSearch struct {
	interrupt
	grid    *Grid
	goal    NodeID
	block   map[NodeID]struct{}
	dist    map[NodeID]int
	visited map[NodeID]bool
	path    []NodeID
}

func (s *exactSearch) dfs(u NodeID, remaining int) bool {
	if u == s.goal {
		return remaining == 0
	}
	if s.stopped() {
		return false
	}
	for _, v := range s.grid.neighbors(u) {
		if s.visited[v] {
			continue
		}
		if _, blocked := s.block[v]; blocked {
			continue
		}
		if v == s.goal && remaining != 1 {
			continue
		}
		if d, ok := s.dist[v]; !ok || d > remaining-1 {
			continue
		}
		s.visited[v] = true
		s.path = append(s.path, v)
		if s.dfs(v, remaining-1) {
			return true
		}
		s.path = s.path[:len(s.path)-1]
		s.visited[v] = false
	}
	return false
}

// distancesFrom returns BFS hop counts from src over enabled, unblocked cells.
func (g *Grid) distancesFrom(src NodeID, block map[NodeID]struct{}) map[NodeID]int {
	dist := map[NodeID]int{src: 0}
	queue := []NodeID{src}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		for _, v := range g.neighbors(u) {
			if _, seen := dist[v]; seen {
				continue
			}
			if _, blocked := block[v]; blocked {
				continue
			}
			dist[v] = dist[u] + 1
			queue = append(queue, v)
		}
	}
	return dist
}

// FindPathMinimumLength returns a shortest simple path from start that ends
// on one of targets and uses at least minLength edges. Targets reached too
// early do not end the search; the walk carries on around them. Targets are
// path ends only and are never passed through. Cells in blocked are avoided
// unless they are targets. nil means no target qualifies.
//
// Lengths are tried in increasing order, each by backtracking search. A
// branch is cut when the free cells still reachable from it are too few to
// make up the remaining length, or when no target is close enough.
func (g *Grid) FindPathMinimumLength(start NodeID, targets []NodeID, minLength int, blocked []NodeID) ([]NodeID, error) {
	return g.FindPathMinimumLengthContext(context.Background(), start, targets, minLength, blocked)
}

// FindPathMinimumLengthContext is [Grid.FindPathMinimumLength] with a
// context that stops the search early. It returns ctx.Err() when stopped.
func (g *Grid) FindPathMinimumLengthContext(ctx context.Context, start NodeID, targets []NodeID, minLength int, blocked []NodeID) ([]NodeID, error) {
	if err := g.check(start); err != nil {
		return nil, err
	}
	if err := g.check(targets...); err != nil {
		return nil, err
	}
	targetSet := setOf(targets)
	if _, ok := targetSet[start]; ok && minLength <= 0 {
		return []NodeID{start}, nil
	}
	block := setOf(blocked)
	for t := range targetSet {
		delete(block, t)
	}

	s := minLengthSearch{
		interrupt: interrupt{ctx: ctx},
		grid:      g,
		targets:   targetSet,
		block:     block,
		visited:   map[NodeID]bool{start: true},
		path:      []NodeID{start},
	}
	reach, nearest := s.reach(start)
	if nearest < 0 {
		return nil, nil
	}
	// a path can pass through at most every reachable free cell
	longest := reach + 1
	for length := max(minLength, nearest); length <= longest; length++ {
		found := s.dfs(start, length)
		if s.err != nil {
			return nil, s.err
		}
		if found {
			return s.path, nil
		}
	}
	return nil, nil
}

type minLengthSearch struct {
	interrupt
	grid    *Grid
	targets map[NodeID]struct{}
	block   map[NodeID]struct{}
	visited map[NodeID]bool
	path    []NodeID
}

// free reports whether v may be used as an intermediate cell.
func (s *minLengthSearch) free(v NodeID) bool {
	if s.visited[v] {
		return false
	}
	if _, ok := s.targets[v]; ok {
		return false
	}
	_, blocked := s.block[v]
	return !blocked
}

// reach runs a BFS from u over free cells. It returns how many free cells
// it found and the fewest edges from u to an unvisited target, or -1.
func (s *minLengthSearch) reach(u NodeID) (int, int) {
	dist := map[NodeID]int{u: 0}
	queue := []NodeID{u}
	count, nearest := 0, -1
	for qi := 0; qi < len(queue); qi++ {
		w := queue[qi]
		for _, v := range s.grid.neighbors(w) {
			if _, seen := dist[v]; seen {
				continue
			}
			if _, ok := s.targets[v]; ok && !s.visited[v] {
				if nearest < 0 {
					nearest = dist[w] + 1
				}
				continue
			}
			if !s.free(v) {
				continue
			}
			dist[v] = dist[w] + 1
			count++
			queue = append(queue, v)
		}
	}
	return count, nearest
}

func (s *minLengthSearch) dfs(u NodeID, remaining int) bool {
	if s.stopped() {
		return false
	}
	if remaining == 1 {
		for _, v := range s.grid.neighbors(u) {
			if _, ok := s.targets[v]; ok && !s.visited[v] {
				s.path = append(s.path, v)
				return true
			}
		}
		return false
	}
	if count, nearest := s.reach(u); nearest < 0 || nearest > remaining || count < remaining-1 {
		return false
	}
	for _, v := range s.grid.neighbors(u) {
		if !s.free(v) {
			continue
		}
		s.visited[v] = true
		s.path = append(s.path, v)
		if s.dfs(v, remaining-1) {
			return true
		}
		s.path = s.path[:len(s.path)-1]
		s.visited[v] = false
	}
	return false
}

// Components splits nodes into groups connected through enabled grid
// adjacency among the given nodes only. Each component is sorted ascending
// and components are ordered by their smallest id.
func (g *Grid) Components(nodes []NodeID) ([][]NodeID, error) {
	if err := g.check(nodes...); err != nil {
		return nil, err
	}
	member := setOf(nodes)
	seen := make(map[NodeID]bool, len(member))
	var comps [][]NodeID

	ordered := slices.Clone(nodes)
	slices.Sort(ordered)
	for _, n := range ordered {
		if seen[n] {
			continue
		}
		seen[n] = true
		queue := []NodeID{n}
		for qi := 0; qi < len(queue); qi++ {
			for _, v := range g.neighbors(queue[qi]) {
				if _, ok := member[v]; !ok || seen[v] {
					continue
				}
				seen[v] = true
				queue = append(queue, v)
			}
		}
		slices.Sort(queue)
		comps = append(comps, queue)
	}
	return comps, nil
}

func walkBack(prev map[NodeID]NodeID, start, end NodeID) []NodeID {
	path := []NodeID{end}
	for cur := end; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

func setOf(ids []NodeID) map[NodeID]struct{} {
	s := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
