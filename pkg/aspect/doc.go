// Package aspect models the recipe book of aspects and the costs of moving
// between them.
//
// # Overview
//
// A recipe [Spec] maps every aspect name to the ordered list of components it
// is crafted from. Primal aspects have no components. From the spec, [New]
// builds a [Graph] holding two views of the same data:
//
//   - the directed recipe relation (parent to component), used only for the
//     intrinsic cost and for introspection via [Graph.Components] and
//     [Graph.Parents]
//   - the undirected relation graph, in which two aspects are adjacent iff one
//     is a direct component of the other; every search runs over this view
//
// # Costs
//
// The intrinsic cost of an aspect is 1 for a primal and 1 plus the sum of its
// component costs otherwise. Moving from one aspect to an adjacent one costs
// the intrinsic cost of the destination, so the relation is symmetric in
// adjacency but not in cost.
//
// Construction resolves costs depth-first with white/gray/black coloring. A
// recipe cycle aborts construction with a [*CycleError] naming the offending
// aspect and the chain that closes the loop.
//
// After costs are known, lvlath's Dijkstra runs from every aspect, over a
// directed copy where each edge weighs its destination's cost, to fill the
// pairwise minimum-cost table behind [Graph.MinCost]. The table is exact, and
// it doubles as the admissible heuristic for the two best-first searches:
//
//   - [Graph.ShortestCostPath]: cheapest path of any length
//   - [Graph.FixedStepPath]: cheapest path of exactly n hops
//
// # Recipe Book
//
// [Builtin] returns the bundled Thaumcraft recipe book. Custom books can be
// loaded through the io package from JSON or TOML.
//
// # Concurrency
//
// A Graph is immutable after [New] returns and is safe for concurrent reads.
package aspect
