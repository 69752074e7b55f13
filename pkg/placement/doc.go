// Package placement synthesizes aspect placements on a hex grid.
//
// Given a few seed cells with fixed aspects, a [Synthesizer] fills in
// intermediate cells so that every seed is joined to the rest by a chain of
// adjacent cells whose aspects are pairwise related. Two strategies exist:
//
//   - pairwise ([Synthesizer.SolveSeeds]): seeds are linked one at a time to
//     the growing placed set. For each placed target the step count is scanned
//     upward from the grid distance; at each count an aspect chain of exactly
//     that many hops is looked up first, then a grid path of the same length
//     that avoids other placed cells. The link with the fewest steps, then the
//     cheapest chain, wins.
//   - contiguous ([Synthesizer.SolveContiguous]): the placement is split into
//     connected groups and one group at a time is joined to the others.
//
// Exhausted searches never fail a solve. A seed that cannot be linked stays
// isolated and is listed in [Report.Isolated].
//
// Merges are last-write-wins. A link may run through the cell of a seed that
// has not been processed yet; that seed later reclaims its cell and the cell
// is listed in [Report.Overwritten]. [WithProtectSeeds] forbids this.
package placement
