// Package io reads and writes recipe books and boards.
//
// # Recipe Books
//
// A recipe book maps each aspect to the two aspects it is combined from.
// Primal aspects have no components. JSON books use null for primals:
//
//	{
//	  "aer": null,
//	  "ignis": null,
//	  "lux": ["aer", "ignis"]
//	}
//
// TOML has no null, so TOML books put every aspect under an [aspects] table
// and use an empty array for primals:
//
//	[aspects]
//	aer = []
//	ignis = []
//	lux = ["aer", "ignis"]
//
// [ImportRecipes] picks the format from the file extension. The result is an
// [aspect.Spec] ready for [aspect.New]; cycle and name checks happen there.
//
// # Boards
//
// A board describes the hexagon radius, cells that cannot be used and the
// aspects already placed, all in axial coordinates:
//
//	{
//	  "radius": 3,
//	  "disabled": [{"q": 0, "r": 0}],
//	  "placements": [
//	    {"q": -2, "r": 0, "aspect": "aer"},
//	    {"q": 2, "r": 0, "aspect": "ignis"}
//	  ]
//	}
//
// Placement order is kept: it is the seed order of a pairwise solve and the
// terminal order of an exact solve (the first one is the flow root).
// [BoardFromPlacement] turns a solver result back into the same format, so
// solved boards can be fed in again.
package io
