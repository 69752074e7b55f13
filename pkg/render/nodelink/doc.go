// Package nodelink renders the aspect recipe graph as a node-link diagram.
//
// # Usage
//
// Convert a graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Each aspect points at its components; primal aspects are drawn as grey
// ellipses. Setting [Options.Path] highlights a chain of related aspects,
// for example the cheapest path between two board cells.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. The DOT source can also be saved and fed to external tools.
package nodelink
