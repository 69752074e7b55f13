package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
)

// Options configures recipe graph rendering.
type Options struct {
	// Detailed adds the intrinsic cost to every label.
	Detailed bool

	// Path is highlighted when it is a walk over related aspects, such as
	// the result of [aspect.Graph.ShortestCostPath].
	Path []string
}

// ToDOT converts a recipe graph to Graphviz DOT. Every aspect points at its
// components, so primals end up on the bottom rank.
func ToDOT(g *aspect.Graph, opts Options) string {
	onPath := make(map[string]bool, len(opts.Path))
	stepEdges := make(map[[2]string]bool)
	for i, a := range opts.Path {
		onPath[a] = true
		if i > 0 {
			prev := opts.Path[i-1]
			stepEdges[[2]string{prev, a}] = true
			stepEdges[[2]string{a, prev}] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range g.Aspects() {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(g, name, opts.Detailed))}
		if g.IsPrimal(name) {
			attrs = append(attrs, "shape=ellipse", "fillcolor=lightgrey")
		}
		if onPath[name] {
			attrs = append(attrs, "color=firebrick", "penwidth=3")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, name := range g.Aspects() {
		comps, _ := g.Components(name)
		for _, c := range comps {
			if stepEdges[[2]string{name, c}] {
				fmt.Fprintf(&buf, "  %q -> %q [color=firebrick, penwidth=3];\n", name, c)
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", name, c)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *aspect.Graph, name string, detailed bool) string {
	if !detailed {
		return name
	}
	cost, _ := g.Cost(name)
	return fmt.Sprintf("%s\ncost: %d", name, cost)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
