package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/canvas"
)

// Options configures diagram generation.
type Options struct {
	// Detailed prints each anchor's position (and "·" for anchors without an
	// edge) inside its port. When false, ports are blank.
	Detailed bool
	// Labels maps node ids to display names. Nodes without an entry show
	// their id.
	Labels map[string]string
}

// ToDOT converts a canvas snapshot to Graphviz DOT. Each node becomes a
// record whose left column holds its input ports and whose right column holds
// its output ports, both in anchor position order. Edges run from output
// port to input port.
func ToDOT(snap canvas.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph canvas {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range snap.Nodes {
		name := n.ID
		if l, ok := opts.Labels[n.ID]; ok && l != "" {
			name = l
		}
		// With rankdir=LR the outer braces lay the three columns side by side.
		label := "{" + fmtPorts("i", n.Inputs, opts.Detailed) + "|" + escape(name) + "|" + fmtPorts("o", n.Outputs, opts.Detailed) + "}"
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, label)
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges {
		src, ok1 := portOf(snap, e.Source.NodeID, e.Source.HandleID, anchor.Output)
		dst, ok2 := portOf(snap, e.Target.NodeID, e.Target.HandleID, anchor.Input)
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, "  %q:%s:e -> %q:%s:w [id=%q];\n", e.Source.NodeID, src, e.Target.NodeID, dst, e.EdgeID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// fmtPorts renders one side of a record. An empty side still gets a blank
// field so every node has the same three-column shape.
func fmtPorts(prefix string, seq []anchor.Anchor, detailed bool) string {
	if len(seq) == 0 {
		return " "
	}
	fields := make([]string, len(seq))
	for i, a := range seq {
		text := " "
		if detailed {
			text = a.Position.String()
			if !a.Connected() {
				text += " ·"
			}
		}
		fields[i] = fmt.Sprintf("<%s%d> %s", prefix, i, escape(text))
	}
	return "{" + strings.Join(fields, "|") + "}"
}

func portOf(snap canvas.Snapshot, nodeID, handleID string, r anchor.Role) (string, bool) {
	n, ok := snap.Node(nodeID)
	if !ok {
		return "", false
	}
	seq, prefix := n.Inputs, "i"
	if r == anchor.Output {
		seq, prefix = n.Outputs, "o"
	}
	for i, a := range seq {
		if a.ID == handleID {
			return prefix + strconv.Itoa(i), true
		}
	}
	return "", false
}

var recordEscaper = strings.NewReplacer(
	`{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`,
)

func escape(s string) string {
	return recordEscaper.Replace(s)
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

// normalizeViewBox replaces Graphviz's pt-sized root element with one sized
// in pixels and anchored at the origin.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
