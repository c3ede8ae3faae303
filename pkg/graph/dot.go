package graph

import (
	"fmt"
	"strings"

	gographviz "github.com/awalterschulze/gographviz"
)

// RenderDOT produces a Graphviz digraph of g: one box per instance labelled
// with its name and type, one edge per flow with the source and target
// ports as tail and head labels. Duplicate flows become parallel edges.
func RenderDOT(name string, g *Graph) (string, error) {
	if name == "" {
		name = "components"
	}
	out := gographviz.NewEscape()
	if err := out.SetName(name); err != nil {
		return "", fmt.Errorf("dot name: %w", err)
	}
	if err := out.SetDir(true); err != nil {
		return "", fmt.Errorf("dot dir: %w", err)
	}
	if err := out.AddAttr(name, "rankdir", "LR"); err != nil {
		return "", fmt.Errorf("dot attr: %w", err)
	}

	for _, id := range g.InstanceNames() {
		in := g.Instances[id]
		attrs := map[string]string{
			"shape": "box",
			"label": nodeLabel(in),
		}
		if err := out.AddNode(name, id, attrs); err != nil {
			return "", fmt.Errorf("dot node %q: %w", id, err)
		}
	}

	for i, f := range g.Flows {
		attrs := map[string]string{
			"taillabel": f.SourcePort,
			"headlabel": f.TargetPort,
		}
		if err := out.AddEdge(f.SourceComponent, f.TargetComponent, true, attrs); err != nil {
			return "", fmt.Errorf("dot flow %d: %w", i, err)
		}
	}

	return out.String(), nil
}

// nodeLabel returns a quoted DOT string literal with the name and type on
// separate lines. It is passed through the escaper unchanged.
func nodeLabel(in *Instance) string {
	q := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + q.Replace(in.Name) + `\n` + q.Replace(in.Type) + `"`
}
