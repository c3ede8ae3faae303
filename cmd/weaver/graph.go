package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
	"github.com/ravi-parthasarathy/weaver/pkg/graph"
	"github.com/ravi-parthasarathy/weaver/pkg/graphio"
)

// ─── types ────────────────────────────────────────────────────────────────────

func typesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the component types in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Load(opts.catalogPath)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTypes(cat))
			return nil
		},
	}
}

func renderTypes(cat *catalog.Catalog) string {
	var sb strings.Builder
	for _, name := range cat.ListTypes() {
		def, err := cat.GetType(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%s\n", name)
		var params []string
		for _, k := range slices.Sorted(maps.Keys(def.Parameters)) {
			params = append(params, k+"="+def.Parameters[k])
		}
		fmt.Fprintf(&sb, "  parameters: %s\n", strings.Join(params, " "))
		fmt.Fprintf(&sb, "  inputs:     %s\n", strings.Join(def.Inputs, " "))
		fmt.Fprintf(&sb, "  outputs:    %s\n", strings.Join(def.Outputs, " "))
		fmt.Fprintf(&sb, "  state:      %s\n", strings.Join(def.State, " "))
	}
	return sb.String()
}

// ─── lint ─────────────────────────────────────────────────────────────────────

func lintCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <dir>",
		Short: "Check a stored graph against the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			g, err := graphio.LoadDir(args[0])
			if err != nil {
				return err
			}
			if lintErr := graph.ValidateErr(g, s.Model().Catalog()); lintErr != nil {
				return lintErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: graph in %s is valid (%d components, %d flows)\n",
				args[0], len(g.Instances), len(g.Flows))
			return nil
		},
	}
}

// ─── graph ────────────────────────────────────────────────────────────────────

func graphCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph <dir>",
		Short: "Print a human-readable summary of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			g := s.Model().Snapshot()

			switch strings.ToLower(format) {
			case "dot":
				out, err := graph.RenderDOT(s.Config().GraphName, g)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			case "text", "":
				fmt.Fprint(cmd.OutOrStdout(), renderText(s.Config().GraphName, g))
			default:
				return fmt.Errorf("unknown format %q: use text or dot", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or dot")
	return cmd
}

// flowOrder returns instance names breadth-first from the components no
// flow enters; names not reached that way follow in sorted order.
func flowOrder(g *graph.Graph) []string {
	names := g.InstanceNames()

	var queue []string
	for _, name := range names {
		if len(g.IncomingFlows(name)) == 0 {
			queue = append(queue, name)
		}
	}

	visited := map[string]bool{}
	var order []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		order = append(order, cur)
		for _, f := range g.OutgoingFlows(cur) {
			if !visited[f.TargetComponent] {
				queue = append(queue, f.TargetComponent)
			}
		}
	}

	for _, name := range names {
		if !visited[name] {
			order = append(order, name)
		}
	}
	return order
}

// truncate shortens s to maxLen chars, appending "…" if needed.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

func portList(p graph.Ports) string {
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(p)) {
		parts = append(parts, k+strings.Join(p[k], ""))
	}
	return strings.Join(parts, " ")
}

// renderText produces the human-readable text summary.
func renderText(name string, g *graph.Graph) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Graph: %s  (%d components, %d flows)\n", name, len(g.Instances), len(g.Flows))

	maxNameLen := 4
	for n := range g.Instances {
		if len(n) > maxNameLen {
			maxNameLen = len(n)
		}
	}

	fmt.Fprintf(&sb, "\nComponents:\n")
	for _, n := range flowOrder(g) {
		in := g.Instances[n]
		var params []string
		for _, k := range slices.Sorted(maps.Keys(in.Parameters)) {
			params = append(params, k+"="+truncate(in.Parameters[k], 40))
		}
		fmt.Fprintf(&sb, "  %-*s  %-12s  %s\n", maxNameLen, n, in.Type, strings.Join(params, " "))
		for _, row := range []struct {
			label string
			ports graph.Ports
		}{{"in", in.Inputs}, {"out", in.Outputs}, {"state", in.State}} {
			if len(row.ports) > 0 {
				fmt.Fprintf(&sb, "  %-*s    %-5s %s\n", maxNameLen, "", row.label, portList(row.ports))
			}
		}
	}

	fmt.Fprintf(&sb, "\nFlows:\n")
	maxFromLen := 4
	for _, f := range g.Flows {
		if l := len(f.SourceComponent) + 1 + len(f.SourcePort); l > maxFromLen {
			maxFromLen = l
		}
	}
	for _, f := range g.Flows {
		fmt.Fprintf(&sb, "  %-*s  →  %s.%s\n", maxFromLen, f.SourceComponent+"."+f.SourcePort, f.TargetComponent, f.TargetPort)
	}

	return sb.String()
}

// ─── bundle ───────────────────────────────────────────────────────────────────

func bundleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <dir> <out.json>",
		Short: "Write the run bundle (config, components, flows) for an external runner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			if err := s.ExportRun(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}
