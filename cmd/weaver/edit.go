package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
	"github.com/ravi-parthasarathy/weaver/pkg/graph"
	"github.com/ravi-parthasarathy/weaver/pkg/graphio"
	"github.com/ravi-parthasarathy/weaver/pkg/session"
)

// ─── new ──────────────────────────────────────────────────────────────────────

func newCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new <dir>",
		Short: "Create an empty graph in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			_, err := os.Stat(filepath.Join(dir, graphio.NodesFile))
			switch {
			case err == nil && !force:
				return fmt.Errorf("%s already holds a graph; pass --force to replace it", dir)
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return err
			}
			if err := graphio.SaveDir(dir, graph.New()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created empty graph in %s\n", dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing graph")
	return cmd
}

// ─── add / configure ─────────────────────────────────────────────────────────

// fieldEdits collects the flags that adjust a component form before it is
// submitted. Ports are named either bare ("x") or qualified by category
// ("inputs.x") when a type declares the same name in more than one
// category.
type fieldEdits struct {
	params  []string
	enable  []string
	disable []string
	shapes  []string
}

func (fe *fieldEdits) register(cmd *cobra.Command, withEnable bool) {
	cmd.Flags().StringArrayVar(&fe.params, "param", nil, "set a parameter, key=value (repeatable)")
	cmd.Flags().StringArrayVar(&fe.disable, "disable", nil, "disable a port (repeatable)")
	cmd.Flags().StringArrayVar(&fe.shapes, "shape", nil, "enable a port with a shape, port=shape; repeat a port to add shapes")
	if withEnable {
		cmd.Flags().StringArrayVar(&fe.enable, "enable", nil, "enable a port with its default shape (repeatable)")
	}
}

// apply edits params and the three port maps in place.
func (fe *fieldEdits) apply(def catalog.TypeDef, cfg session.Config, params map[string]string, inputs, outputs, state graph.Ports) error {
	ports := map[string]graph.Ports{"inputs": inputs, "outputs": outputs, "state": state}

	for _, kv := range fe.params {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("--param %q: want key=value", kv)
		}
		params[k] = v
	}
	for _, ref := range fe.disable {
		category, field, err := resolvePort(def, ref)
		if err != nil {
			return err
		}
		delete(ports[category], field)
	}
	for _, ref := range fe.enable {
		category, field, err := resolvePort(def, ref)
		if err != nil {
			return err
		}
		if _, on := ports[category][field]; !on {
			ports[category][field] = []string{cfg.DefaultShape(field)}
		}
	}
	replaced := map[string]bool{}
	for _, kv := range fe.shapes {
		ref, shape, ok := strings.Cut(kv, "=")
		if !ok || shape == "" {
			return fmt.Errorf("--shape %q: want port=shape", kv)
		}
		category, field, err := resolvePort(def, ref)
		if err != nil {
			return err
		}
		key := category + "." + field
		if !replaced[key] {
			ports[category][field] = nil
			replaced[key] = true
		}
		ports[category][field] = append(ports[category][field], shape)
	}
	return nil
}

// resolvePort maps a port reference to its category and field name.
func resolvePort(def catalog.TypeDef, ref string) (string, string, error) {
	declared := map[string]func(string) bool{
		"inputs":  def.HasInput,
		"outputs": def.HasOutput,
		"state":   def.HasState,
	}
	if category, field, ok := strings.Cut(ref, "."); ok {
		if has, known := declared[category]; known {
			if !has(field) {
				return "", "", &graph.UnknownFieldError{Type: def.Name, Category: category, Field: field}
			}
			return category, field, nil
		}
	}

	var found []string
	for _, category := range []string{"inputs", "outputs", "state"} {
		if declared[category](ref) {
			found = append(found, category)
		}
	}
	switch len(found) {
	case 0:
		return "", "", &graph.UnknownFieldError{Type: def.Name, Category: "port", Field: ref}
	case 1:
		return found[0], ref, nil
	default:
		return "", "", fmt.Errorf("port %q is declared in both %s and %s: write %s.%s", ref, found[0], found[1], found[0], ref)
	}
}

func nonNil(p graph.Ports) graph.Ports {
	if p == nil {
		return graph.Ports{}
	}
	return p
}

func addCmd(opts *globalOptions) *cobra.Command {
	var edits fieldEdits

	cmd := &cobra.Command{
		Use:   "add <dir> <type> <name>",
		Short: "Add a component with every port enabled at its default shape",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, typeName, name := args[0], args[1], args[2]
			return opts.edit(cmd, dir, func(s *session.Session) ([]session.Intent, error) {
				tpl, err := s.NewComponentTemplate(typeName, name)
				if err != nil {
					return nil, err
				}
				def, err := s.Model().Catalog().GetType(typeName)
				if err != nil {
					return nil, err
				}
				if tpl.Parameters == nil {
					tpl.Parameters = map[string]string{}
				}
				tpl.Inputs, tpl.Outputs, tpl.State = nonNil(tpl.Inputs), nonNil(tpl.Outputs), nonNil(tpl.State)
				if err := edits.apply(def, s.Config(), tpl.Parameters, tpl.Inputs, tpl.Outputs, tpl.State); err != nil {
					return nil, err
				}
				return []session.Intent{tpl}, nil
			})
		},
	}

	edits.register(cmd, false)
	return cmd
}

func configureCmd(opts *globalOptions) *cobra.Command {
	var (
		edits    fieldEdits
		newName  string
		typeName string
	)

	cmd := &cobra.Command{
		Use:   "configure <dir> <name>",
		Short: "Rename, retype or edit the parameters and ports of a component",
		Long: `Configure edits an existing component. Changing the type resets its
parameters and ports to the new type's defaults before the other flags
apply. Changing the type or any port drops every flow touching the
component; a pure rename keeps flows and rewrites their endpoints.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, name := args[0], args[1]
			return opts.edit(cmd, dir, func(s *session.Session) ([]session.Intent, error) {
				r, err := s.EditTemplate(name)
				if err != nil {
					return nil, err
				}
				if newName != "" {
					r.NewName = newName
				}
				if typeName != "" && typeName != r.Type {
					if r, err = s.Retype(r, typeName); err != nil {
						return nil, err
					}
				}
				def, err := s.Model().Catalog().GetType(r.Type)
				if err != nil {
					return nil, err
				}
				if r.Parameters == nil {
					r.Parameters = map[string]string{}
				}
				r.Inputs, r.Outputs, r.State = nonNil(r.Inputs), nonNil(r.Outputs), nonNil(r.State)
				if err := edits.apply(def, s.Config(), r.Parameters, r.Inputs, r.Outputs, r.State); err != nil {
					return nil, err
				}
				return []session.Intent{r}, nil
			})
		},
	}

	cmd.Flags().StringVar(&newName, "name", "", "new component name")
	cmd.Flags().StringVar(&typeName, "type", "", "new component type")
	edits.register(cmd, true)
	return cmd
}

// ─── connect / disconnect / delete ───────────────────────────────────────────

func connectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <dir> <source-port> <source-component> <target-port> <target-component>",
		Short: "Add a flow from an output or state port to an input or state port",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := session.Connect{SourcePort: args[1], SourceComponent: args[2], TargetPort: args[3], TargetComponent: args[4]}
			return opts.edit(cmd, args[0], func(*session.Session) ([]session.Intent, error) {
				return []session.Intent{c}, nil
			})
		},
	}
}

func disconnectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <dir> <source-port> <source-component> <target-port> <target-component>",
		Short: "Remove one matching flow",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := session.Disconnect{SourcePort: args[1], SourceComponent: args[2], TargetPort: args[3], TargetComponent: args[4]}
			return opts.edit(cmd, args[0], func(*session.Session) ([]session.Intent, error) {
				return []session.Intent{d}, nil
			})
		},
	}
}

func deleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dir> <name>",
		Short: "Delete a component and every flow touching it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.edit(cmd, args[0], func(*session.Session) ([]session.Intent, error) {
				return []session.Intent{session.Delete{Name: args[1]}}, nil
			})
		},
	}
}

// ─── apply ────────────────────────────────────────────────────────────────────

func applyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <dir> <intents.json|->",
		Short: "Apply a JSON array of edit intents in order",
		Long: `Apply reads a JSON array of intents, each an object with an "op" of
add, reconfigure, delete, connect or disconnect. The graph is saved only
if every intent succeeds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return fmt.Errorf("open intents: %w", err)
				}
				defer f.Close()
				r = f
			}
			intents, err := session.DecodeIntents(r)
			if err != nil {
				return err
			}
			return opts.edit(cmd, args[0], func(*session.Session) ([]session.Intent, error) {
				return intents, nil
			})
		},
	}
}
