package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
)

// LintError describes an invariant violation found in a graph.
type LintError struct {
	Component string
	Message   string
}

func (e LintError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("component %q: %s", e.Component, e.Message)
	}
	return e.Message
}

// Validate checks a whole graph against the catalog and returns every
// problem found, not just the first. A graph built only through Model
// operations always validates cleanly; this is for graphs read from disk.
func Validate(g *Graph, cat *catalog.Catalog) []LintError {
	var errs []LintError

	for _, name := range g.InstanceNames() {
		in := g.Instances[name]
		if in.Name != name {
			errs = append(errs, LintError{Component: name, Message: fmt.Sprintf("stored under a different name %q", in.Name)})
		}
		def, err := cat.GetType(in.Type)
		if err != nil {
			errs = append(errs, LintError{Component: name, Message: err.Error()})
			continue
		}
		errs = append(errs, ValidateInstance(in, def)...)
	}

	for i, f := range g.Flows {
		src, srcOK := g.Instances[f.SourceComponent]
		dst, dstOK := g.Instances[f.TargetComponent]
		if !srcOK {
			errs = append(errs, LintError{Message: fmt.Sprintf("flow %d references unknown source component %q", i, f.SourceComponent)})
		}
		if !dstOK {
			errs = append(errs, LintError{Message: fmt.Sprintf("flow %d references unknown target component %q", i, f.TargetComponent)})
		}
		if srcOK && !src.CanSend(f.SourcePort) {
			errs = append(errs, LintError{
				Component: f.SourceComponent,
				Message:   fmt.Sprintf("flow %d leaves port %q which is not an enabled output or state field", i, f.SourcePort),
			})
		}
		if dstOK && !dst.CanReceive(f.TargetPort) {
			errs = append(errs, LintError{
				Component: f.TargetComponent,
				Message:   fmt.Sprintf("flow %d enters port %q which is not an enabled input or state field", i, f.TargetPort),
			})
		}
	}

	return errs
}

// ValidateInstance checks that every enabled port of in is declared by def
// in the matching category.
func ValidateInstance(in *Instance, def catalog.TypeDef) []LintError {
	var errs []LintError
	for _, c := range []struct {
		category string
		ports    Ports
		declared func(string) bool
	}{
		{"inputs", in.Inputs, def.HasInput},
		{"outputs", in.Outputs, def.HasOutput},
		{"state", in.State, def.HasState},
	} {
		for _, field := range slices.Sorted(maps.Keys(c.ports)) {
			if !c.declared(field) {
				ufe := &UnknownFieldError{Type: def.Name, Category: c.category, Field: field}
				errs = append(errs, LintError{Component: in.Name, Message: ufe.Error()})
			}
		}
	}
	return errs
}

// ValidateErr calls Validate and returns nil if there are no errors, or a
// combined error listing all of them.
func ValidateErr(g *Graph, cat *catalog.Catalog) error {
	errs := Validate(g, cat)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("graph validation failed:\n  %s", strings.Join(msgs, "\n  "))
}
