package graph

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
)

// Model owns a live Graph and enforces its invariants. Every mutating
// method validates its whole request before touching the graph, so an
// error always leaves the graph exactly as it was.
//
// A Model is meant to have a single logical owner; the lock only keeps
// snapshots from observing a half-applied mutation.
type Model struct {
	mu    sync.RWMutex
	cat   *catalog.Catalog
	graph *Graph
}

// NewModel creates a Model over g, taking ownership of it. A nil g starts
// an empty graph.
func NewModel(cat *catalog.Catalog, g *Graph) *Model {
	if g == nil {
		g = New()
	}
	if g.Instances == nil {
		g.Instances = make(map[string]*Instance)
	}
	if g.Flows == nil {
		g.Flows = []Flow{}
	}
	return &Model{cat: cat, graph: g}
}

// Catalog returns the catalog the model validates against.
func (m *Model) Catalog() *catalog.Catalog { return m.cat }

// CreateInstance adds a new instance of typeName. Parameters start from
// the type's defaults, overridden by params. Every enabled port must be
// declared by the type in the matching category.
func (m *Model) CreateInstance(typeName, name string, params map[string]string, inputs, outputs, state Ports) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.graph.Instances[name]; taken {
		return nil, &DuplicateNameError{Name: name}
	}
	def, err := m.cat.GetType(typeName)
	if err != nil {
		return nil, err
	}
	if err := checkPorts(def, inputs, outputs, state); err != nil {
		return nil, err
	}

	merged := def.Parameters
	maps.Copy(merged, params)
	in := &Instance{
		Name:       name,
		Type:       typeName,
		Parameters: merged,
		Inputs:     inputs.Clone(),
		Outputs:    outputs.Clone(),
		State:      state.Clone(),
	}
	m.graph.Instances[name] = in
	slog.Debug("component created", "component", name, "type", typeName)
	return in.Clone(), nil
}

// ReconfigureInstance replaces the type, name, parameters and enabled
// ports of the named instance and reports which kind of edit it was.
//
// A StructuralChange first drops every flow touching the instance and
// then applies the whole update, including a simultaneous rename. A
// Rename rewrites every flow endpoint that referenced the old name. A
// ParameterChange touches no flows, and NoChange mutates nothing.
func (m *Model) ReconfigureInstance(name, newType, newName string, params map[string]string, inputs, outputs, state Ports) (ChangeKind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, ok := m.graph.Instances[name]
	if !ok {
		return NoChange, &UnknownComponentError{Name: name}
	}
	requested := &Instance{
		Name:       newName,
		Type:       newType,
		Parameters: make(map[string]string, len(params)),
		Inputs:     inputs.Clone(),
		Outputs:    outputs.Clone(),
		State:      state.Clone(),
	}
	maps.Copy(requested.Parameters, params)

	kind := Classify(before, requested)
	if kind == NoChange {
		return NoChange, nil
	}

	if kind == StructuralChange {
		def, err := m.cat.GetType(newType)
		if err != nil {
			return NoChange, err
		}
		if err := checkPorts(def, inputs, outputs, state); err != nil {
			return NoChange, err
		}
	}
	if newName != name {
		if _, taken := m.graph.Instances[newName]; taken {
			return NoChange, &DuplicateNameError{Name: newName}
		}
	}

	switch kind {
	case StructuralChange:
		removed := m.graph.removeFlowsTouching(name)
		slog.Debug("structural change dropped flows", "component", name, "flows", removed)
	case Rename:
		rewritten := m.graph.renameFlows(name, newName)
		slog.Debug("rename propagated to flows", "from", name, "to", newName, "endpoints", rewritten)
	}
	delete(m.graph.Instances, name)
	m.graph.Instances[newName] = requested
	slog.Debug("component reconfigured", "component", newName, "change", kind.String())
	return kind, nil
}

// DeleteInstance removes the named instance together with every flow that
// touches it. Deleting an absent instance is a no-op; the result reports
// whether anything was removed.
func (m *Model) DeleteInstance(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.graph.Instances[name]; !ok {
		return false
	}
	removed := m.graph.removeFlowsTouching(name)
	delete(m.graph.Instances, name)
	slog.Debug("component deleted", "component", name, "flows", removed)
	return true
}

// CreateFlow appends a flow from sourcePort of sourceComponent to
// targetPort of targetComponent. The source port must be an enabled output
// or state field; the target port an enabled input or state field.
func (m *Model) CreateFlow(sourcePort, sourceComponent, targetPort, targetComponent string) (Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.graph.Instances[sourceComponent]
	if !ok {
		return Flow{}, &UnknownComponentError{Name: sourceComponent}
	}
	dst, ok := m.graph.Instances[targetComponent]
	if !ok {
		return Flow{}, &UnknownComponentError{Name: targetComponent}
	}
	if !src.CanSend(sourcePort) {
		return Flow{}, &InvalidPortError{Component: sourceComponent, Port: sourcePort, Side: "source"}
	}
	if !dst.CanReceive(targetPort) {
		return Flow{}, &InvalidPortError{Component: targetComponent, Port: targetPort, Side: "target"}
	}

	f := Flow{
		SourcePort:      sourcePort,
		SourceComponent: sourceComponent,
		TargetPort:      targetPort,
		TargetComponent: targetComponent,
	}
	m.graph.Flows = append(m.graph.Flows, f)
	slog.Debug("flow created", "from", sourceComponent+"."+sourcePort, "to", targetComponent+"."+targetPort)
	return f, nil
}

// RemoveFlow deletes the earliest flow equal to f and reports whether one
// was found.
func (m *Model) RemoveFlow(f Flow) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.Index(m.graph.Flows, f)
	if i < 0 {
		return false
	}
	m.graph.Flows = slices.Delete(m.graph.Flows, i, i+1)
	return true
}

// Instance returns a copy of the named instance.
func (m *Model) Instance(name string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.graph.Instances[name]
	if !ok {
		return nil, false
	}
	return in.Clone(), true
}

// InstancesSnapshot returns a deep copy of every instance keyed by name.
func (m *Model) InstancesSnapshot() map[string]*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Instance, len(m.graph.Instances))
	for name, in := range m.graph.Instances {
		out[name] = in.Clone()
	}
	return out
}

// FlowsSnapshot returns a copy of the flow sequence.
func (m *Model) FlowsSnapshot() []Flow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Flow{}, m.graph.Flows...)
}

// Snapshot returns a deep copy of instances and flows taken at a single
// point in time.
func (m *Model) Snapshot() *Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.Clone()
}

// Replace swaps in g as the model's graph, e.g. after a load.
func (m *Model) Replace(g *Graph) {
	fresh := NewModel(m.cat, g)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph = fresh.graph
}

func (g *Graph) removeFlowsTouching(name string) int {
	kept := make([]Flow, 0, len(g.Flows))
	for _, f := range g.Flows {
		if !f.Touches(name) {
			kept = append(kept, f)
		}
	}
	removed := len(g.Flows) - len(kept)
	g.Flows = kept
	return removed
}

func (g *Graph) renameFlows(from, to string) int {
	n := 0
	for i := range g.Flows {
		f := &g.Flows[i]
		if f.SourceComponent == from {
			f.SourceComponent = to
			n++
		}
		if f.TargetComponent == from {
			f.TargetComponent = to
			n++
		}
	}
	return n
}

// checkPorts verifies that every enabled port is declared by def in the
// matching category. Fields are checked in sorted order so the reported
// error is deterministic.
func checkPorts(def catalog.TypeDef, inputs, outputs, state Ports) error {
	categories := []struct {
		name     string
		ports    Ports
		declared func(string) bool
	}{
		{"inputs", inputs, def.HasInput},
		{"outputs", outputs, def.HasOutput},
		{"state", state, def.HasState},
	}
	for _, c := range categories {
		for _, field := range slices.Sorted(maps.Keys(c.ports)) {
			if !c.declared(field) {
				return &UnknownFieldError{Type: def.Name, Category: c.name, Field: field}
			}
		}
	}
	return nil
}
