// Package graph implements the component graph: named component instances
// connected by port-to-port flows, and the rules that keep the two sets
// consistent while instances are created, reconfigured and deleted.
package graph

import (
	"maps"
	"slices"
)

// Ports maps an enabled field name to the shape strings the user gave it.
// A field that is absent from the map is disabled.
type Ports map[string][]string

// Clone returns a deep copy. The copy is never nil and never holds nil
// shape slices, so cloned values compare equal regardless of how they
// were built.
func (p Ports) Clone() Ports {
	out := make(Ports, len(p))
	for k, v := range p {
		out[k] = append([]string{}, v...)
	}
	return out
}

// Equal reports whether p and o enable the same fields with the same shapes.
func (p Ports) Equal(o Ports) bool {
	return maps.EqualFunc(p, o, func(a, b []string) bool { return slices.Equal(a, b) })
}

// Instance is a single component node in the graph.
type Instance struct {
	Name       string
	Type       string
	Parameters map[string]string
	Inputs     Ports
	Outputs    Ports
	State      Ports
}

// Clone returns a deep copy of the instance.
func (in *Instance) Clone() *Instance {
	params := make(map[string]string, len(in.Parameters))
	maps.Copy(params, in.Parameters)
	return &Instance{
		Name:       in.Name,
		Type:       in.Type,
		Parameters: params,
		Inputs:     in.Inputs.Clone(),
		Outputs:    in.Outputs.Clone(),
		State:      in.State.Clone(),
	}
}

// Equal reports whether two instances hold the same name, type and fields.
func (in *Instance) Equal(o *Instance) bool {
	return in.Name == o.Name &&
		in.Type == o.Type &&
		maps.Equal(in.Parameters, o.Parameters) &&
		in.Inputs.Equal(o.Inputs) &&
		in.Outputs.Equal(o.Outputs) &&
		in.State.Equal(o.State)
}

// CanSend reports whether port is an enabled output or state field.
func (in *Instance) CanSend(port string) bool {
	_, out := in.Outputs[port]
	_, st := in.State[port]
	return out || st
}

// CanReceive reports whether port is an enabled input or state field.
func (in *Instance) CanReceive(port string) bool {
	_, inp := in.Inputs[port]
	_, st := in.State[port]
	return inp || st
}

// Flow is a directed connection from a sending port of one instance to a
// receiving port of another (or the same) instance.
type Flow struct {
	SourcePort      string
	SourceComponent string
	TargetPort      string
	TargetComponent string
}

// Touches reports whether either endpoint of f is the named instance.
func (f Flow) Touches(name string) bool {
	return f.SourceComponent == name || f.TargetComponent == name
}

// Graph is the aggregate of instances and flows. Flows are kept in
// creation order and are not deduplicated.
type Graph struct {
	Instances map[string]*Instance
	Flows     []Flow
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Instances: make(map[string]*Instance),
		Flows:     []Flow{},
	}
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Instances: make(map[string]*Instance, len(g.Instances)),
		Flows:     append([]Flow{}, g.Flows...),
	}
	for name, in := range g.Instances {
		out.Instances[name] = in.Clone()
	}
	return out
}

// Equal reports whether g and o hold the same instances and the same flows
// in the same order.
func (g *Graph) Equal(o *Graph) bool {
	if len(g.Instances) != len(o.Instances) || !slices.Equal(g.Flows, o.Flows) {
		return false
	}
	for name, in := range g.Instances {
		other, ok := o.Instances[name]
		if !ok || !in.Equal(other) {
			return false
		}
	}
	return true
}

// InstanceNames returns the instance names in sorted order.
func (g *Graph) InstanceNames() []string {
	return slices.Sorted(maps.Keys(g.Instances))
}

// OutgoingFlows returns all flows whose source is name, in creation order.
func (g *Graph) OutgoingFlows(name string) []Flow {
	var out []Flow
	for _, f := range g.Flows {
		if f.SourceComponent == name {
			out = append(out, f)
		}
	}
	return out
}

// IncomingFlows returns all flows whose target is name.
func (g *Graph) IncomingFlows(name string) []Flow {
	var out []Flow
	for _, f := range g.Flows {
		if f.TargetComponent == name {
			out = append(out, f)
		}
	}
	return out
}
