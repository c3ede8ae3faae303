package graph

import "maps"

// ChangeKind classifies a reconfigure edit. When an edit touches several
// categories at once the highest-precedence kind is reported:
// StructuralChange, then Rename, then ParameterChange.
type ChangeKind int

const (
	NoChange ChangeKind = iota
	ParameterChange
	Rename
	StructuralChange
)

func (k ChangeKind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case ParameterChange:
		return "parameter_change"
	case Rename:
		return "rename"
	case StructuralChange:
		return "structural_change"
	default:
		return "unknown"
	}
}

// Classify compares a requested instance state against the snapshot taken
// before the edit began. A type switch or any difference in the enabled
// inputs, outputs or state (including shape strings) is structural.
func Classify(before, requested *Instance) ChangeKind {
	switch {
	case before.Type != requested.Type,
		!before.Inputs.Equal(requested.Inputs),
		!before.Outputs.Equal(requested.Outputs),
		!before.State.Equal(requested.State):
		return StructuralChange
	case before.Name != requested.Name:
		return Rename
	case !maps.Equal(before.Parameters, requested.Parameters):
		return ParameterChange
	default:
		return NoChange
	}
}
