package session

import "fmt"

// EffectKind identifies what the presentation layer has to redraw.
type EffectKind string

const (
	EffectRedrawNode          EffectKind = "redraw_node"
	EffectRemoveNode          EffectKind = "remove_node"
	EffectRenameNode          EffectKind = "rename_node"
	EffectRemoveEdgesTouching EffectKind = "remove_edges_touching"
	EffectRedrawAllEdges      EffectKind = "redraw_all_edges"
)

// Effect is one instruction to the presentation layer.
type Effect struct {
	Kind    EffectKind `json:"kind"`
	Node    string     `json:"node,omitempty"`
	OldName string     `json:"old_name,omitempty"`
	NewName string     `json:"new_name,omitempty"`
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectRenameNode:
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.OldName, e.NewName)
	case EffectRedrawAllEdges:
		return string(e.Kind)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Node)
	}
}

func redrawNode(name string) Effect { return Effect{Kind: EffectRedrawNode, Node: name} }
func removeNode(name string) Effect { return Effect{Kind: EffectRemoveNode, Node: name} }
func removeEdgesTouching(name string) Effect {
	return Effect{Kind: EffectRemoveEdgesTouching, Node: name}
}
func renameNode(from, to string) Effect {
	return Effect{Kind: EffectRenameNode, OldName: from, NewName: to}
}
func redrawAllEdges() Effect { return Effect{Kind: EffectRedrawAllEdges} }
