package session

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ravi-parthasarathy/weaver/pkg/graph"
)

// Intent is a structured edit request produced by the presentation layer.
type Intent interface {
	Op() string
}

// AddComponent creates a new instance. Ports absent from the maps are
// disabled.
type AddComponent struct {
	Type       string            `json:"type" validate:"required"`
	Name       string            `json:"name" validate:"required"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Inputs     graph.Ports       `json:"inputs,omitempty"`
	Outputs    graph.Ports       `json:"outputs,omitempty"`
	State      graph.Ports       `json:"state,omitempty"`
}

// Reconfigure carries the complete requested state of an existing
// instance, exactly as a configure dialog would submit it.
type Reconfigure struct {
	Name       string            `json:"name" validate:"required"`
	Type       string            `json:"type" validate:"required"`
	NewName    string            `json:"new_name" validate:"required"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Inputs     graph.Ports       `json:"inputs,omitempty"`
	Outputs    graph.Ports       `json:"outputs,omitempty"`
	State      graph.Ports       `json:"state,omitempty"`
}

// Delete removes an instance and every flow touching it.
type Delete struct {
	Name string `json:"name" validate:"required"`
}

// Connect creates a flow.
type Connect struct {
	SourcePort      string `json:"source_port" validate:"required"`
	SourceComponent string `json:"source_component" validate:"required"`
	TargetPort      string `json:"target_port" validate:"required"`
	TargetComponent string `json:"target_component" validate:"required"`
}

// Disconnect removes one flow equal to the given endpoints.
type Disconnect struct {
	SourcePort      string `json:"source_port" validate:"required"`
	SourceComponent string `json:"source_component" validate:"required"`
	TargetPort      string `json:"target_port" validate:"required"`
	TargetComponent string `json:"target_component" validate:"required"`
}

func (AddComponent) Op() string { return "add" }
func (Reconfigure) Op() string  { return "reconfigure" }
func (Delete) Op() string       { return "delete" }
func (Connect) Op() string      { return "connect" }
func (Disconnect) Op() string   { return "disconnect" }

func (d Disconnect) flow() graph.Flow {
	return graph.Flow{SourcePort: d.SourcePort, SourceComponent: d.SourceComponent, TargetPort: d.TargetPort, TargetComponent: d.TargetComponent}
}

// DecodeIntents reads a JSON array of intents, each an object whose "op"
// field is one of add, reconfigure, delete, connect or disconnect and
// whose other fields are those of the matching intent type.
func DecodeIntents(r io.Reader) ([]Intent, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("intents decode: %w", err)
	}

	out := make([]Intent, 0, len(raw))
	for i, msg := range raw {
		var head struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal(msg, &head); err != nil {
			return nil, fmt.Errorf("intent %d: %w", i, err)
		}
		var (
			intent Intent
			err    error
		)
		switch head.Op {
		case "add":
			intent, err = decodeAs[AddComponent](msg)
		case "reconfigure":
			intent, err = decodeAs[Reconfigure](msg)
		case "delete":
			intent, err = decodeAs[Delete](msg)
		case "connect":
			intent, err = decodeAs[Connect](msg)
		case "disconnect":
			intent, err = decodeAs[Disconnect](msg)
		default:
			return nil, fmt.Errorf("intent %d: unknown op %q", i, head.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("intent %d (%s): %w", i, head.Op, err)
		}
		out = append(out, intent)
	}
	return out, nil
}

func decodeAs[T Intent](msg json.RawMessage) (Intent, error) {
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, err
	}
	return v, nil
}
