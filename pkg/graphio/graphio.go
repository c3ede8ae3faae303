// Package graphio reads and writes a component graph as the pair of JSON
// documents nodes.json and flows.json.
package graphio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ravi-parthasarathy/weaver/pkg/graph"
)

const (
	NodesFile = "nodes.json"
	FlowsFile = "flows.json"
)

// Documents holds the two serialised halves of a graph.
type Documents struct {
	Nodes []byte
	Flows []byte
}

// nodeRecord is one value of the nodes document.
type nodeRecord struct {
	Component  string            `json:"Component"`
	Name       string            `json:"Name"`
	Parameters map[string]string `json:"parameters"`
	Inputs     graph.Ports       `json:"inputs"`
	Outputs    graph.Ports       `json:"outputs"`
	State      graph.Ports       `json:"state"`
}

func recordOf(in *graph.Instance) nodeRecord {
	c := in.Clone()
	return nodeRecord{
		Component:  c.Type,
		Name:       c.Name,
		Parameters: c.Parameters,
		Inputs:     c.Inputs,
		Outputs:    c.Outputs,
		State:      c.State,
	}
}

func flowRecord(f graph.Flow) [4]string {
	return [4]string{f.SourcePort, f.SourceComponent, f.TargetPort, f.TargetComponent}
}

// Save serialises g. Instances are keyed by name; flows keep their order
// and are written as [sourcePort, sourceComponent, targetPort,
// targetComponent] arrays.
func Save(g *graph.Graph) (Documents, error) {
	nodes := make(map[string]nodeRecord, len(g.Instances))
	for name, in := range g.Instances {
		nodes[name] = recordOf(in)
	}
	flows := make([][4]string, 0, len(g.Flows))
	for _, f := range g.Flows {
		flows = append(flows, flowRecord(f))
	}

	nodesDoc, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return Documents{}, fmt.Errorf("nodes marshal: %w", err)
	}
	flowsDoc, err := json.MarshalIndent(flows, "", "  ")
	if err != nil {
		return Documents{}, fmt.Errorf("flows marshal: %w", err)
	}
	return Documents{Nodes: nodesDoc, Flows: flowsDoc}, nil
}

// Load rebuilds a graph from its two documents: instances first, in
// document order, then flows. Any flow naming an instance absent from the
// nodes document is rejected here rather than left dangling.
func Load(nodesDoc, flowsDoc []byte) (*graph.Graph, error) {
	g := graph.New()

	if err := decodeNodes(nodesDoc, g); err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(flowsDoc, &raw); err != nil {
		return nil, &graph.MalformedGraphError{Document: "flows", Index: -1, Message: "not a JSON array", Cause: err}
	}
	for i, r := range raw {
		var parts []string
		if err := json.Unmarshal(r, &parts); err != nil || len(parts) != 4 {
			return nil, &graph.MalformedGraphError{Document: "flows", Index: i, Message: "expected an array of four strings", Cause: err}
		}
		f := graph.Flow{SourcePort: parts[0], SourceComponent: parts[1], TargetPort: parts[2], TargetComponent: parts[3]}
		for _, name := range []string{f.SourceComponent, f.TargetComponent} {
			if _, ok := g.Instances[name]; !ok {
				return nil, &graph.MalformedGraphError{Document: "flows", Index: i, Message: fmt.Sprintf("references unknown component %q", name)}
			}
		}
		g.Flows = append(g.Flows, f)
	}
	return g, nil
}

// decodeNodes walks the nodes object token by token so records are
// visited in the order they appear in the document.
func decodeNodes(doc []byte, g *graph.Graph) error {
	malformed := func(msg string, cause error) error {
		return &graph.MalformedGraphError{Document: "nodes", Index: -1, Message: msg, Cause: cause}
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	tok, err := dec.Token()
	if err != nil {
		return malformed("not a JSON object", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return malformed("not a JSON object", nil)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return malformed("bad key", err)
		}
		key, _ := tok.(string)
		var rec nodeRecord
		if err := dec.Decode(&rec); err != nil {
			return malformed(fmt.Sprintf("record %q", key), err)
		}
		if rec.Name != key {
			return malformed(fmt.Sprintf("record %q carries Name %q", key, rec.Name), nil)
		}
		if _, dup := g.Instances[key]; dup {
			return malformed(fmt.Sprintf("record %q appears twice", key), nil)
		}
		g.Instances[key] = (&graph.Instance{
			Name:       rec.Name,
			Type:       rec.Component,
			Parameters: rec.Parameters,
			Inputs:     rec.Inputs,
			Outputs:    rec.Outputs,
			State:      rec.State,
		}).Clone()
	}
	if _, err := dec.Token(); err != nil {
		return malformed("unterminated object", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return malformed("trailing data after object", err)
	}
	return nil
}

// SaveDir writes nodes.json and flows.json into dir.
func SaveDir(dir string, g *graph.Graph) error {
	docs, err := Save(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, NodesFile), docs.Nodes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", NodesFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, FlowsFile), docs.Flows, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", FlowsFile, err)
	}
	return nil
}

// LoadDir reads nodes.json and flows.json from dir.
func LoadDir(dir string) (*graph.Graph, error) {
	nodes, err := os.ReadFile(filepath.Join(dir, NodesFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", NodesFile, err)
	}
	flows, err := os.ReadFile(filepath.Join(dir, FlowsFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FlowsFile, err)
	}
	return Load(nodes, flows)
}

// runBundle is the document handed to an external runner.
type runBundle struct {
	Config     any                   `json:"config"`
	Components map[string]nodeRecord `json:"components"`
	Flows      [][4]string           `json:"flows"`
}

// WriteRunBundle writes the session config together with every component
// and flow to a single JSON file for an external runner to consume.
func WriteRunBundle(path string, cfg any, g *graph.Graph) error {
	b := runBundle{
		Config:     cfg,
		Components: make(map[string]nodeRecord, len(g.Instances)),
		Flows:      make([][4]string, 0, len(g.Flows)),
	}
	for name, in := range g.Instances {
		b.Components[name] = recordOf(in)
	}
	for _, f := range g.Flows {
		b.Flows = append(b.Flows, flowRecord(f))
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("run bundle marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("run bundle write: %w", err)
	}
	return nil
}
