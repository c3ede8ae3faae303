package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// jsonTypeDef is the on-disk shape of one entry in a JSON catalog. All four
// keys must be present; the validator checks presence, not content.
type jsonTypeDef struct {
	Parameters map[string]json.RawMessage `json:"parameters" validate:"required"`
	Inputs     []string                   `json:"inputs" validate:"required"`
	Outputs    []string                   `json:"outputs" validate:"required"`
	State      []string                   `json:"state" validate:"required"`
}

// ParseJSON parses a catalog document: an object keyed by type name whose
// values hold "parameters" (default values of any scalar JSON type),
// "inputs", "outputs" and "state" (arrays of field names).
func ParseJSON(data []byte) (*Catalog, error) {
	var raw map[string]jsonTypeDef
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog decode: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("catalog decode: document is not an object")
	}

	defs := make([]TypeDef, 0, len(raw))
	for name, r := range raw {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("component type %q: %w", name, err)
		}
		params := make(map[string]string, len(r.Parameters))
		for k, v := range r.Parameters {
			params[k] = defaultText(v)
		}
		defs = append(defs, TypeDef{
			Name:       name,
			Parameters: params,
			Inputs:     r.Inputs,
			Outputs:    r.Outputs,
			State:      r.State,
		})
	}
	return New(defs...)
}

// defaultText renders a JSON default value the way it is shown to the
// user: strings unquoted, everything else as its JSON text.
func defaultText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

type hclCatalog struct {
	Components []hclComponent `hcl:"component,block"`
}

type hclComponent struct {
	Name       string            `hcl:"name,label"`
	Parameters map[string]string `hcl:"parameters"`
	Inputs     []string          `hcl:"inputs"`
	Outputs    []string          `hcl:"outputs"`
	State      []string          `hcl:"state"`
}

// ParseHCL parses a catalog written as HCL, one block per type:
//
//	component "Source" {
//	  parameters = { rate = 1 }
//	  inputs     = []
//	  outputs    = ["y"]
//	  state      = []
//	}
func ParseHCL(data []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL catalog %s: %w", filename, diags)
	}
	var doc hclCatalog
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL catalog %s: %w", filename, diags)
	}

	defs := make([]TypeDef, 0, len(doc.Components))
	for _, c := range doc.Components {
		defs = append(defs, TypeDef{
			Name:       c.Name,
			Parameters: c.Parameters,
			Inputs:     c.Inputs,
			Outputs:    c.Outputs,
			State:      c.State,
		})
	}
	return New(defs...)
}

// Load reads a catalog file, choosing the format from its extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog read: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return ParseHCL(data, path)
	case ".json", "":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("catalog %s: unsupported extension %q: use .json or .hcl", path, filepath.Ext(path))
	}
}
