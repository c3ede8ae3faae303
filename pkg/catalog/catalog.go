// Package catalog holds the read-only registry of component types that
// graph instances are created from.
package catalog

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
)

// TypeDef describes a component type: its default parameters and the
// input, output and state fields an instance of it may enable.
type TypeDef struct {
	Name       string            `validate:"required"`
	Parameters map[string]string
	Inputs     []string          `validate:"unique,dive,required"`
	Outputs    []string          `validate:"unique,dive,required"`
	State      []string          `validate:"unique,dive,required"`
}

// HasInput reports whether field is a declared input.
func (d TypeDef) HasInput(field string) bool { return slices.Contains(d.Inputs, field) }

// HasOutput reports whether field is a declared output.
func (d TypeDef) HasOutput(field string) bool { return slices.Contains(d.Outputs, field) }

// HasState reports whether field is a declared state field.
func (d TypeDef) HasState(field string) bool { return slices.Contains(d.State, field) }

// Clone returns a deep copy of d.
func (d TypeDef) Clone() TypeDef {
	out := TypeDef{
		Name:       d.Name,
		Parameters: make(map[string]string, len(d.Parameters)),
		Inputs:     slices.Clone(d.Inputs),
		Outputs:    slices.Clone(d.Outputs),
		State:      slices.Clone(d.State),
	}
	maps.Copy(out.Parameters, d.Parameters)
	if out.Inputs == nil {
		out.Inputs = []string{}
	}
	if out.Outputs == nil {
		out.Outputs = []string{}
	}
	if out.State == nil {
		out.State = []string{}
	}
	return out
}

// UnknownTypeError is returned when a type name is not in the catalog.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown component type %q", e.Type)
}

// Catalog maps type names to their definitions. It is never mutated after
// construction, so a single value may be shared by any number of models.
type Catalog struct {
	types map[string]TypeDef
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New builds a Catalog from defs. Every definition must carry a name and
// non-empty, per-category unique field names; duplicate type names are
// rejected.
func New(defs ...TypeDef) (*Catalog, error) {
	c := &Catalog{types: make(map[string]TypeDef, len(defs))}
	for _, d := range defs {
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("component type %q: %w", d.Name, err)
		}
		if _, dup := c.types[d.Name]; dup {
			return nil, fmt.Errorf("component type %q defined twice", d.Name)
		}
		c.types[d.Name] = d.Clone()
	}
	return c, nil
}

// ListTypes returns every type name in sorted order.
func (c *Catalog) ListTypes() []string {
	return slices.Sorted(maps.Keys(c.types))
}

// GetType returns a copy of the named definition, or an *UnknownTypeError.
func (c *Catalog) GetType(name string) (TypeDef, error) {
	d, ok := c.types[name]
	if !ok {
		return TypeDef{}, &UnknownTypeError{Type: name}
	}
	return d.Clone(), nil
}

// Len returns the number of registered types.
func (c *Catalog) Len() int { return len(c.types) }
