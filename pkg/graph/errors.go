package graph

import "fmt"

// DuplicateNameError is returned when an instance name is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("component %q already exists", e.Name)
}

// UnknownFieldError is returned when an enabled port is not declared by the
// instance's type in that category.
type UnknownFieldError struct {
	Type     string
	Category string // "inputs", "outputs" or "state"
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("component type %q declares no %s field %q", e.Type, e.Category, e.Field)
}

// UnknownComponentError is returned when an operation names an instance
// that is not in the graph.
type UnknownComponentError struct {
	Name string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown component %q", e.Name)
}

// InvalidPortError is returned when a flow endpoint is not an enabled port
// on the correct side of its instance.
type InvalidPortError struct {
	Component string
	Port      string
	Side      string // "source" or "target"
}

func (e *InvalidPortError) Error() string {
	if e.Side == "source" {
		return fmt.Sprintf("port %q of component %q is not an enabled output or state field", e.Port, e.Component)
	}
	return fmt.Sprintf("port %q of component %q is not an enabled input or state field", e.Port, e.Component)
}

// MalformedGraphError is returned when persisted documents do not describe
// a consistent graph.
type MalformedGraphError struct {
	Document string // "nodes" or "flows"
	Index    int    // flow index, -1 when not applicable
	Message  string
	Cause    error
}

func (e *MalformedGraphError) Error() string {
	loc := e.Document
	if e.Index >= 0 {
		loc = fmt.Sprintf("%s[%d]", e.Document, e.Index)
	}
	if e.Cause != nil {
		return fmt.Sprintf("malformed graph: %s: %s: %v", loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed graph: %s: %s", loc, e.Message)
}

func (e *MalformedGraphError) Unwrap() error { return e.Cause }
