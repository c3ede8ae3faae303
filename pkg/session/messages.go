package session

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
	"github.com/ravi-parthasarathy/weaver/pkg/graph"
)

// Message turns an error from a session operation into a sentence fit to
// show the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		dup  *graph.DuplicateNameError
		ute  *catalog.UnknownTypeError
		ufe  *graph.UnknownFieldError
		uce  *graph.UnknownComponentError
		ipe  *graph.InvalidPortError
		mge  *graph.MalformedGraphError
		iie  *InvalidIntentError
		perr *fs.PathError
	)
	switch {
	case errors.As(err, &dup):
		return fmt.Sprintf("A component named %q already exists. Choose a different name.", dup.Name)
	case errors.As(err, &ute):
		return fmt.Sprintf("There is no component type called %q.", ute.Type)
	case errors.As(err, &ufe):
		return fmt.Sprintf("Components of type %q have no %s field %q.", ufe.Type, ufe.Category, ufe.Field)
	case errors.As(err, &uce):
		return fmt.Sprintf("There is no component named %q.", uce.Name)
	case errors.As(err, &ipe):
		if ipe.Side == "source" {
			return fmt.Sprintf("%q cannot send from %q: pick an enabled output or state field.", ipe.Component, ipe.Port)
		}
		return fmt.Sprintf("%q cannot receive on %q: pick an enabled input or state field.", ipe.Component, ipe.Port)
	case errors.As(err, &mge):
		return fmt.Sprintf("The saved graph is damaged and was not loaded (%s).", mge.Error())
	case errors.As(err, &iie):
		return fmt.Sprintf("The %s request is incomplete: %s must be filled in.", iie.Op, joinFields(iie.Fields))
	case errors.Is(err, fs.ErrNotExist) && errors.As(err, &perr):
		return fmt.Sprintf("File not found: %s", perr.Path)
	case errors.Is(err, fs.ErrPermission) && errors.As(err, &perr):
		return fmt.Sprintf("Permission denied: %s", perr.Path)
	default:
		return err.Error()
	}
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return "all fields"
	case 1:
		return fields[0]
	default:
		out := fields[0]
		for _, f := range fields[1 : len(fields)-1] {
			out += ", " + f
		}
		return out + " and " + fields[len(fields)-1]
	}
}
