// Package session turns edit intents into graph mutations and reports the
// resulting presentation effects.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
	"github.com/ravi-parthasarathy/weaver/pkg/graph"
	"github.com/ravi-parthasarathy/weaver/pkg/graphio"
)

var validate = newValidator()

// newValidator reports intent fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// InvalidIntentError is returned when an intent is missing required fields.
type InvalidIntentError struct {
	Op     string
	Fields []string
}

func (e *InvalidIntentError) Error() string {
	return fmt.Sprintf("%s intent is missing %s", e.Op, strings.Join(e.Fields, ", "))
}

// Session mediates between the presentation layer and one graph model.
type Session struct {
	id    string
	cat   *catalog.Catalog
	model *graph.Model
	cfg   Config
	log   *slog.Logger
}

// New creates a session over model. The catalog is the one model
// validates against.
func New(model *graph.Model, cfg Config) *Session {
	id := uuid.NewString()
	return &Session{
		id:    id,
		cat:   model.Catalog(),
		model: model,
		cfg:   cfg,
		log:   slog.With("session", id),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Model returns the underlying graph model.
func (s *Session) Model() *graph.Model { return s.model }

// Config returns the session's run settings.
func (s *Session) Config() Config { return s.cfg }

// Apply dispatches intent to the matching operation. On error the graph
// is left untouched and no effects are returned.
func (s *Session) Apply(intent Intent) ([]Effect, error) {
	if intent == nil {
		return nil, errors.New("nil intent")
	}
	if err := validate.Struct(intent); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field()
			}
			return nil, &InvalidIntentError{Op: intent.Op(), Fields: fields}
		}
		return nil, fmt.Errorf("%s intent: %w", intent.Op(), err)
	}

	switch it := intent.(type) {
	case AddComponent:
		return s.add(it)
	case Reconfigure:
		return s.reconfigure(it)
	case Delete:
		return s.delete(it)
	case Connect:
		return s.connect(it)
	case Disconnect:
		return s.disconnect(it)
	default:
		return nil, fmt.Errorf("unsupported intent %T", intent)
	}
}

func (s *Session) add(a AddComponent) ([]Effect, error) {
	if _, err := s.model.CreateInstance(a.Type, a.Name, a.Parameters, a.Inputs, a.Outputs, a.State); err != nil {
		return nil, err
	}
	s.log.Info("component added", "component", a.Name, "type", a.Type)
	return []Effect{redrawNode(a.Name)}, nil
}

// reconfigure reports a structural change that also renames as a single
// combined sequence: edges are dropped under the old name before the node
// is renamed, so the presentation never redraws an edge it must remove.
func (s *Session) reconfigure(r Reconfigure) ([]Effect, error) {
	kind, err := s.model.ReconfigureInstance(r.Name, r.Type, r.NewName, r.Parameters, r.Inputs, r.Outputs, r.State)
	if err != nil {
		return nil, err
	}
	s.log.Info("component reconfigured", "component", r.Name, "new_name", r.NewName, "change", kind.String())

	switch kind {
	case graph.StructuralChange:
		effects := []Effect{removeEdgesTouching(r.Name)}
		if r.NewName != r.Name {
			effects = append(effects, renameNode(r.Name, r.NewName))
		}
		return append(effects, redrawNode(r.NewName), redrawAllEdges()), nil
	case graph.Rename:
		return []Effect{renameNode(r.Name, r.NewName), redrawAllEdges()}, nil
	case graph.ParameterChange:
		return []Effect{redrawNode(r.Name)}, nil
	default:
		return nil, nil
	}
}

func (s *Session) delete(d Delete) ([]Effect, error) {
	if !s.model.DeleteInstance(d.Name) {
		s.log.Debug("delete of absent component ignored", "component", d.Name)
		return nil, nil
	}
	s.log.Info("component deleted", "component", d.Name)
	return []Effect{removeEdgesTouching(d.Name), removeNode(d.Name), redrawAllEdges()}, nil
}

func (s *Session) connect(c Connect) ([]Effect, error) {
	if _, err := s.model.CreateFlow(c.SourcePort, c.SourceComponent, c.TargetPort, c.TargetComponent); err != nil {
		return nil, err
	}
	s.log.Info("flow connected", "from", c.SourceComponent+"."+c.SourcePort, "to", c.TargetComponent+"."+c.TargetPort)
	return []Effect{redrawAllEdges()}, nil
}

func (s *Session) disconnect(d Disconnect) ([]Effect, error) {
	if !s.model.RemoveFlow(d.flow()) {
		return nil, nil
	}
	s.log.Info("flow disconnected", "from", d.SourceComponent+"."+d.SourcePort, "to", d.TargetComponent+"."+d.TargetPort)
	return []Effect{redrawAllEdges()}, nil
}

// NewComponentTemplate returns the intent a "new component" form starts
// from: the type's default parameters and every port enabled with its
// default shape.
func (s *Session) NewComponentTemplate(typeName, name string) (AddComponent, error) {
	def, err := s.cat.GetType(typeName)
	if err != nil {
		return AddComponent{}, err
	}
	return AddComponent{
		Type:       typeName,
		Name:       name,
		Parameters: def.Parameters,
		Inputs:     s.defaultPorts(def.Inputs),
		Outputs:    s.defaultPorts(def.Outputs),
		State:      s.defaultPorts(def.State),
	}, nil
}

// EditTemplate returns a Reconfigure intent pre-filled with the current
// state of the named instance; submitting it unchanged is a NoChange.
func (s *Session) EditTemplate(name string) (Reconfigure, error) {
	in, ok := s.model.Instance(name)
	if !ok {
		return Reconfigure{}, &graph.UnknownComponentError{Name: name}
	}
	return Reconfigure{
		Name:       in.Name,
		Type:       in.Type,
		NewName:    in.Name,
		Parameters: in.Parameters,
		Inputs:     in.Inputs,
		Outputs:    in.Outputs,
		State:      in.State,
	}, nil
}

// Retype switches r to typeName, resetting parameters and ports to that
// type's defaults as a configure form does when its type selector changes.
// The name fields are kept.
func (s *Session) Retype(r Reconfigure, typeName string) (Reconfigure, error) {
	tpl, err := s.NewComponentTemplate(typeName, r.NewName)
	if err != nil {
		return Reconfigure{}, err
	}
	r.Type = typeName
	r.Parameters = tpl.Parameters
	r.Inputs = tpl.Inputs
	r.Outputs = tpl.Outputs
	r.State = tpl.State
	return r, nil
}

func (s *Session) defaultPorts(fields []string) graph.Ports {
	out := make(graph.Ports, len(fields))
	for _, f := range fields {
		out[f] = []string{s.cfg.DefaultShape(f)}
	}
	return out
}

// Save writes the graph into dir as nodes.json and flows.json.
func (s *Session) Save(dir string) error {
	if err := graphio.SaveDir(dir, s.model.Snapshot()); err != nil {
		return err
	}
	s.log.Info("graph saved", "dir", dir)
	return nil
}

// Load replaces the graph with the one stored in dir. The stored graph
// must be consistent with the catalog; on any failure the current graph
// is kept.
func (s *Session) Load(dir string) error {
	g, err := graphio.LoadDir(dir)
	if err != nil {
		return err
	}
	if err := graph.ValidateErr(g, s.cat); err != nil {
		return err
	}
	s.model.Replace(g)
	s.log.Info("graph loaded", "dir", dir, "components", len(g.Instances), "flows", len(g.Flows))
	return nil
}

// ExportRun writes the run bundle for an external runner.
func (s *Session) ExportRun(path string) error {
	if err := graphio.WriteRunBundle(path, s.cfg, s.model.Snapshot()); err != nil {
		return err
	}
	s.log.Info("run bundle written", "path", path)
	return nil
}

// Components returns the instance names in sorted order.
func (s *Session) Components() []string {
	return s.model.Snapshot().InstanceNames()
}
