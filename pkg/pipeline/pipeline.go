package pipeline

import (
	"reflect"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/ragline/ragline/internal/store"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

// bindMode records how values reach an input port.
type bindMode int

const (
	bindNone bindMode = iota
	bindDirect
	bindCollect
)

type node struct {
	info    *model.StageInfo
	stage   Stage
	inputs  map[string]model.Port
	outputs map[string]model.Port

	// bindings per input port, in declaration order.
	bindings map[string][]model.Binding
	mode     map[string]bindMode
}

// Pipeline is a directed acyclic graph of stages connected by port bindings.
type Pipeline struct {
	opts         []model.PipelineOption
	collectFanIn bool

	stages   map[string]*node
	order    []string
	bindings []model.Binding

	store *store.OrderedStore[string, string]
	graph graph.Graph[string, string]
}

// New creates an empty pipeline.
func New(opts ...Option) (*Pipeline, error) {
	st := store.NewOrderedStore[string, string]()

	pipe := &Pipeline{
		stages: make(map[string]*node),
		store:  st,
		graph:  graph.NewWithStore(graph.StringHash, st, graph.Directed(), graph.PreventCycles()),
	}

	for _, opt := range opts {
		opt(pipe)
	}

	for _, hook := range pipe.opts {
		err := hook.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// AddStage registers a stage under a unique id. Stage ids are remembered in
// insertion order, which later breaks scheduling ties between independent
// stages.
func (p *Pipeline) AddStage(id string, stage Stage) error {
	if id == "" {
		return ErrStageIDMustBeSet
	}

	if stage == nil {
		return errors.Wrapf(ErrStageMustBeSet, "stage %q", id)
	}

	if _, ok := p.stages[id]; ok {
		return errors.Wrapf(ErrStageExists, "stage %q", id)
	}

	inputs, err := portIndex(stage.Inputs())
	if err != nil {
		return errors.Wrapf(err, "stage %q inputs", id)
	}

	outputs, err := portIndex(stage.Outputs())
	if err != nil {
		return errors.Wrapf(err, "stage %q outputs", id)
	}

	err = p.graph.AddVertex(id)
	if err != nil {
		return errors.Wrapf(err, "unable to add stage %q to graph", id)
	}

	stageNode := &node{
		info: &model.StageInfo{
			ID:      id,
			Inputs:  stage.Inputs(),
			Outputs: stage.Outputs(),
		},
		stage:    stage,
		inputs:   inputs,
		outputs:  outputs,
		bindings: make(map[string][]model.Binding),
		mode:     make(map[string]bindMode),
	}

	p.stages[id] = stageNode
	p.order = append(p.order, id)

	for _, hook := range p.opts {
		err := hook.StageAdded(stageNode.info)
		if err != nil {
			return errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return nil
}

// Connect binds an output port of one stage to an input port of another.
// The port types must be assignable. An input port accepts a single binding
// unless the pipeline was built with CollectFanIn and the port collects its
// element type. A binding that would close a cycle is rejected here, so an
// assembled pipeline is always a DAG.
func (p *Pipeline) Connect(fromStage, fromPort, toStage, toPort string) error {
	from, ok := p.stages[fromStage]
	if !ok {
		return errors.Wrapf(ErrUnknownStage, "stage %q", fromStage)
	}

	to, ok := p.stages[toStage]
	if !ok {
		return errors.Wrapf(ErrUnknownStage, "stage %q", toStage)
	}

	out, ok := from.outputs[fromPort]
	if !ok {
		return errors.Wrapf(ErrUnknownPort, "stage %q has no output %q", fromStage, fromPort)
	}

	in, ok := to.inputs[toPort]
	if !ok {
		return errors.Wrapf(ErrUnknownPort, "stage %q has no input %q", toStage, toPort)
	}

	mode := bindDirect

	switch {
	case out.Type.AssignableTo(in.Type):
	case p.collectFanIn && in.Type.Kind() == reflect.Slice && out.Type.AssignableTo(in.Type.Elem()):
		mode = bindCollect
	default:
		return errors.Wrapf(ErrPortType, "%s.%s is %s, %s.%s wants %s",
			fromStage, fromPort, out.Type, toStage, toPort, in.Type)
	}

	if prev := to.mode[toPort]; prev != bindNone {
		if prev == bindDirect || mode == bindDirect {
			return errors.Wrapf(ErrPortOccupied, "input %s.%s", toStage, toPort)
		}
	}

	err := p.graph.AddEdge(fromStage, toStage)

	switch {
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return errors.Wrapf(ErrCycle, "%s -> %s", fromStage, toStage)
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		// Another pair of ports already links the two stages, the DAG shape
		// is unchanged.
	case err != nil:
		return errors.Wrapf(err, "unable to add edge %s -> %s", fromStage, toStage)
	}

	binding := model.Binding{FromStage: fromStage, FromPort: fromPort, ToStage: toStage, ToPort: toPort}

	p.bindings = append(p.bindings, binding)
	to.bindings[toPort] = append(to.bindings[toPort], binding)
	to.mode[toPort] = mode

	for _, hook := range p.opts {
		err := hook.BindingAdded(&binding)
		if err != nil {
			return errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return nil
}

// Stages returns the registered stage ids in insertion order.
func (p *Pipeline) Stages() []string {
	ids := make([]string, len(p.order))
	copy(ids, p.order)

	return ids
}

// Bindings returns the declared bindings in declaration order.
func (p *Pipeline) Bindings() []model.Binding {
	bindings := make([]model.Binding, len(p.bindings))
	copy(bindings, p.bindings)

	return bindings
}

func portIndex(ports []model.Port) (map[string]model.Port, error) {
	idx := make(map[string]model.Port, len(ports))

	for _, port := range ports {
		if port.Name == "" {
			return nil, ErrPortNameMustBeSet
		}

		if port.Type == nil {
			return nil, errors.Wrapf(ErrPortType, "port %q declares no type", port.Name)
		}

		if _, ok := idx[port.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicatePort, "port %q", port.Name)
		}

		idx[port.Name] = port
	}

	return idx, nil
}
