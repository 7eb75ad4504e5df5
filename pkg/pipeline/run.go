package pipeline

import (
	"context"
	"reflect"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/ragline/ragline/pkg/pipeline/model"
)

// Inputs carries external values into a run, keyed by stage id and then by
// input port name.
type Inputs map[string]model.Values

// Outputs collects the values produced by every stage of a run, keyed by
// stage id and then by output port name.
type Outputs map[string]model.Values

// Run executes every stage exactly once, synchronously, in a topological
// order of the binding graph. Ties between independent stages are broken by
// stage insertion order, so the schedule is deterministic.
//
// External inputs and the satisfaction of every required input port are
// validated before any stage runs. The first stage error aborts the run and
// is returned wrapped with the id of the failing stage, the cause unchanged.
func (p *Pipeline) Run(ctx context.Context, inputs Inputs) (Outputs, error) {
	start := time.Now()

	err := p.validateExternal(inputs)
	if err != nil {
		return nil, err
	}

	err = p.validateSatisfied(inputs)
	if err != nil {
		return nil, err
	}

	order, err := p.executionOrder()
	if err != nil {
		return nil, err
	}

	outputs := make(Outputs, len(order))

	for _, id := range order {
		err := ctx.Err()
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline interrupted before stage %q", id)
		}

		stageNode := p.stages[id]

		for _, hook := range p.opts {
			err := hook.BeforeStage(stageNode.info)
			if err != nil {
				return nil, errors.Wrap(err, "unable to apply pipeline option")
			}
		}

		stageStart := time.Now()

		out, err := stageNode.stage.Run(ctx, p.stageInputs(stageNode, inputs[id], outputs))
		if err != nil {
			return nil, errors.Wrapf(err, "stage %q", id)
		}

		stageDuration := time.Since(stageStart)

		if out == nil {
			out = model.Values{}
		}

		err = p.checkOutputs(stageNode, out)
		if err != nil {
			return nil, err
		}

		outputs[id] = out

		for _, hook := range p.opts {
			err := hook.AfterStage(stageNode.info, stageDuration)
			if err != nil {
				return nil, errors.Wrap(err, "unable to apply pipeline option")
			}
		}
	}

	err = p.finishRun(time.Since(start))
	if err != nil {
		return nil, err
	}

	return outputs, nil
}

// executionOrder sorts stages topologically, breaking ties by insertion
// order.
func (p *Pipeline) executionOrder() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool {
		idxA, _ := p.store.IndexOf(a)
		idxB, _ := p.store.IndexOf(b)

		return idxA < idxB
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort stages")
	}

	return order, nil
}

// validateExternal checks every externally supplied value against the
// declared input ports.
func (p *Pipeline) validateExternal(inputs Inputs) error {
	for id := range inputs {
		if _, ok := p.stages[id]; !ok {
			return errors.Wrapf(ErrUnknownStage, "external input for stage %q", id)
		}
	}

	for _, id := range p.order {
		vals, ok := inputs[id]
		if !ok {
			continue
		}

		stageNode := p.stages[id]

		for name, value := range vals {
			port, ok := stageNode.inputs[name]
			if !ok {
				return errors.Wrapf(ErrUnknownPort, "stage %q has no input %q", id, name)
			}

			if stageNode.mode[name] != bindNone {
				return errors.Wrapf(ErrPortOccupied, "input %s.%s is fed by a binding", id, name)
			}

			if value == nil {
				return errors.Wrapf(ErrPortType, "input %s.%s is untyped nil", id, name)
			}

			if !reflect.TypeOf(value).AssignableTo(port.Type) {
				return errors.Wrapf(ErrPortType, "input %s.%s is %T, wants %s", id, name, value, port.Type)
			}
		}
	}

	return nil
}

// validateSatisfied checks that every required input port of every stage is
// fed by an external value or a binding. It runs before any stage does.
func (p *Pipeline) validateSatisfied(inputs Inputs) error {
	for _, id := range p.order {
		stageNode := p.stages[id]

		for _, port := range stageNode.info.Inputs {
			if port.Optional {
				continue
			}

			if _, ok := inputs[id][port.Name]; ok {
				continue
			}

			if len(stageNode.bindings[port.Name]) > 0 {
				continue
			}

			return errors.Wrapf(ErrMissingInput, "stage %q port %q", id, port.Name)
		}
	}

	return nil
}

// stageInputs assembles the input values of a stage from external values and
// the outputs of already executed stages. Collected ports gather their
// values in binding declaration order.
func (p *Pipeline) stageInputs(stageNode *node, external model.Values, outputs Outputs) model.Values {
	in := make(model.Values, len(stageNode.info.Inputs))

	for _, port := range stageNode.info.Inputs {
		if value, ok := external[port.Name]; ok {
			in[port.Name] = value

			continue
		}

		bindings := stageNode.bindings[port.Name]
		if len(bindings) == 0 {
			continue
		}

		if stageNode.mode[port.Name] == bindCollect {
			collected := reflect.MakeSlice(port.Type, 0, len(bindings))
			for _, binding := range bindings {
				collected = reflect.Append(collected, reflect.ValueOf(outputs[binding.FromStage][binding.FromPort]))
			}

			in[port.Name] = collected.Interface()

			continue
		}

		binding := bindings[0]
		in[port.Name] = outputs[binding.FromStage][binding.FromPort]
	}

	return in
}

// checkOutputs verifies a stage produced exactly its declared output ports
// with assignable types.
func (p *Pipeline) checkOutputs(stageNode *node, out model.Values) error {
	for name := range out {
		if _, ok := stageNode.outputs[name]; !ok {
			return errors.Wrapf(ErrUnknownPort, "stage %q produced undeclared port %q", stageNode.info.ID, name)
		}
	}

	for _, port := range stageNode.info.Outputs {
		value, ok := out[port.Name]
		if !ok {
			return errors.Wrapf(ErrMissingOutput, "stage %q port %q", stageNode.info.ID, port.Name)
		}

		if value == nil {
			return errors.Wrapf(ErrPortType, "output %s.%s is untyped nil", stageNode.info.ID, port.Name)
		}

		if !reflect.TypeOf(value).AssignableTo(port.Type) {
			return errors.Wrapf(ErrPortType, "output %s.%s is %T, wants %s",
				stageNode.info.ID, port.Name, value, port.Type)
		}
	}

	return nil
}

func (p *Pipeline) finishRun(runDuration time.Duration) error {
	for _, hook := range p.opts {
		err := hook.Finish(runDuration)
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}
