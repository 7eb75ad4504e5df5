package pipeline

import (
	"context"

	"github.com/ragline/ragline/pkg/pipeline/model"
)

// Stage is a unit of computation in a pipeline. A stage declares the ports it
// reads and writes; the pipeline routes values between stages according to
// the bindings declared on those ports.
//
// Run receives a value for every satisfied input port and must return a value
// for every declared output port. Stages may keep internal state across runs
// of the same pipeline.
type Stage interface {
	Inputs() []model.Port
	Outputs() []model.Port
	Run(ctx context.Context, in model.Values) (model.Values, error)
}

// StageFunc is the function signature wrapped by NewStage.
type StageFunc func(ctx context.Context, in model.Values) (model.Values, error)

type funcStage struct {
	inputs  []model.Port
	outputs []model.Port
	fn      StageFunc
}

// NewStage wraps a plain function into a Stage with the given ports.
func NewStage(inputs, outputs []model.Port, fn StageFunc) Stage {
	return &funcStage{inputs: inputs, outputs: outputs, fn: fn}
}

// NewSource wraps a function producing values without consuming any, the
// usual entry point of a pipeline.
func NewSource(outputs []model.Port, fn StageFunc) Stage {
	return &funcStage{outputs: outputs, fn: fn}
}

// NewSink wraps a function consuming values without producing any, the usual
// exit point of a pipeline.
func NewSink(inputs []model.Port, fn StageFunc) Stage {
	return &funcStage{inputs: inputs, fn: fn}
}

func (s *funcStage) Inputs() []model.Port {
	return s.inputs
}

func (s *funcStage) Outputs() []model.Port {
	return s.outputs
}

func (s *funcStage) Run(ctx context.Context, in model.Values) (model.Values, error) {
	return s.fn(ctx, in)
}
