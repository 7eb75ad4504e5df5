package orderbook

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

// Port and stage names used by the aggregator assembly.
const (
	PortUpdate = "update"
	PortTop    = "top"

	StageAggregate = "aggregate"
)

// AggregatorStage folds each incoming depth message into book and emits the
// book's top levels. The book persists across runs, so feeding one message
// per run replays a stream into a live ladder. Depth limits the emitted
// levels per side; 0 keeps every level.
func AggregatorStage(book *Book, depth int) pipeline.Stage {
	in := model.In[Update](PortUpdate)
	out := model.Out[Top](PortTop)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(_ context.Context, vals model.Values) (model.Values, error) {
		update, err := model.Value[Update](vals, in)
		if err != nil {
			return nil, err
		}

		if err := book.Apply(update); err != nil {
			return nil, errors.Wrapf(err, "unable to apply update %d", update.Sequence)
		}

		return model.Values{out.Name: book.Top(depth)}, nil
	})
}

// NewPipeline assembles a single aggregate stage over book.
func NewPipeline(book *Book, depth int, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(opts...)
	if err != nil {
		return nil, err
	}

	if err := pipe.AddStage(StageAggregate, AggregatorStage(book, depth)); err != nil {
		return nil, errors.Wrapf(err, "unable to add stage %q", StageAggregate)
	}

	return pipe, nil
}

// UpdateInputs builds the external inputs that feed one depth message into a
// pipeline assembled by NewPipeline.
func UpdateInputs(u Update) pipeline.Inputs {
	return pipeline.Inputs{
		StageAggregate: model.Values{PortUpdate: u},
	}
}

// TopOf extracts the emitted top levels from an aggregator run.
func TopOf(outputs pipeline.Outputs) (Top, error) {
	return model.Value[Top](outputs[StageAggregate], model.Out[Top](PortTop))
}
