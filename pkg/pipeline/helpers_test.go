package pipeline_test

import (
	"context"
	"time"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

// intSource produces a single constant on an int output port.
func intSource(port string, value int) pipeline.Stage {
	return pipeline.NewSource([]model.Port{model.Out[int](port)},
		func(_ context.Context, _ model.Values) (model.Values, error) {
			return model.Values{port: value}, nil
		})
}

// intMap reads an int port, applies fn and writes the result.
func intMap(inPort, outPort string, fn func(int) int) pipeline.Stage {
	in := model.In[int](inPort)

	return pipeline.NewStage([]model.Port{in}, []model.Port{model.Out[int](outPort)},
		func(_ context.Context, vals model.Values) (model.Values, error) {
			v, err := model.Value[int](vals, in)
			if err != nil {
				return nil, err
			}

			return model.Values{outPort: fn(v)}, nil
		})
}

// recorder appends its id to visited when it runs, to observe scheduling.
func recorder(id string, visited *[]string) pipeline.Stage {
	return pipeline.NewSource(nil,
		func(_ context.Context, _ model.Values) (model.Values, error) {
			*visited = append(*visited, id)

			return nil, nil
		})
}

// recordingOption records every hook invocation.
type recordingOption struct {
	news     int
	finishes int
	stages   []string
	bindings []string
	before   []string
	after    []string
}

func (r *recordingOption) New() error {
	r.news++

	return nil
}

func (r *recordingOption) StageAdded(stage *model.StageInfo) error {
	r.stages = append(r.stages, stage.ID)

	return nil
}

func (r *recordingOption) BindingAdded(binding *model.Binding) error {
	r.bindings = append(r.bindings, binding.String())

	return nil
}

func (r *recordingOption) BeforeStage(stage *model.StageInfo) error {
	r.before = append(r.before, stage.ID)

	return nil
}

func (r *recordingOption) AfterStage(stage *model.StageInfo, _ time.Duration) error {
	r.after = append(r.after, stage.ID)

	return nil
}

func (r *recordingOption) Finish(_ time.Duration) error {
	r.finishes++

	return nil
}

// failingOption fails at construction time.
type failingOption struct {
	recordingOption
	err error
}

func (f *failingOption) New() error {
	return f.err
}
