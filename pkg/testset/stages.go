package testset

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/model"
	"github.com/ragline/ragline/pkg/rag"
)

// Stage ids and the samples port used by the testset pipeline.
const (
	StageSample   = "sample"
	StageQuestion = "question"
	StageSink     = "sink"

	PortSamples = "samples"
)

// SamplerStage produces the sampled documents.
func SamplerStage(g *Generator) pipeline.Stage {
	out := model.Out[[]rag.Document](rag.PortDocuments)

	return pipeline.NewSource([]model.Port{out}, func(ctx context.Context, _ model.Values) (model.Values, error) {
		docs, err := g.SampleDocuments(ctx)
		if err != nil {
			return nil, err
		}

		return model.Values{out.Name: docs}, nil
	})
}

// QuestionStage turns documents into samples.
func QuestionStage(g *Generator) pipeline.Stage {
	in := model.In[[]rag.Document](rag.PortDocuments)
	out := model.Out[[]Sample](PortSamples)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		docs, err := model.Value[[]rag.Document](vals, in)
		if err != nil {
			return nil, err
		}

		samples, err := g.Questions(ctx, docs)
		if err != nil {
			return nil, err
		}

		return model.Values{out.Name: samples}, nil
	})
}

// SinkStage writes incoming samples to w as JSON lines and reports the count.
func SinkStage(w io.Writer) pipeline.Stage {
	in := model.In[[]Sample](PortSamples)
	out := model.Out[int](rag.PortWritten)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(_ context.Context, vals model.Values) (model.Values, error) {
		samples, err := model.Value[[]Sample](vals, in)
		if err != nil {
			return nil, err
		}

		if err := WriteJSONL(w, samples); err != nil {
			return nil, err
		}

		return model.Values{out.Name: len(samples)}, nil
	})
}

// NewPipeline assembles sample -> question -> sink writing to w.
func NewPipeline(g *Generator, w io.Writer, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(opts...)
	if err != nil {
		return nil, err
	}

	stages := []struct {
		id    string
		stage pipeline.Stage
	}{
		{StageSample, SamplerStage(g)},
		{StageQuestion, QuestionStage(g)},
		{StageSink, SinkStage(w)},
	}
	for _, s := range stages {
		if err := pipe.AddStage(s.id, s.stage); err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %q", s.id)
		}
	}

	if err := pipe.Connect(StageSample, rag.PortDocuments, StageQuestion, rag.PortDocuments); err != nil {
		return nil, errors.Wrap(err, "unable to bind sample to question")
	}
	if err := pipe.Connect(StageQuestion, PortSamples, StageSink, PortSamples); err != nil {
		return nil, errors.Wrap(err, "unable to bind question to sink")
	}

	return pipe, nil
}

// Samples extracts the generated samples from a run.
func Samples(outputs pipeline.Outputs) ([]Sample, error) {
	return model.Value[[]Sample](outputs[StageQuestion], model.Out[[]Sample](PortSamples))
}

// Written extracts the sink's written count from a run.
func Written(outputs pipeline.Outputs) (int, error) {
	return model.Value[int](outputs[StageSink], model.Out[int](rag.PortWritten))
}
