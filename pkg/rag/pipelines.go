package rag

import (
	"github.com/pkg/errors"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

// Stage ids used by the canonical pipeline assemblies.
const (
	StageSource   = "source"
	StageSplit    = "split"
	StageEmbed    = "embed"
	StageWrite    = "write"
	StageRetrieve = "retrieve"
	StagePrompt   = "prompt"
	StageGenerate = "generate"
)

// NewIndexPipeline assembles source -> split -> embed -> write.
func NewIndexPipeline(source pipeline.Stage, splitter Splitter, embedder Embedder, store DocumentStore, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(opts...)
	if err != nil {
		return nil, err
	}

	stages := []struct {
		id    string
		stage pipeline.Stage
	}{
		{StageSource, source},
		{StageSplit, SplitterStage(splitter)},
		{StageEmbed, EmbedderStage(embedder)},
		{StageWrite, WriterStage(store)},
	}
	for _, s := range stages {
		if err := pipe.AddStage(s.id, s.stage); err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %q", s.id)
		}
	}

	bindings := []struct {
		from, to string
	}{
		{StageSource, StageSplit},
		{StageSplit, StageEmbed},
		{StageEmbed, StageWrite},
	}
	for _, b := range bindings {
		if err := pipe.Connect(b.from, PortDocuments, b.to, PortDocuments); err != nil {
			return nil, errors.Wrapf(err, "unable to bind %s to %s", b.from, b.to)
		}
	}

	return pipe, nil
}

// NewQueryPipeline assembles retrieve -> prompt -> generate. The query enters
// as an external input on the retrieve and prompt stages; use QueryInputs to
// build it.
func NewQueryPipeline(retriever Retriever, searchOpts SearchOptions, builder *PromptBuilder, generator Generator, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	pipe, err := pipeline.New(opts...)
	if err != nil {
		return nil, err
	}

	stages := []struct {
		id    string
		stage pipeline.Stage
	}{
		{StageRetrieve, RetrieverStage(retriever, searchOpts)},
		{StagePrompt, PromptStage(builder)},
		{StageGenerate, GeneratorStage(generator)},
	}
	for _, s := range stages {
		if err := pipe.AddStage(s.id, s.stage); err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %q", s.id)
		}
	}

	if err := pipe.Connect(StageRetrieve, PortDocuments, StagePrompt, PortDocuments); err != nil {
		return nil, errors.Wrap(err, "unable to bind retrieve to prompt")
	}
	if err := pipe.Connect(StagePrompt, PortPrompt, StageGenerate, PortPrompt); err != nil {
		return nil, errors.Wrap(err, "unable to bind prompt to generate")
	}

	return pipe, nil
}

// QueryInputs builds the external inputs that feed a query into a pipeline
// assembled by NewQueryPipeline.
func QueryInputs(query string) pipeline.Inputs {
	return pipeline.Inputs{
		StageRetrieve: model.Values{PortQuery: query},
		StagePrompt:   model.Values{PortQuery: query},
	}
}

// Answer extracts the generated answer from a query pipeline run.
func Answer(outputs pipeline.Outputs) (string, error) {
	return model.Value[string](outputs[StageGenerate], model.Out[string](PortAnswer))
}

// Written extracts the write count from an index pipeline run.
func Written(outputs pipeline.Outputs) (int, error) {
	return model.Value[int](outputs[StageWrite], model.Out[int](PortWritten))
}

// Retrieved extracts the retrieved documents from a query pipeline run.
func Retrieved(outputs pipeline.Outputs) ([]Document, error) {
	return model.Value[[]Document](outputs[StageRetrieve], model.Out[[]Document](PortDocuments))
}
