package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineAssemblyOption
	pipelineExecutionOption

	// Finish runs after a pipeline run has completed.
	Finish(runDuration time.Duration) error
}

// pipelineAssemblyOption defines the hooks fired while the pipeline is built.
type pipelineAssemblyOption interface {
	// StageAdded runs when a stage is registered with the pipeline.
	StageAdded(stage *StageInfo) error
	// BindingAdded runs when two ports are connected.
	BindingAdded(binding *Binding) error
}

// pipelineExecutionOption defines the hooks fired while the pipeline runs.
type pipelineExecutionOption interface {
	// BeforeStage runs before each stage is executed.
	BeforeStage(stage *StageInfo) error
	// AfterStage runs after each stage has executed.
	AfterStage(stage *StageInfo, stageDuration time.Duration) error
}
