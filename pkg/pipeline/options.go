package pipeline

import "github.com/ragline/ragline/pkg/pipeline/model"

// Option configures a pipeline at construction time.
type Option func(p *Pipeline)

// WithHooks registers pipeline options observing assembly and execution,
// such as drawer.PipelineDrawer and measure.PipelineMeasure.
func WithHooks(hooks ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, hooks...)
	}
}

// CollectFanIn switches the fan-in policy from rejection to collection. An
// input port of slice type may then receive any number of bindings carrying
// its element type, and the bound values are gathered into the slice in
// binding declaration order. Without this option a second binding to an
// occupied input port fails with ErrPortOccupied.
func CollectFanIn() Option {
	return func(p *Pipeline) {
		p.collectFanIn = true
	}
}
