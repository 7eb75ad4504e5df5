package drawer

import (
	"github.com/ragline/ragline/pkg/pipeline/measure"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStage adds a stage to the pipeline drawer.
	AddStage(id string) error
	// AddBinding adds a port binding between two stages.
	AddBinding(binding *model.Binding) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// AddMeasure decorates the graph with the recorded stage durations.
	AddMeasure(measure measure.Measure) error
}
