package measure

import (
	"time"

	"github.com/ragline/ragline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) StageAdded(stage *model.StageInfo) error {
	pm.AddMetric(stage.ID)

	return nil
}

func (pm *pipelineMeasure) BindingAdded(binding *model.Binding) error {
	return nil
}

func (pm *pipelineMeasure) BeforeStage(stage *model.StageInfo) error {
	return nil
}

func (pm *pipelineMeasure) AfterStage(stage *model.StageInfo, stageDuration time.Duration) error {
	mt := pm.GetMetric(stage.ID)
	if mt == nil {
		mt = pm.AddMetric(stage.ID)
	}

	mt.AddDuration(stageDuration)

	return nil
}

func (pm *pipelineMeasure) Finish(runDuration time.Duration) error {
	pm.AddRun(runDuration)

	return nil
}

// PipelineMeasure observes a pipeline and records per stage run counts and
// durations into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
