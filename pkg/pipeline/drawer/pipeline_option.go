package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/ragline/ragline/pkg/pipeline/measure"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m measure.Measure
}

func (pd *pipelineDrawer) New() error {
	return nil
}

func (pd *pipelineDrawer) StageAdded(stage *model.StageInfo) error {
	err := pd.AddStage(stage.ID)
	if err != nil {
		return errors.Wrapf(err, "unable to add stage %q to drawer", stage.ID)
	}

	return nil
}

func (pd *pipelineDrawer) BindingAdded(binding *model.Binding) error {
	err := pd.AddBinding(binding)
	if err != nil {
		return errors.Wrapf(err, "unable to add binding %s to drawer", binding)
	}

	return nil
}

func (pd *pipelineDrawer) BeforeStage(stage *model.StageInfo) error {
	return nil
}

func (pd *pipelineDrawer) AfterStage(stage *model.StageInfo, stageDuration time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish(runDuration time.Duration) error {
	if pd.m != nil {
		err := pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer renders the pipeline graph after every run, decorated with
// the given measure when one is provided.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure}
}
