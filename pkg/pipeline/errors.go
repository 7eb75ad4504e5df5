package pipeline

import (
	"github.com/pkg/errors"
)

var (
	ErrStageMustBeSet    = errors.New("stage must be set")
	ErrStageIDMustBeSet  = errors.New("stage id must be set")
	ErrStageExists       = errors.New("stage id already registered")
	ErrPortNameMustBeSet = errors.New("port name must be set")
	ErrDuplicatePort     = errors.New("duplicate port name")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrUnknownPort       = errors.New("unknown port")
	ErrPortType          = errors.New("port type mismatch")
	ErrPortOccupied      = errors.New("input port already bound")
	ErrCycle             = errors.New("binding would create a cycle")
	ErrMissingInput      = errors.New("required input port not satisfied")
	ErrMissingOutput     = errors.New("declared output port not produced")
)
