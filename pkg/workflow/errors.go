package workflow

import "errors"

var (
	ErrWorkflowNotFound  = errors.New("workflow: instance not found")
	ErrStepFailed        = errors.New("workflow: step failed")
	ErrUnknownStepType   = errors.New("workflow: unknown step type")
	ErrInvalidDefinition = errors.New("workflow: invalid definition")
	ErrInvalidStepConfig = errors.New("workflow: step config does not match step type")
	ErrInvalidTransition = errors.New("workflow: invalid lifecycle transition")
	ErrUnknownCondition  = errors.New("workflow: unknown condition")
	ErrStore             = errors.New("workflow: store operation failed")
	ErrSweeperRunning    = errors.New("workflow: sweeper already running")
	ErrInvalidSchedule   = errors.New("workflow: invalid sweep schedule")
)
