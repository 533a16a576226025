package workflow

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// StepType identifies the action a step performs.
type StepType string

const (
	StepSend      StepType = "send"
	StepDelay     StepType = "delay"
	StepCondition StepType = "condition"
	StepEscalate  StepType = "escalate"
	StepComplete  StepType = "complete"
)

// Valid reports whether t is a known step type.
func (t StepType) Valid() bool {
	switch t {
	case StepSend, StepDelay, StepCondition, StepEscalate, StepComplete:
		return true
	}
	return false
}

// TriggerType describes what starts a workflow. The engine does not act on it.
type TriggerType string

const (
	TriggerImmediate TriggerType = "immediate"
	TriggerScheduled TriggerType = "scheduled"
	TriggerEvent     TriggerType = "event"
	TriggerCondition TriggerType = "condition"
)

// Trigger is descriptive metadata for the host application.
type Trigger struct {
	Type   TriggerType    `json:"type" yaml:"type"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Definition is a read-only step graph. Execution starts at Steps[0].
type Definition struct {
	ID          string
	Name        string
	Description string
	Trigger     Trigger
	Steps       []Step
	Enabled     bool
}

// Condition is a predicate over a running instance. On a condition step it
// provides the step result; on any step it also guards the edge to NextStepID.
type Condition func(ctx context.Context, wc *Context) (bool, error)

// Step is one node of the graph.
type Step struct {
	ID         string
	Type       StepType
	Config     StepConfig // nil means the zero config for Type
	NextStepID string
	Condition  Condition
}

// StepConfig is implemented by the per-type configuration structs.
type StepConfig interface {
	stepType() StepType
}

// SendConfig builds the request of a send step. Empty fields fall back to
// type "system", title "Notification" and medium priority.
type SendConfig struct {
	Type     notifications.Type
	Title    string
	Message  string
	Priority notifications.Priority
	Channels []notifications.Channel // empty means routed by the orchestrator
	Data     map[string]any
}

// DelayConfig pauses the instance. Non-positive delays are no-ops.
type DelayConfig struct {
	Delay time.Duration
}

// ConditionConfig has no options; the predicate is Step.Condition.
type ConditionConfig struct{}

// EscalateConfig builds the request of an escalate step.
type EscalateConfig struct {
	Type    notifications.Type
	Title   string
	Message string
	Data    map[string]any
}

// CompleteConfig has no options.
type CompleteConfig struct{}

func (SendConfig) stepType() StepType      { return StepSend }
func (DelayConfig) stepType() StepType     { return StepDelay }
func (ConditionConfig) stepType() StepType { return StepCondition }
func (EscalateConfig) stepType() StepType  { return StepEscalate }
func (CompleteConfig) stepType() StepType  { return StepComplete }

// Status is the lifecycle state of an instance.
type Status string

const (
	StatusRunning   Status = "running"
	StatusHalted    Status = "halted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Context is the state of one running instance.
type Context struct {
	WorkflowID    string         `json:"workflow_id"`
	DefinitionID  string         `json:"definition_id,omitempty"`
	RecipientID   string         `json:"recipient_id"`
	CurrentStepID string         `json:"current_step_id"`
	Status        Status         `json:"status"`
	Data          map[string]any `json:"data"`
	History       []StepHistory  `json:"history"`
	StartedAt     time.Time      `json:"started_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// StepHistory records one executed step. History is append-only.
type StepHistory struct {
	StepID     string    `json:"step_id"`
	StepType   StepType  `json:"step_type"`
	ExecutedAt time.Time `json:"executed_at"`
	Success    bool      `json:"success"`
	Result     any       `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Clone returns a deep copy of wc.
func (wc *Context) Clone() *Context {
	if wc == nil {
		return nil
	}
	out := *wc
	out.Data = cloneMap(wc.Data)
	out.History = make([]StepHistory, len(wc.History))
	for i, h := range wc.History {
		h.Result = cloneValue(h.Result)
		out.History[i] = h
	}
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case notifications.DeliveryResult:
		t.Outcomes = append([]notifications.ChannelOutcome(nil), t.Outcomes...)
		return t
	default:
		return v
	}
}
