package workflow

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

type yamlDefinition struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Enabled     *bool      `yaml:"enabled"`
	Trigger     Trigger    `yaml:"trigger"`
	Steps       []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	ID        string     `yaml:"id"`
	Type      StepType   `yaml:"type"`
	Next      string     `yaml:"next"`
	Condition string     `yaml:"condition"`
	Config    yamlConfig `yaml:"config"`
}

// yamlConfig is the union of every step config.
type yamlConfig struct {
	Type     string         `yaml:"type"`
	Title    string         `yaml:"title"`
	Message  string         `yaml:"message"`
	Priority string         `yaml:"priority"`
	Channels []string       `yaml:"channels"`
	Data     map[string]any `yaml:"data"`
	// Delay is a duration string ("90s") or a number of milliseconds.
	Delay any `yaml:"delay"`
}

// ParseDefinition decodes a YAML workflow definition. Step conditions are
// referenced by name and resolved from predicates. A missing "enabled" key
// means enabled.
func ParseDefinition(data []byte, predicates map[string]Condition) (Definition, error) {
	var raw yamlDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, errors.Join(ErrInvalidDefinition, err)
	}

	def := Definition{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Trigger:     raw.Trigger,
		Enabled:     raw.Enabled == nil || *raw.Enabled,
		Steps:       make([]Step, 0, len(raw.Steps)),
	}

	for _, rs := range raw.Steps {
		step := Step{ID: rs.ID, Type: rs.Type, NextStepID: rs.Next}

		if rs.Condition != "" {
			cond, ok := predicates[rs.Condition]
			if !ok {
				return Definition{}, fmt.Errorf("%w: %q on step %q", ErrUnknownCondition, rs.Condition, rs.ID)
			}
			step.Condition = cond
		}

		cfg, err := rs.Config.build(rs.Type)
		if err != nil {
			return Definition{}, fmt.Errorf("step %q: %w", rs.ID, err)
		}
		step.Config = cfg
		def.Steps = append(def.Steps, step)
	}

	if err := Validate(def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (c yamlConfig) build(t StepType) (StepConfig, error) {
	switch t {
	case StepSend:
		channels := make([]notifications.Channel, 0, len(c.Channels))
		for _, name := range c.Channels {
			ch := notifications.Channel(name)
			if !ch.Valid() {
				return nil, fmt.Errorf("%w: channel %q", ErrInvalidStepConfig, name)
			}
			channels = append(channels, ch)
		}
		return SendConfig{
			Type:     notifications.Type(c.Type),
			Title:    c.Title,
			Message:  c.Message,
			Priority: notifications.Priority(c.Priority),
			Channels: channels,
			Data:     c.Data,
		}, nil
	case StepDelay:
		d, err := parseDelay(c.Delay)
		if err != nil {
			return nil, err
		}
		return DelayConfig{Delay: d}, nil
	case StepCondition:
		return ConditionConfig{}, nil
	case StepEscalate:
		return EscalateConfig{
			Type:    notifications.Type(c.Type),
			Title:   c.Title,
			Message: c.Message,
			Data:    c.Data,
		}, nil
	case StepComplete:
		return CompleteConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStepType, t)
	}
}

func parseDelay(v any) (time.Duration, error) {
	switch d := v.(type) {
	case nil:
		return 0, nil
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case float64:
		return time.Duration(d * float64(time.Millisecond)), nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, errors.Join(ErrInvalidStepConfig, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: delay of type %T", ErrInvalidStepConfig, v)
	}
}
