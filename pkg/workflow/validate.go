package workflow

import "fmt"

// Validate checks that def can be driven: every step has a unique id, a known
// type and, when set, a config of the matching type. A definition without
// steps is valid and halts immediately.
func Validate(def Definition) error {
	seen := make(map[string]struct{}, len(def.Steps))
	for i, step := range def.Steps {
		if step.ID == "" {
			return fmt.Errorf("%w: step %d has an empty id", ErrInvalidDefinition, i)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidDefinition, step.ID)
		}
		seen[step.ID] = struct{}{}

		if !step.Type.Valid() {
			return fmt.Errorf("%w: step %q has type %q", ErrUnknownStepType, step.ID, step.Type)
		}
		if step.Config != nil && step.Config.stepType() != step.Type {
			return fmt.Errorf("%w: step %q is %s but has %s config",
				ErrInvalidStepConfig, step.ID, step.Type, step.Config.stepType())
		}
	}
	return nil
}
