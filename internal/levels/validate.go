package levels

import "fmt"

// ValidationError contains details about validation failure.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate checks a level's structure:
//   - it has an id and at least one stage
//   - creation ids are unique across the whole level
//   - every update targets an id created in the same or an earlier stage
func Validate(l *Level) error {
	if l.ID == "" {
		return ValidationError{Code: "MISSING_ID", Message: "level has no id"}
	}
	if len(l.Stages) == 0 {
		return ValidationError{
			Code:    "NO_STAGES",
			Message: fmt.Sprintf("level %s has no stages", l.ID),
		}
	}

	seen := make(map[uint32]int)
	for i, stage := range l.Stages {
		for _, c := range stage.Shapes {
			if c.ID == nil {
				continue
			}
			if first, dup := seen[*c.ID]; dup {
				return ValidationError{
					Code:    "DUPLICATE_ID",
					Message: fmt.Sprintf("level %s: id %d declared in stage %d and %d", l.ID, *c.ID, first, i),
				}
			}
			seen[*c.ID] = i
		}
		for _, u := range stage.Updates {
			if _, ok := seen[u.ID]; !ok {
				return ValidationError{
					Code:    "UNKNOWN_ID",
					Message: fmt.Sprintf("level %s: stage %d updates undeclared id %d", l.ID, i, u.ID),
				}
			}
		}
	}
	return nil
}
