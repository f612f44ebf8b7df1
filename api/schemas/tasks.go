// api/schemas/tasks.go
package schemas

import (
	"encoding/json"
	"fmt"
)

// SelectionType distinguishes the structured success-criteria shapes a task
// can declare and a page can report.
type SelectionType string

const (
	SelectionSingle   SelectionType = "single"
	SelectionRange    SelectionType = "range"
	SelectionMultiple SelectionType = "multiple"
)

// TargetValue is one expected value inside a structured goal. Fields are
// pointers so the validator only checks what the task actually specifies.
type TargetValue struct {
	Date  string `json:"date,omitempty"`
	Time  string `json:"time,omitempty"`
	Label string `json:"label,omitempty"`
}

// StructuredGoal is the machine-checkable form of success criteria: a
// selection type plus an ordered sequence of target values.
type StructuredGoal struct {
	Type   SelectionType `json:"type"`
	Values []TargetValue `json:"values"`
}

// SuccessCriteria is either a structured goal (normative) or an unordered
// list of free-text checks requiring external judgment.
type SuccessCriteria struct {
	Goal   *StructuredGoal `json:"goal,omitempty"`
	Checks []string        `json:"checks,omitempty"`
}

// UnmarshalJSON accepts both forms: a bare JSON array of strings (legacy
// free-text checks) and an object carrying a structured goal.
func (s *SuccessCriteria) UnmarshalJSON(data []byte) error {
	var checks []string
	if err := json.Unmarshal(data, &checks); err == nil {
		s.Checks = checks
		s.Goal = nil
		return nil
	}

	var goal StructuredGoal
	if err := json.Unmarshal(data, &goal); err == nil && goal.Type != "" {
		s.Goal = &goal
		s.Checks = nil
		return nil
	}

	type alias SuccessCriteria
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = SuccessCriteria(a)
	return nil
}

// Empty reports whether no criteria of either form are present.
func (s SuccessCriteria) Empty() bool {
	return s.Goal == nil && len(s.Checks) == 0
}

// ObservedValue is one value reported by the page's getSelectedValues()
// hook. Labels, when present, identify range endpoints.
type ObservedValue struct {
	Date  string `json:"date,omitempty"`
	Time  string `json:"time,omitempty"`
	Label string `json:"label,omitempty"`
}

// Selection is the full page-reported selection state consumed by the
// validator.
type Selection struct {
	Type   SelectionType   `json:"type"`
	Values []ObservedValue `json:"values"`
}

// Task is the immutable description of one evaluation unit.
type Task struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	TargetURL   string          `json:"target_url,omitempty"`
	Criteria    SuccessCriteria `json:"success_criteria"`
	TimeoutMS   int64           `json:"timeout_ms"`
	MaxSteps    int             `json:"max_steps"`
	// Metadata is an opaque key-value bag, passed through untouched.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// taskWire mirrors Task but also accepts the legacy "timeout" key
// (seconds) used by older task files.
type taskWire struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	TargetURL   string          `json:"target_url,omitempty"`
	Criteria    SuccessCriteria `json:"success_criteria"`
	TimeoutMS   int64           `json:"timeout_ms"`
	TimeoutSec  float64         `json:"timeout,omitempty"`
	MaxSteps    int             `json:"max_steps"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.ID = w.ID
	t.Description = w.Description
	t.TargetURL = w.TargetURL
	t.Criteria = w.Criteria
	t.TimeoutMS = w.TimeoutMS
	t.MaxSteps = w.MaxSteps
	t.Metadata = w.Metadata
	if t.TimeoutMS == 0 && w.TimeoutSec > 0 {
		t.TimeoutMS = int64(w.TimeoutSec * 1000)
	}
	return nil
}

// Validate rejects malformed tasks before a session starts.
func (t Task) Validate() error {
	if t.ID == "" {
		return Errorf(KindInvalidTask, "task is missing an id")
	}
	if t.Description == "" {
		return Errorf(KindInvalidTask, "task %q has an empty description", t.ID)
	}
	if t.TimeoutMS <= 0 {
		return Errorf(KindInvalidTask, "task %q has a non-positive timeout_ms (%d)", t.ID, t.TimeoutMS)
	}
	if t.MaxSteps <= 0 {
		return Errorf(KindInvalidTask, "task %q has a non-positive max_steps (%d)", t.ID, t.MaxSteps)
	}
	if g := t.Criteria.Goal; g != nil {
		if err := g.validate(); err != nil {
			return Errorf(KindInvalidTask, "task %q: %v", t.ID, err)
		}
	}
	return nil
}

func (g StructuredGoal) validate() error {
	switch g.Type {
	case SelectionSingle:
		if len(g.Values) != 1 {
			return fmt.Errorf("single goal must carry exactly 1 value, got %d", len(g.Values))
		}
	case SelectionRange:
		if len(g.Values) != 2 {
			return fmt.Errorf("range goal must carry exactly 2 values, got %d", len(g.Values))
		}
	case SelectionMultiple:
		if len(g.Values) < 1 {
			return fmt.Errorf("multiple goal must carry at least 1 value")
		}
	default:
		return fmt.Errorf("unknown goal type %q", g.Type)
	}
	return nil
}
