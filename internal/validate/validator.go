// File: internal/validate/validator.go
// Description: Decides COMPLETE / INCOMPLETE / AMBIGUOUS for a task given
// the page-reported selection state or, for free-text criteria, an
// external judge.
package validate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

// Validator evaluates task success criteria. The judge is optional; it is
// only consulted for free-text checks.
type Validator struct {
	judge  schemas.Judge
	logger *zap.Logger
}

// NewValidator builds a validator. judge may be nil when only structured
// criteria are expected.
func NewValidator(judge schemas.Judge) *Validator {
	return &Validator{
		judge:  judge,
		logger: observability.GetLogger().Named("validator"),
	}
}

// HasCheapCheck reports whether the task carries a structured goal the
// orchestrator can afford to poll every step.
func (v *Validator) HasCheapCheck(task schemas.Task) bool {
	return task.Criteria.Goal != nil
}

// Evaluate produces a verdict. Structured goals are checked against the
// page's selection state via reader; free-text checks go through the
// judge. Inability to read state or to obtain a judgment yields AMBIGUOUS,
// never an error.
func (v *Validator) Evaluate(ctx context.Context, task schemas.Task, reader schemas.StateReader, stateDigest string) schemas.Verdict {
	if goal := task.Criteria.Goal; goal != nil {
		return v.evaluateStructured(ctx, *goal, reader)
	}
	if len(task.Criteria.Checks) > 0 {
		return v.evaluateChecks(ctx, task.Criteria.Checks, stateDigest)
	}
	// A task with no criteria at all gives us nothing to verify.
	v.logger.Warn("Task carries no success criteria; verdict is ambiguous.", zap.String("task_id", task.ID))
	return schemas.VerdictAmbiguous
}

func (v *Validator) evaluateStructured(ctx context.Context, goal schemas.StructuredGoal, reader schemas.StateReader) schemas.Verdict {
	sel, err := reader.SelectedValues(ctx)
	if err != nil {
		v.logger.Debug("Selection state unavailable.", zap.Error(err))
		return schemas.VerdictAmbiguous
	}

	switch goal.Type {
	case schemas.SelectionSingle:
		return v.evaluateSingle(goal.Values[0], sel.Values)
	case schemas.SelectionRange:
		return v.evaluateRange(goal.Values, sel.Values)
	case schemas.SelectionMultiple:
		return v.evaluateMultiple(goal.Values, sel.Values)
	}
	return schemas.VerdictAmbiguous
}

func (v *Validator) evaluateSingle(target schemas.TargetValue, observed []schemas.ObservedValue) schemas.Verdict {
	if len(observed) == 0 {
		return schemas.VerdictIncomplete
	}
	if matchValue(target, observed[0]) {
		return schemas.VerdictComplete
	}
	return schemas.VerdictIncomplete
}

// evaluateRange matches two observed values against [start, end]. Order
// decides the pairing unless the page labels both endpoints
// unambiguously, in which case labels win.
func (v *Validator) evaluateRange(targets []schemas.TargetValue, observed []schemas.ObservedValue) schemas.Verdict {
	if len(observed) < 2 {
		return schemas.VerdictIncomplete
	}

	if start, end, ok := labeledEndpoints(observed); ok {
		if matchValue(targets[0], start) && matchValue(targets[1], end) {
			return schemas.VerdictComplete
		}
		return schemas.VerdictIncomplete
	}

	if matchValue(targets[0], observed[0]) && matchValue(targets[1], observed[1]) {
		return schemas.VerdictComplete
	}
	return schemas.VerdictIncomplete
}

// labeledEndpoints identifies start/end by label. Both must be labeled and
// the labels must disambiguate, otherwise order-based matching applies.
func labeledEndpoints(observed []schemas.ObservedValue) (start, end schemas.ObservedValue, ok bool) {
	var haveStart, haveEnd bool
	for _, o := range observed {
		switch strings.ToLower(strings.TrimSpace(o.Label)) {
		case "start", "from", "begin":
			if haveStart {
				return start, end, false
			}
			start, haveStart = o, true
		case "end", "to", "until":
			if haveEnd {
				return start, end, false
			}
			end, haveEnd = o, true
		}
	}
	return start, end, haveStart && haveEnd
}

func (v *Validator) evaluateMultiple(targets []schemas.TargetValue, observed []schemas.ObservedValue) schemas.Verdict {
	used := make([]bool, len(observed))
	for _, target := range targets {
		found := false
		for i, o := range observed {
			if !used[i] && matchValue(target, o) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return schemas.VerdictIncomplete
		}
	}
	return schemas.VerdictComplete
}

func (v *Validator) evaluateChecks(ctx context.Context, checks []string, stateDigest string) schemas.Verdict {
	if v.judge == nil {
		v.logger.Warn("Free-text criteria present but no judge configured.")
		return schemas.VerdictAmbiguous
	}
	for _, check := range checks {
		ok, err := v.judge.Judge(ctx, check, stateDigest)
		if err != nil {
			v.logger.Debug("Judge produced no verdict.", zap.String("check", check), zap.Error(err))
			return schemas.VerdictAmbiguous
		}
		if !ok {
			return schemas.VerdictIncomplete
		}
	}
	return schemas.VerdictComplete
}

// matchValue compares one target against one observed value. Every field
// the target specifies must match; unspecified fields are ignored.
func matchValue(target schemas.TargetValue, obs schemas.ObservedValue) bool {
	if target.Time != "" && !timesMatch(target.Time, obs.Time) {
		return false
	}
	if target.Date != "" && strings.TrimSpace(target.Date) != strings.TrimSpace(obs.Date) {
		return false
	}
	if target.Label != "" && target.Time == "" && target.Date == "" &&
		!strings.EqualFold(strings.TrimSpace(target.Label), strings.TrimSpace(obs.Label)) {
		return false
	}
	return target.Time != "" || target.Date != "" || target.Label != ""
}

// timesMatch compares clock strings after canonicalization. A target that
// omits seconds matches any observed seconds value at the same minute.
func timesMatch(target, observed string) bool {
	tNorm, tHasSec, err := normalizeClock(target)
	if err != nil {
		return false
	}
	oNorm, _, err := normalizeClock(observed)
	if err != nil {
		return false
	}
	if !tHasSec {
		return tNorm[:5] == oNorm[:5]
	}
	return tNorm == oNorm
}

// normalizeClock canonicalizes "H:MM", "HH:MM" and "HH:MM:SS" 24-hour
// forms to zero-padded "HH:MM:SS", reporting whether seconds were given.
func normalizeClock(s string) (string, bool, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false, fmt.Errorf("unrecognized clock value %q", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", false, fmt.Errorf("unrecognized clock value %q", s)
		}
		nums[i] = n
	}

	h, m := nums[0], nums[1]
	sec := 0
	hasSec := len(nums) == 3
	if hasSec {
		sec = nums[2]
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return "", false, fmt.Errorf("clock value %q out of range", s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), hasSec, nil
}
