// File: internal/session/session.go
// Description: The evaluation session state machine. One Session ties a
// task, an agent and a page together: capture, decide, translate, execute,
// record, until a terminal condition.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/action"
	"github.com/xkilldash9x/webeval-cli/internal/config"
	"github.com/xkilldash9x/webeval-cli/internal/geometry"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
	"github.com/xkilldash9x/webeval-cli/internal/validate"
)

// ambiguousRecheckDelay is the pause before the single grace re-check when
// the validator cannot reach a verdict.
const ambiguousRecheckDelay = 500 * time.Millisecond

// pageSurface is the slice of the browser layer a session consumes.
// *browser.Page satisfies it; tests substitute a fake.
type pageSurface interface {
	schemas.StateReader
	Navigate(ctx context.Context, url string) error
	Capture(ctx context.Context) (*schemas.Snapshot, error)
	StateDigest(ctx context.Context) (string, error)
	Driver() schemas.Driver
}

// Session executes one task with one agent on one page. Not reusable; a
// new Session is built per run.
type Session struct {
	id         string
	task       schemas.Task
	agent      schemas.Agent
	page       pageSurface
	translator *action.Translator
	validator  *validate.Validator
	cfg        config.EvalConfig
	logger     *zap.Logger

	// now and recheckDelay are injectable for deterministic tests.
	now          func() time.Time
	recheckDelay time.Duration

	mu      sync.Mutex
	status  schemas.Status
	history []schemas.Step
}

// New builds a session after rejecting malformed tasks. Task limits fall
// back to cfg when the task leaves them unset.
func New(task schemas.Task, ag schemas.Agent, page pageSurface, v *validate.Validator, cfg config.EvalConfig) (*Session, error) {
	if task.TimeoutMS <= 0 && cfg.Timeout > 0 {
		task.TimeoutMS = cfg.Timeout.Milliseconds()
	}
	if task.MaxSteps <= 0 && cfg.MaxSteps > 0 {
		task.MaxSteps = cfg.MaxSteps
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Session{
		id:         id,
		task:       task,
		agent:      ag,
		page:       page,
		translator: action.NewTranslator(),
		validator:  v,
		cfg:        cfg,
		logger: observability.GetLogger().Named("session").
			With(zap.String("session_id", id), zap.String("task_id", task.ID)),
		now:          time.Now,
		recheckDelay: ambiguousRecheckDelay,
		status:       schemas.StatusPending,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Status reports the current state-machine state.
func (s *Session) Status() schemas.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// setStatus enforces monotonic transitions: once terminal, the status
// never changes again.
func (s *Session) setStatus(next schemas.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = next
}

// appendStep records a step in the session history and mirrors it into the
// agent's multi-turn context.
func (s *Session) appendStep(step schemas.Step) {
	s.mu.Lock()
	s.history = append(s.history, step)
	s.mu.Unlock()
	s.agent.AddToHistory(step)
}

func (s *Session) stepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Run drives the loop to a terminal status and returns the immutable
// outcome. It never returns a nil outcome; every failure mode is folded
// into the record.
func (s *Session) Run(ctx context.Context) *schemas.Outcome {
	start := s.now()
	deadline := start.Add(time.Duration(s.task.TimeoutMS) * time.Millisecond)
	s.setStatus(schemas.StatusRunning)
	s.logger.Info("Session started.",
		zap.String("url", s.task.TargetURL),
		zap.Int("max_steps", s.task.MaxSteps),
		zap.Int64("timeout_ms", s.task.TimeoutMS))

	var (
		failureReason string
		verdict       schemas.Verdict
	)

	if s.task.TargetURL != "" {
		if err := s.page.Navigate(ctx, s.task.TargetURL); err != nil {
			s.logger.Error("Navigation failed.", zap.Error(err))
			s.setStatus(schemas.StatusError)
			return s.outcome(start, "navigation failed: "+err.Error(), "")
		}
	}

	pageRetried := false

loop:
	for {
		// Terminal condition checks happen at the top of every iteration.
		// Timeout takes precedence over the step limit when both hold.
		if err := ctx.Err(); err != nil {
			s.setStatus(schemas.StatusError)
			failureReason = "cancelled"
			break
		}
		if !s.now().Before(deadline) {
			s.setStatus(schemas.StatusTimedOut)
			failureReason = "session timeout exceeded"
			verdict = s.finalVerdict(ctx)
			break
		}
		if s.stepCount() >= s.task.MaxSteps {
			s.setStatus(schemas.StatusStepLimitExceeded)
			failureReason = "step limit exceeded"
			verdict = s.finalVerdict(ctx)
			break
		}

		snap, err := s.page.Capture(ctx)
		if err != nil {
			if schemas.IsKind(err, schemas.KindPageUnavailable) && !pageRetried {
				// One immediate retry; navigations settle fast or not at all.
				pageRetried = true
				s.logger.Warn("Page unavailable; retrying capture once.", zap.Error(err))
				continue
			}
			s.logger.Error("Capture failed.", zap.Error(err))
			s.setStatus(schemas.StatusError)
			failureReason = "page unavailable: " + err.Error()
			break
		}
		pageRetried = false

		act, err := s.agent.Predict(ctx, snap, s.task.Description)
		if err != nil {
			if schemas.IsKind(err, schemas.KindCancelled) {
				s.setStatus(schemas.StatusError)
				failureReason = "cancelled"
				break
			}
			// A decision error is never silently retried; retrying would
			// corrupt the step and time budget.
			s.logger.Error("Agent decision failed.", zap.Error(err))
			s.setStatus(schemas.StatusError)
			failureReason = "agent decision error: " + err.Error()
			break
		}

		step := schemas.Step{
			Index:         s.stepCount(),
			ScreenshotRef: snap.Ref,
			Action:        act,
			Timestamp:     s.now(),
		}
		s.logger.Info("Agent decided.", zap.Int("step", step.Index), zap.Stringer("action", act))

		switch act.Kind {
		case schemas.ActionFail:
			s.appendStep(step)
			s.setStatus(schemas.StatusFailed)
			failureReason = act.Reason
			break loop

		case schemas.ActionDone:
			s.appendStep(step)
			verdict = s.finalVerdict(ctx)
			switch verdict {
			case schemas.VerdictComplete:
				s.setStatus(schemas.StatusSucceeded)
			case schemas.VerdictAmbiguous:
				s.setStatus(schemas.StatusFailed)
				failureReason = "validator could not reach a verdict"
			default:
				s.setStatus(schemas.StatusFailed)
				failureReason = "success criteria not met"
			}
			break loop
		}

		mapper, err := geometry.FromViewport(snap.Info.Viewport)
		if err != nil {
			s.setStatus(schemas.StatusError)
			failureReason = "invalid viewport: " + err.Error()
			break
		}

		cmds, err := s.translator.Translate(act, mapper, snap.Info.Viewport)
		if err != nil {
			if schemas.IsKind(err, schemas.KindOutOfBounds) {
				// Recoverable: record the step with its error, spend the
				// budget, keep going.
				step.Error = err.Error()
				s.appendStep(step)
				s.logger.Warn("Action out of bounds.", zap.Error(err))
				continue
			}
			step.Error = err.Error()
			s.appendStep(step)
			s.setStatus(schemas.StatusError)
			failureReason = "untranslatable action: " + err.Error()
			break
		}
		step.TranslatedEffect = action.Describe(cmds)

		if err := action.Execute(ctx, s.page.Driver(), cmds); err != nil {
			step.Error = err.Error()
			s.appendStep(step)
			if schemas.IsKind(err, schemas.KindCancelled) {
				s.setStatus(schemas.StatusError)
				failureReason = "cancelled"
				break
			}
			s.setStatus(schemas.StatusError)
			failureReason = "driver command failed: " + err.Error()
			break
		}

		if digest, derr := s.page.StateDigest(ctx); derr == nil {
			step.PostStateDigest = digest
		}
		s.appendStep(step)

		// Cheap structured checks allow an early success exit.
		if s.cfg.PollValidator && s.validator.HasCheapCheck(s.task) {
			if v := s.validator.Evaluate(ctx, s.task, s.page, step.PostStateDigest); v == schemas.VerdictComplete {
				verdict = v
				s.setStatus(schemas.StatusSucceeded)
				break
			}
		}
	}

	return s.outcome(start, failureReason, verdict)
}

// finalVerdict runs the validator at a loop termination point, granting
// one grace re-check when the first answer is AMBIGUOUS.
func (s *Session) finalVerdict(ctx context.Context) schemas.Verdict {
	digest, _ := s.page.StateDigest(ctx)
	verdict := s.validator.Evaluate(ctx, s.task, s.page, digest)
	if verdict != schemas.VerdictAmbiguous {
		return verdict
	}

	s.logger.Warn("Validator verdict ambiguous; re-checking once.")
	select {
	case <-ctx.Done():
		return schemas.VerdictAmbiguous
	case <-time.After(s.recheckDelay):
	}
	digest, _ = s.page.StateDigest(ctx)
	return s.validator.Evaluate(ctx, s.task, s.page, digest)
}

// outcome freezes the terminal record.
func (s *Session) outcome(start time.Time, failureReason string, verdict schemas.Verdict) *schemas.Outcome {
	end := s.now()

	s.mu.Lock()
	history := make([]schemas.Step, len(s.history))
	copy(history, s.history)
	status := s.status
	s.mu.Unlock()

	out := &schemas.Outcome{
		SessionID:     s.id,
		TaskID:        s.task.ID,
		Status:        status,
		StepCount:     len(history),
		ElapsedMS:     end.Sub(start).Milliseconds(),
		History:       history,
		FailureReason: failureReason,
		Verdict:       verdict,
		Agent:         s.agent.Info(),
		StartTime:     start,
		EndTime:       end,
	}
	s.logger.Info("Session finished.",
		zap.String("status", string(out.Status)),
		zap.Int("steps", out.StepCount),
		zap.Int64("elapsed_ms", out.ElapsedMS),
		zap.String("verdict", string(out.Verdict)))
	return out
}
