// api/schemas/session.go
package schemas

import "time"

// Status is the session state-machine state. PENDING and RUNNING are the
// only non-terminal states; once terminal, a session never re-enters
// RUNNING.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusRunning           Status = "RUNNING"
	StatusSucceeded         Status = "SUCCEEDED"
	StatusFailed            Status = "FAILED"
	StatusTimedOut          Status = "TIMED_OUT"
	StatusStepLimitExceeded Status = "STEP_LIMIT_EXCEEDED"
	StatusError             Status = "ERROR"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusStepLimitExceeded, StatusError:
		return true
	}
	return false
}

// Verdict is the validator's judgment of task completion.
type Verdict string

const (
	VerdictComplete   Verdict = "COMPLETE"
	VerdictIncomplete Verdict = "INCOMPLETE"
	VerdictAmbiguous  Verdict = "AMBIGUOUS"
)

// Step records one loop iteration: what the agent decided, what the
// translator did about it, and what the page looked like afterwards.
type Step struct {
	// Index is the 0-based position in the session history.
	Index int `json:"index"`
	// ScreenshotRef is an opaque path to the captured image. The image
	// lives on the filesystem; it is referenced, never embedded.
	ScreenshotRef string `json:"screenshot_ref,omitempty"`
	// Action is the abstract action the agent issued this step.
	Action Action `json:"action"`
	// TranslatedEffect describes the concrete driver operations performed.
	TranslatedEffect string `json:"translated_effect,omitempty"`
	// PostStateDigest is a lightweight fingerprint of the page after the
	// action (URL plus DOM summary), consumed by the validator.
	PostStateDigest string    `json:"post_state_digest,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	// Error annotates recoverable step-level failures (e.g. out of
	// bounds). Empty on clean steps.
	Error string `json:"error,omitempty"`
}

// AgentInfo identifies the agent variant that drove a session.
type AgentInfo struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Outcome is the terminal artifact handed to batch aggregation. Created
// once at session termination; immutable thereafter.
type Outcome struct {
	SessionID     string    `json:"session_id"`
	TaskID        string    `json:"task_id"`
	Status        Status    `json:"status"`
	StepCount     int       `json:"step_count"`
	ElapsedMS     int64     `json:"elapsed_ms"`
	History       []Step    `json:"history"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Verdict       Verdict   `json:"verdict,omitempty"`
	Agent         AgentInfo `json:"agent"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}
