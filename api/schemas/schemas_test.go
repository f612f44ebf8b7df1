// api/schemas/schemas_test.go
package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalErrorChain(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewError(KindPageUnavailable, cause)

	assert.True(t, IsKind(err, KindPageUnavailable))
	assert.False(t, IsKind(err, KindOutOfBounds))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PAGE_UNAVAILABLE")

	wrapped := fmt.Errorf("capturing: %w", err)
	assert.Equal(t, KindPageUnavailable, KindOf(wrapped))

	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestActionValidate(t *testing.T) {
	valid := []Action{
		{Kind: ActionClick, X: 10, Y: 10},
		{Kind: ActionTypeIn, Text: "09:00"},
		{Kind: ActionScroll, Direction: ScrollDown, Amount: 100},
		{Kind: ActionDrag, X: 1, Y: 1, ToX: 2, ToY: 2},
		{Kind: ActionWait, WaitMS: 100},
		{Kind: ActionDone},
		{Kind: ActionFail, Reason: "x"},
	}
	for _, a := range valid {
		assert.NoError(t, a.Validate(), "%s", a)
	}

	invalid := []Action{
		{Kind: ActionClick, X: -1, Y: 10},
		{Kind: ActionTypeIn},
		{Kind: ActionScroll, Direction: "diagonal", Amount: 100},
		{Kind: ActionScroll, Direction: ScrollUp, Amount: 0},
		{Kind: ActionWait, WaitMS: 0},
		{Kind: ActionKind("teleport")},
	}
	for _, a := range invalid {
		assert.Error(t, a.Validate(), "%s", a)
	}
}

func TestActionTerminal(t *testing.T) {
	assert.True(t, Action{Kind: ActionDone}.Terminal())
	assert.True(t, Action{Kind: ActionFail}.Terminal())
	assert.False(t, Action{Kind: ActionClick}.Terminal())
	assert.False(t, Action{Kind: ActionWait}.Terminal())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "click(100, 50)", Action{Kind: ActionClick, X: 100, Y: 50}.String())
	assert.Contains(t, Action{Kind: ActionTypeIn, Text: "hello"}.String(), `"hello"`)
	long := Action{Kind: ActionTypeIn, Text: string(make([]byte, 100))}
	assert.Less(t, len(long.String()), 70, "long text is truncated")
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusSucceeded, StatusFailed, StatusTimedOut, StatusStepLimitExceeded, StatusError}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
}

func TestSuccessCriteriaUnmarshal(t *testing.T) {
	t.Run("bare string array", func(t *testing.T) {
		var c SuccessCriteria
		require.NoError(t, json.Unmarshal([]byte(`["a", "b"]`), &c))
		assert.Equal(t, []string{"a", "b"}, c.Checks)
		assert.Nil(t, c.Goal)
	})

	t.Run("structured goal object", func(t *testing.T) {
		var c SuccessCriteria
		require.NoError(t, json.Unmarshal([]byte(
			`{"type":"range","values":[{"time":"09:00"},{"time":"17:00"}]}`), &c))
		require.NotNil(t, c.Goal)
		assert.Equal(t, SelectionRange, c.Goal.Type)
		assert.Len(t, c.Goal.Values, 2)
		assert.Empty(t, c.Checks)
	})

	t.Run("wrapped form", func(t *testing.T) {
		var c SuccessCriteria
		require.NoError(t, json.Unmarshal([]byte(
			`{"goal":{"type":"single","values":[{"time":"10:00"}]}}`), &c))
		require.NotNil(t, c.Goal)
		assert.Equal(t, SelectionSingle, c.Goal.Type)
	})
}

func TestTaskUnmarshalLegacyTimeout(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(
		`{"id":"t","description":"d","timeout":1.5,"max_steps":3}`), &task))
	assert.Equal(t, int64(1500), task.TimeoutMS)

	var modern Task
	require.NoError(t, json.Unmarshal([]byte(
		`{"id":"t","description":"d","timeout_ms":2000,"max_steps":3}`), &modern))
	assert.Equal(t, int64(2000), modern.TimeoutMS)
}

func TestTaskValidate(t *testing.T) {
	good := Task{ID: "t", Description: "d", TimeoutMS: 1000, MaxSteps: 5}
	assert.NoError(t, good.Validate())

	cases := []struct {
		name   string
		mutate func(*Task)
	}{
		{"missing id", func(t *Task) { t.ID = "" }},
		{"empty description", func(t *Task) { t.Description = "" }},
		{"zero timeout", func(t *Task) { t.TimeoutMS = 0 }},
		{"zero max steps", func(t *Task) { t.MaxSteps = 0 }},
		{"single goal with two values", func(t *Task) {
			t.Criteria.Goal = &StructuredGoal{Type: SelectionSingle,
				Values: []TargetValue{{Time: "09:00"}, {Time: "10:00"}}}
		}},
		{"range goal with one value", func(t *Task) {
			t.Criteria.Goal = &StructuredGoal{Type: SelectionRange,
				Values: []TargetValue{{Time: "09:00"}}}
		}},
		{"unknown goal type", func(t *Task) {
			t.Criteria.Goal = &StructuredGoal{Type: "pair",
				Values: []TargetValue{{Time: "09:00"}}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := good
			tc.mutate(&task)
			err := task.Validate()
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInvalidTask))
		})
	}
}
