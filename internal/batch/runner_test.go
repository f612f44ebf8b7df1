// File: internal/batch/runner_test.go
package batch

import (
	"bufio"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/config"
)

type memorySink struct {
	mu       sync.Mutex
	outcomes []*schemas.Outcome
}

func (m *memorySink) Write(out *schemas.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, out)
	return nil
}

func (m *memorySink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outcomes)
}

func makeTasks(n int) []schemas.Task {
	tasks := make([]schemas.Task, n)
	for i := range tasks {
		tasks[i] = schemas.Task{
			ID:          string(rune('a' + i)),
			Description: "task",
			TimeoutMS:   1000,
			MaxSteps:    1,
		}
	}
	return tasks
}

func TestRunnerRunsAllTasks(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &memorySink{}
	run := func(_ context.Context, task schemas.Task) *schemas.Outcome {
		return &schemas.Outcome{TaskID: task.ID, Status: schemas.StatusSucceeded}
	}
	r := NewRunner(config.BatchConfig{Concurrency: 3}, run, sink)

	summary, err := r.Run(context.Background(), makeTasks(7))
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 7, summary.Succeeded())
	assert.Equal(t, 7, sink.len())
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak int64
	run := func(_ context.Context, task schemas.Task) *schemas.Outcome {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return &schemas.Outcome{TaskID: task.ID, Status: schemas.StatusFailed}
	}
	r := NewRunner(config.BatchConfig{Concurrency: 2}, run, &memorySink{})

	summary, err := r.Run(context.Background(), makeTasks(6))
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Total)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
	assert.Equal(t, 6, summary.ByStatus[schemas.StatusFailed])
}

func TestRunnerStopsLaunchingOnCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())

	var started int64
	run := func(_ context.Context, task schemas.Task) *schemas.Outcome {
		if atomic.AddInt64(&started, 1) == 1 {
			cancel()
		}
		return &schemas.Outcome{TaskID: task.ID, Status: schemas.StatusError}
	}
	// Concurrency 1 serializes launches so the cancel lands between them.
	r := NewRunner(config.BatchConfig{Concurrency: 1}, run, &memorySink{})

	summary, err := r.Run(ctx, makeTasks(5))

	require.Error(t, err)
	assert.Less(t, summary.Total, 5)
	assert.GreaterOrEqual(t, summary.Total, 1)
}

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	out := &schemas.Outcome{
		SessionID: "s-1",
		TaskID:    "t-1",
		Status:    schemas.StatusSucceeded,
		StepCount: 2,
		History: []schemas.Step{
			{Index: 0, Action: schemas.Action{Kind: schemas.ActionClick, X: 1, Y: 2}},
			{Index: 1, Action: schemas.Action{Kind: schemas.ActionDone}},
		},
	}
	require.NoError(t, sink.Write(out))
	require.NoError(t, sink.Close())

	f, err := os.Open(sink.Path())
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var decoded schemas.Outcome
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
	assert.Equal(t, "s-1", decoded.SessionID)
	assert.Equal(t, schemas.StatusSucceeded, decoded.Status)
	require.Len(t, decoded.History, 2)
	assert.Equal(t, schemas.ActionClick, decoded.History[0].Action.Kind)
}

func TestLoadTasks(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := t.TempDir() + "/tasks.json"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("array of tasks", func(t *testing.T) {
		path := writeFile(t, `[
			{"id":"a","description":"d","timeout_ms":1000,"max_steps":5},
			{"id":"b","description":"d","timeout":2.5,"max_steps":5}
		]`)
		tasks, err := LoadTasks(path)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, int64(2500), tasks[1].TimeoutMS, "legacy timeout seconds are converted")
	})

	t.Run("single task object", func(t *testing.T) {
		path := writeFile(t, `{"id":"a","description":"d","timeout_ms":1000,"max_steps":5,
			"success_criteria":{"type":"single","values":[{"time":"09:00"}]}}`)
		tasks, err := LoadTasks(path)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		require.NotNil(t, tasks[0].Criteria.Goal)
		assert.Equal(t, schemas.SelectionSingle, tasks[0].Criteria.Goal.Type)
	})

	t.Run("free-text criteria as bare array", func(t *testing.T) {
		path := writeFile(t, `{"id":"a","description":"d","timeout_ms":1000,"max_steps":5,
			"success_criteria":["booking confirmed"]}`)
		tasks, err := LoadTasks(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"booking confirmed"}, tasks[0].Criteria.Checks)
	})

	t.Run("invalid task is rejected", func(t *testing.T) {
		path := writeFile(t, `{"id":"a","description":"","timeout_ms":1000,"max_steps":5}`)
		_, err := LoadTasks(path)
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindInvalidTask))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		path := writeFile(t, `not json`)
		_, err := LoadTasks(path)
		require.Error(t, err)
		assert.True(t, schemas.IsKind(err, schemas.KindInvalidTask))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTasks("/nonexistent/tasks.json")
		assert.Error(t, err)
	})
}
