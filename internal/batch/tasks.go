// File: internal/batch/tasks.go
package batch

import (
	"fmt"
	"os"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

// LoadTasks reads task definitions from a JSON file holding either a
// single task object or an array of tasks. Every task is validated before
// any session starts.
func LoadTasks(path string) ([]schemas.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read task file %q: %w", path, err)
	}

	var tasks []schemas.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		var single schemas.Task
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, schemas.Errorf(schemas.KindInvalidTask, "task file %q is neither a task nor a task array: %v", path, err)
		}
		tasks = []schemas.Task{single}
	}

	if len(tasks) == 0 {
		return nil, schemas.Errorf(schemas.KindInvalidTask, "task file %q contains no tasks", path)
	}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}
