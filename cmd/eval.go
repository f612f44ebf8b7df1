// File: cmd/eval.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/agent"
	"github.com/xkilldash9x/webeval-cli/internal/batch"
	"github.com/xkilldash9x/webeval-cli/internal/browser"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
	"github.com/xkilldash9x/webeval-cli/internal/session"
	"github.com/xkilldash9x/webeval-cli/internal/validate"
)

var evalCmd = &cobra.Command{
	Use:   "eval <task-file>",
	Short: "Run one evaluation session for the first task in the file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger().Named("eval")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tasks, err := batch.LoadTasks(args[0])
		if err != nil {
			return err
		}
		if len(tasks) > 1 {
			logger.Warn("Task file holds multiple tasks; running the first. Use 'batch' for all of them.",
				zap.Int("count", len(tasks)))
		}
		task := tasks[0]

		pool, err := browser.NewPool(ctx, cfg.Browser)
		if err != nil {
			return err
		}
		defer pool.Shutdown(context.Background())

		out, err := runTask(ctx, pool, task)
		if err != nil {
			return err
		}

		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("cannot render outcome: %w", err)
		}
		if out.Status != schemas.StatusSucceeded {
			return fmt.Errorf("session ended with status %s", out.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

// runTask assembles the per-session pieces (agent, page, validator) and
// drives one session to its outcome.
func runTask(ctx context.Context, pool *browser.Pool, task schemas.Task) (*schemas.Outcome, error) {
	ag, err := agent.New(cfg.Agent)
	if err != nil {
		return nil, err
	}

	// Free-text checks need a judge; one is only available when a model
	// endpoint is configured.
	var judge schemas.Judge
	if cfg.Agent.Model != "" {
		if j, jerr := validate.NewModelJudge(cfg.Agent); jerr == nil {
			judge = j
		}
	}

	drv, err := pool.NewDriver(ctx)
	if err != nil {
		return nil, err
	}
	defer drv.Close()

	saveDir := ""
	if cfg.Eval.SaveScreenshots {
		saveDir = cfg.Eval.ScreenshotDir
	}
	page := browser.NewPage(drv, task.ID, saveDir, cfg.Browser.PostLoadWait, observability.GetLogger())

	s, err := session.New(task, ag, page, validate.NewValidator(judge), cfg.Eval)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx), nil
}
