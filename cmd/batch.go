// File: cmd/batch.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/batch"
	"github.com/xkilldash9x/webeval-cli/internal/browser"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

var batchCmd = &cobra.Command{
	Use:   "batch <task-file>",
	Short: "Run every task in the file with bounded concurrency.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger().Named("batch")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tasks, err := batch.LoadTasks(args[0])
		if err != nil {
			return err
		}

		pool, err := browser.NewPool(ctx, cfg.Browser)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = pool.Shutdown(shutdownCtx)
		}()

		sink, err := batch.NewFileSink(cfg.Batch.OutputDir)
		if err != nil {
			return err
		}
		defer sink.Close()

		run := func(ctx context.Context, task schemas.Task) *schemas.Outcome {
			out, rerr := runTask(ctx, pool, task)
			if rerr != nil {
				logger.Error("Session could not be assembled.",
					zap.String("task_id", task.ID), zap.Error(rerr))
				now := time.Now()
				return &schemas.Outcome{
					TaskID:        task.ID,
					Status:        schemas.StatusError,
					FailureReason: rerr.Error(),
					StartTime:     now,
					EndTime:       now,
				}
			}
			return out
		}

		runner := batch.NewRunner(cfg.Batch, run, sink)
		summary, err := runner.Run(ctx, tasks)

		logger.Info("Batch summary.",
			zap.Int("total", summary.Total),
			zap.Int("succeeded", summary.Succeeded()),
			zap.String("results", sink.Path()))
		fmt.Fprintf(os.Stdout, "ran %d/%d tasks, %d succeeded; results: %s\n",
			summary.Total, len(tasks), summary.Succeeded(), sink.Path())
		return err
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
