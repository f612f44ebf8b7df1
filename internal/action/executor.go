// File: internal/action/executor.go
package action

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
	"github.com/xkilldash9x/webeval-cli/internal/observability"
)

// Execute replays a translated command sequence against the driver in
// order. The first driver failure aborts the remainder. Delay commands
// honor ctx cancellation.
func Execute(ctx context.Context, drv schemas.Driver, cmds []Command) error {
	logger := observability.GetLogger().Named("action")

	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			return schemas.NewError(schemas.KindCancelled, err)
		}

		switch c.Kind {
		case CmdMouseMove, CmdMouseDown, CmdMouseUp, CmdWheel:
			if err := drv.DispatchMouseEvent(ctx, c.Mouse); err != nil {
				logger.Debug("mouse event failed",
					zap.String("type", string(c.Mouse.Type)), zap.Error(err))
				return err
			}
		case CmdInsertText:
			if err := drv.InsertText(ctx, c.Text); err != nil {
				return err
			}
		case CmdDelay:
			timer := time.NewTimer(c.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return schemas.NewError(schemas.KindCancelled, ctx.Err())
			case <-timer.C:
			}
		}
	}
	return nil
}
