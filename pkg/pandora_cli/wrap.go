// pkg/pandora_cli/wrap.go

// Package pandora_cli adapts command handlers to cobra's RunE signature,
// ensuring every command gets panic recovery, signal-aware cancellation,
// and outcome logging.
package pandora_cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap ensures panic recovery, signal handling, and outcome logging around a
// command handler.
func Wrap(fn func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rc := pandora_io.NewContext(ctx, cmd.Name())
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("Panic recovered", zap.Any("panic", r))
			}
		}()

		err = fn(rc, cmd, args)
		if err != nil && !pandora_err.IsUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
