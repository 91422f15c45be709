// pkg/pandora_io/context.go

// Package pandora_io carries the per-invocation runtime context: a base
// context, a named logger, and invocation attributes.
package pandora_io

import (
	"context"
	"time"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// RuntimeContext bundles everything a command handler needs for one
// invocation. Constructed once per command, passed explicitly — never a
// package-level singleton.
type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Timestamp  time.Time
	Command    string
	Attributes map[string]string
}

// NewContext builds a RuntimeContext for the named command.
func NewContext(ctx context.Context, cmdName string) *RuntimeContext {
	logger := zap.L().With(zap.String("command", cmdName)).Named(cmdName)

	return &RuntimeContext{
		Ctx:        ctx,
		Log:        logger,
		Timestamp:  time.Now(),
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("panic recovered", zap.Any("panic", r))
	}
}

// End logs the command outcome with its duration. Deferred by the CLI wrapper.
func (rc *RuntimeContext) End(errPtr *error) {
	duration := time.Since(rc.Timestamp)
	if *errPtr == nil {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
		return
	}
	rc.Log.Error("Command failed", zap.Duration("duration", duration), zap.Error(*errPtr))
}
