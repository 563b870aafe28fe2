package engine

import (
	"errors"
	"log/slog"

	"github.com/roach88/stakegov/internal/ir"
)

// ErrStopped is returned by Submit once the engine loop has stopped.
var ErrStopped = errors.New("engine stopped")

// logRejection logs a rejected invocation with enough context to
// resubmit it.
func logRejection(logger *slog.Logger, inv ir.Invocation, err error) {
	code := ir.CodeOf(err)
	if code == "" {
		logger.Error("invocation failed",
			"op", inv.Op,
			"sender", inv.Sender,
			"now", inv.Now,
			"error", err,
		)
		return
	}
	logger.Warn("invocation rejected",
		"op", inv.Op,
		"sender", inv.Sender,
		"now", inv.Now,
		"code", code,
		"error", err,
	)
}
