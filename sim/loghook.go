package sim

import (
	"github.com/sirupsen/logrus"
)

// A LogHook writes every hook invocation it receives to a logrus logger at
// debug level.
type LogHook struct {
	logger logrus.FieldLogger
}

// NewLogHook creates a LogHook that writes to logger. A nil logger selects the
// standard logrus logger.
func NewLogHook(logger logrus.FieldLogger) *LogHook {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &LogHook{logger: logger}
}

// Func logs the hook position and the detail carried by the context.
func (h *LogHook) Func(ctx HookCtx) {
	pos := ""
	if ctx.Pos != nil {
		pos = ctx.Pos.Name
	}

	h.logger.WithField("pos", pos).Debugf("%v", ctx.Detail)
}
