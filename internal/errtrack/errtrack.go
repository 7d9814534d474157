// Package errtrack reports unexpected errors to an error-tracking collaborator.
//
// Not-found conditions are normal and never reported here; this package is
// for conditions that indicate corruption or infrastructure failure, where an
// operator should be alerted with full context.
package errtrack

import (
	"context"

	"github.com/loftfs/loft/internal/logger"
)

// Reporter receives unexpected errors with structured context. The alarm flag
// marks reports that should page rather than just aggregate.
type Reporter interface {
	Report(ctx context.Context, source string, err error, alarm bool, fields ...any)
}

// LogReporter is the default Reporter: it writes the report through the
// structured logger at error level.
type LogReporter struct{}

// Report logs the error with its source and context fields.
func (LogReporter) Report(ctx context.Context, source string, err error, alarm bool, fields ...any) {
	args := make([]any, 0, len(fields)+6)
	args = append(args, "source", source, "alarm", alarm)
	if err != nil {
		args = append(args, logger.KeyError, err.Error())
	}
	args = append(args, fields...)
	logger.ErrorCtx(ctx, "unexpected error", args...)
}

// Nop discards all reports. Useful in tests.
type Nop struct{}

// Report does nothing.
func (Nop) Report(context.Context, string, error, bool, ...any) {}
