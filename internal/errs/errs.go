// Package errs wraps errors with context and, at infrastructure boundaries,
// a captured call stack that slog can render.
package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

const maxStackDepth = 32

// Wrap prefixes msg and keeps err reachable through errors.Is/As.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string; err is appended as the %w operand.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// WithStack records the caller's stack once per chain. Use it where a driver
// or filesystem error first enters the application.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := StackOf(err); ok {
		return err
	}

	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)
	return &stackError{err: err, pcs: pcs[:n]}
}

type stackError struct {
	err error
	pcs []uintptr
}

func (e *stackError) Error() string { return e.err.Error() }
func (e *stackError) Unwrap() error { return e.err }

// StackOf returns the frames captured by WithStack anywhere in err's chain,
// formatted as "function file:line".
func StackOf(err error) ([]string, bool) {
	var se *stackError
	if !errors.As(err, &se) {
		return nil, false
	}

	frames := runtime.CallersFrames(se.pcs)
	out := make([]string, 0, len(se.pcs))
	for {
		frame, more := frames.Next()
		out = append(out, frame.Function+" "+frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return out, true
}

// Loggable renders err as a group: message, unwrap chain and, when present, stack.
//
//	logging.Error(ctx, "migrate failed", slog.Any("err", errs.Loggable(err)))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

type loggable struct{ err error }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.Any("chain", Chain(l.err)),
	}
	if stack, ok := StackOf(l.err); ok {
		attrs = append(attrs, slog.Any("stack", stack))
	}
	return slog.GroupValue(attrs...)
}

// Chain lists the messages from the outermost wrapper inward.
func Chain(err error) []string {
	var out []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
