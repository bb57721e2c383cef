package logging

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

// New returns the root logger. Unknown levels fall back to warn.
func New(level string, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "bnk",
		Level:  lvl,
		Output: out,
	})
}

// Discard is used by tests and by components constructed without a logger.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// OrDiscard returns l, or a null logger when l is nil.
func OrDiscard(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
