package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputRouterHook splits entries across the two CLI streams: user
// entries are rendered with their emoji prefix on UserWriter (stdout),
// everything else goes to OpWriter (stderr).
type OutputRouterHook struct {
	UserFormatter logrus.Formatter
	OpFormatter   logrus.Formatter
	UserWriter    io.Writer
	OpWriter      io.Writer
}

// NewOutputRouterHook creates a router writing to stdout/stderr with
// the given per-stream formatters.
func NewOutputRouterHook(userFormatter, opFormatter logrus.Formatter) *OutputRouterHook {
	return &OutputRouterHook{
		UserFormatter: userFormatter,
		OpFormatter:   opFormatter,
		UserWriter:    os.Stdout,
		OpWriter:      os.Stderr,
	}
}

// Levels implements logrus.Hook
func (h *OutputRouterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *OutputRouterHook) Fire(entry *logrus.Entry) error {
	if entry.Data["log_type"] == string(UserLog) {
		if emoji, _ := entry.Data["emoji"].(string); emoji != "" {
			entry.Message = emoji + " " + entry.Message
		}
		return h.emit(h.UserFormatter, h.UserWriter, entry)
	}
	return h.emit(h.OpFormatter, h.OpWriter, entry)
}

func (h *OutputRouterHook) emit(f logrus.Formatter, w io.Writer, entry *logrus.Entry) error {
	line, err := f.Format(entry)
	if err != nil {
		return err
	}
	_, err = w.Write(line)
	return err
}
