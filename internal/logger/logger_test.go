package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*OutputRouterHook, *bytes.Buffer, *bytes.Buffer) {
	userBuf := &bytes.Buffer{}
	opBuf := &bytes.Buffer{}
	hook := NewOutputRouterHook(
		&CLIFormatter{DisableTimestamp: true, DisableLevel: true},
		&CLIFormatter{DisableTimestamp: true, DisableColors: true},
	)
	hook.UserWriter = userBuf
	hook.OpWriter = opBuf
	return hook, userBuf, opBuf
}

func TestOutputRouterSplitsStreams(t *testing.T) {
	hook, userBuf, opBuf := newTestRouter()

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.AddHook(hook)

	l.WithField("log_type", string(UserLog)).Info("all done")
	l.WithField("log_type", string(OpLog)).Info("internal detail")

	assert.Contains(t, userBuf.String(), "all done")
	assert.NotContains(t, userBuf.String(), "internal detail")
	assert.Contains(t, opBuf.String(), "internal detail")
	assert.NotContains(t, opBuf.String(), "all done")
}

func TestOutputRouterPrependsEmoji(t *testing.T) {
	hook, userBuf, _ := newTestRouter()

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.AddHook(hook)

	l.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "✅",
	}).Info("task completed")

	assert.Contains(t, userBuf.String(), "✅ task completed")
}

func TestCLIFormatterSkipsRoutingFields(t *testing.T) {
	f := &CLIFormatter{DisableTimestamp: true, DisableColors: true}

	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.InfoLevel,
		Message: "dispatching",
		Data: logrus.Fields{
			"log_type": string(OpLog),
			"emoji":    "🚀",
			"task":     "build",
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	assert.Contains(t, string(out), "INFO: dispatching")
	assert.Contains(t, string(out), "task=build")
	assert.NotContains(t, string(out), "log_type")
	assert.NotContains(t, string(out), "🚀")
}
