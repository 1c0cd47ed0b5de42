package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// LogType tags an entry for output routing.
type LogType string

const (
	UserLog LogType = "user"
	OpLog   LogType = "op"
)

var (
	User *UserLogger // Clean messages for users (stdout)
	Op   *OpLogger   // Detailed operational logs (stderr)

	base *logrus.Logger
)

func init() {
	base = logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&CLIFormatter{
		DisableTimestamp: true,
		DisableLevel:     true,
	})

	User = &UserLogger{logger: base}
	Op = &OpLogger{logger: base}
}

// UserLogger emits clean, user-facing output on stdout.
type UserLogger struct {
	logger *logrus.Logger
}

// OpLogger emits detailed operational output on stderr.
type OpLogger struct {
	logger *logrus.Logger
}

func (u *UserLogger) Info(msg string) {
	u.logger.WithField("log_type", string(UserLog)).Info(msg)
}

func (u *UserLogger) Infof(format string, args ...interface{}) {
	u.logger.WithField("log_type", string(UserLog)).Infof(format, args...)
}

func (u *UserLogger) Error(msg string) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "❌",
	}).Error(msg)
}

func (u *UserLogger) Errorf(format string, args ...interface{}) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "❌",
	}).Errorf(format, args...)
}

func (u *UserLogger) Warn(msg string) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "⚠️",
	}).Warn(msg)
}

func (u *UserLogger) Warnf(format string, args ...interface{}) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "⚠️",
	}).Warnf(format, args...)
}

func (u *UserLogger) Starting(msg string) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "🚀",
	}).Info(msg)
}

func (u *UserLogger) Startingf(format string, args ...interface{}) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "🚀",
	}).Infof(format, args...)
}

func (u *UserLogger) Success(msg string) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "✅",
	}).Info(msg)
}

func (u *UserLogger) Successf(format string, args ...interface{}) {
	u.logger.WithFields(logrus.Fields{
		"log_type": string(UserLog),
		"emoji":    "✅",
	}).Infof(format, args...)
}

func (o *OpLogger) Info(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Info(msg)
}

func (o *OpLogger) Infof(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Infof(format, args...)
}

func (o *OpLogger) Error(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Error(msg)
}

func (o *OpLogger) Errorf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Errorf(format, args...)
}

func (o *OpLogger) Warn(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Warn(msg)
}

func (o *OpLogger) Warnf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Warnf(format, args...)
}

func (o *OpLogger) Debug(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Debug(msg)
}

func (o *OpLogger) Debugf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Debugf(format, args...)
}

func (o *OpLogger) WithFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["log_type"] = string(OpLog)
	return o.logger.WithFields(fields)
}

// CLIFormatter provides clean output for CLI applications
type CLIFormatter struct {
	DisableTimestamp bool
	DisableLevel     bool
	DisableColors    bool
}

func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	// Simple clean format: just the message for user-facing logs
	if f.DisableLevel && f.DisableTimestamp {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
		return b.Bytes(), nil
	}

	if !f.DisableLevel {
		levelColor := ""
		resetColor := ""
		if !f.DisableColors {
			switch entry.Level {
			case logrus.ErrorLevel:
				levelColor = "\033[31m" // Red
			case logrus.WarnLevel:
				levelColor = "\033[33m" // Yellow
			case logrus.InfoLevel:
				levelColor = "\033[36m" // Cyan
			case logrus.DebugLevel:
				levelColor = "\033[37m" // White
			}
			resetColor = "\033[0m"
		}

		b.WriteString(levelColor)
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(resetColor)
		b.WriteString(": ")
	}

	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		b.WriteString(" ")
		for k, v := range entry.Data {
			if k == "log_type" || k == "emoji" {
				continue
			}
			b.WriteString(fmt.Sprintf("%s=%v ", k, v))
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Setup configures the output streams, formats and verbosity of the
// package loggers. Environment variables LOG_MODE (quiet|verbose|debug)
// and LOG_FORMAT (json|text) override the flags.
func Setup(verbose bool, jsonLogs bool, quiet bool) {
	if envLogMode := os.Getenv("LOG_MODE"); envLogMode != "" {
		switch envLogMode {
		case "quiet":
			quiet = true
			verbose = false
		case "verbose", "debug":
			verbose = true
			quiet = false
		}
	}

	if envLogFormat := os.Getenv("LOG_FORMAT"); envLogFormat != "" {
		switch envLogFormat {
		case "json":
			jsonLogs = true
		case "text":
			jsonLogs = false
		}
	}

	var level logrus.Level
	if quiet {
		level = logrus.ErrorLevel
	} else if verbose {
		level = logrus.DebugLevel
	} else {
		level = logrus.InfoLevel
	}

	base.Hooks = make(logrus.LevelHooks)
	base.SetLevel(level)
	base.SetOutput(io.Discard) // output handled by the routing hook

	var userFormat, opFormat logrus.Formatter
	if jsonLogs {
		base.SetFormatter(&logrus.JSONFormatter{})
		userFormat = &logrus.JSONFormatter{}
		opFormat = &logrus.JSONFormatter{}
	} else {
		base.SetFormatter(&logrus.TextFormatter{}) // dummy, hook formats

		userFormat = &CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
		}
		if verbose {
			opFormat = &logrus.TextFormatter{
				FullTimestamp: true,
				ForceColors:   isatty.IsTerminal(os.Stderr.Fd()),
			}
		} else {
			opFormat = &CLIFormatter{
				DisableTimestamp: true,
				DisableColors:    !isatty.IsTerminal(os.Stderr.Fd()),
			}
		}
	}
	base.AddHook(NewOutputRouterHook(userFormat, opFormat))

	User = &UserLogger{logger: base}
	Op = &OpLogger{logger: base}
}

// Log returns the underlying logrus logger.
func Log() *logrus.Logger {
	return base
}
