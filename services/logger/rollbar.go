package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/kozi/core"
)

// RollbarLogger reports warnings and errors to Rollbar and writes every entry to the inner logger.
type RollbarLogger struct {
	inner core.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(inner core.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Address)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug)
	return &RollbarLogger{inner: inner}
}

// report splits key/value pairs into the first error (reported as the item) and custom data.
func report(level, msg string, args []interface{}) {
	var err error
	extras := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if e, ok := args[i+1].(error); ok && err == nil {
			err = e
			continue
		}
		extras[key] = args[i+1]
	}

	if err != nil {
		extras["message"] = msg
		rollbar.ErrorWithExtras(level, err, extras)
		return
	}
	rollbar.MessageWithExtras(level, msg, extras)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.inner.Debug(msg, args...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.inner.Info(msg, args...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	report(rollbar.WARN, msg, args)
	l.inner.Warn(msg, args...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	report(rollbar.ERR, msg, args)
	l.inner.Error(msg, args...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	report(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.inner.Fatal(msg, args...)
}

// Close flushes the pending reports.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}

// New returns the logger selected by the configuration: zap, wrapped with Rollbar when a token is set.
func New(conf *core.Config) (core.Logger, error) {
	zl, err := NewZapLogger(conf)
	if err != nil {
		return nil, err
	}
	if conf.RollbarToken == "" {
		return zl, nil
	}
	return NewRollbarLogger(zl, conf), nil
}
