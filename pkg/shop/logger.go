package shop

import (
	"sort"

	"github.com/go-logr/logr"
)

// Verbosity used for Debug messages on a logr sink.
const logrDebugLevel = 1

type logrLogger struct {
	log logr.Logger
}

// NewLogrLogger adapts a logr.Logger. Debug maps to V(1), Warn to Info with a
// "level" key.
func NewLogrLogger(log logr.Logger) Logger {
	return &logrLogger{log: log}
}

func (l *logrLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.V(logrDebugLevel).Info(msg, keysAndValues(fields)...)
}

func (l *logrLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, keysAndValues(fields)...)
}

func (l *logrLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Info(msg, append([]interface{}{"level", "warn"}, keysAndValues(fields)...)...)
}

func (l *logrLogger) Error(msg string, fields map[string]interface{}) {
	err, _ := fields["error"].(error)
	if err == nil {
		l.log.Error(nil, msg, keysAndValues(fields)...)

		return
	}

	rest := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		if key != "error" {
			rest[key] = value
		}
	}

	l.log.Error(err, msg, keysAndValues(rest)...)
}

// keysAndValues flattens fields in key order so log lines are stable.
func keysAndValues(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	kv := make([]interface{}, 0, len(keys)*2)
	for _, key := range keys {
		kv = append(kv, key, fields[key])
	}

	return kv
}

type noopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}
