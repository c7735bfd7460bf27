package authstate

import (
	"github.com/goliatone/go-logger/glog"
)

// Logger is the structured logging contract used across the package.
// Arguments after the message are key/value pairs.
type Logger = glog.Logger

// LoggerProvider resolves named loggers.
type LoggerProvider = glog.LoggerProvider

// LoggerProviderFunc adapts a function to the LoggerProvider interface.
type LoggerProviderFunc func(name string) Logger

// GetLogger implements LoggerProvider.
func (f LoggerProviderFunc) GetLogger(name string) Logger {
	if f == nil {
		return nil
	}
	return f(name)
}

// ProviderFromLogger returns a LoggerProvider that hands out logger for
// every name. A nil logger discards everything.
func ProviderFromLogger(logger Logger) LoggerProvider {
	return glog.ProviderFromLogger(logger)
}

// ResolveLogger picks the logger for name: the provider's logger when it
// returns one, then the explicit logger, then a glog logger named after
// name. The returned provider is never nil.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if logger == nil {
		logger = defaultLogger(name)
	}
	return glog.Resolve(name, provider, logger)
}

func defaultLogger(name string) Logger {
	return glog.NewLogger(glog.WithName(name))
}

// NoopLogger returns a logger that discards everything.
func NoopLogger() Logger {
	return glog.Nop()
}
