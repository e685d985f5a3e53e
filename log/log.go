// Package log is the ring node's shared structured logger. The
// subsystems that log (node and cmd/ringnode) import this package and
// log through its package-level functions rather than constructing
// their own zap logger, the way the teacher's subsystems share a single
// log package instance.
package log

import (
	"go.uber.org/zap"
)

var base *zap.SugaredLogger

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		// zap's production config only fails to build on a broken sink;
		// falling back to a no-op logger keeps the node from refusing
		// to start over a logging misconfiguration.
		l = zap.NewNop()
	}
	base = l.Sugar()
}

// SetDevelopment swaps in a human-readable console logger.
// Called once from cmd/ringnode when --dev is passed.
func SetDevelopment() {
	l, err := zap.NewDevelopment()
	if err != nil {
		return
	}
	base = l.Sugar()
}

// Named returns a child logger tagged with the given subsystem name,
// e.g. log.Named("miner").
func Named(name string) *zap.SugaredLogger {
	return base.Named(name)
}

func Debugw(msg string, kv ...interface{}) { base.Debugw(msg, kv...) }
func Infow(msg string, kv ...interface{})  { base.Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { base.Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { base.Errorw(msg, kv...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = base.Sync()
}
