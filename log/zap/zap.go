// Package zap adapts a *zap.Logger to collcache.Logger.
package zap

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/collcache"
)

var _ collcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New returns a Logger writing under the "collcache" name. A nil l discards.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("collcache")}
}

func (z Logger) Debug(msg string, f collcache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f collcache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f collcache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f collcache.Fields) { z.L.Error(msg, fields(f)...) }

// fields converts f in key order so output is stable across runs.
func fields(f collcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		case time.Duration:
			out = append(out, zap.Duration(k, v))
		case string:
			out = append(out, zap.String(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
