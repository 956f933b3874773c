// Package logrus adapts a logrus entry to collcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/collcache"
)

var _ collcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New returns a Logger that tags every entry with component=collcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "collcache")}
}

func (l Logger) Debug(msg string, f collcache.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f collcache.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f collcache.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f collcache.Fields) { l.entry(f).Error(msg) }

// entry moves an "err" field to logrus.ErrorKey so formatters render it as
// the entry's error.
func (l Logger) entry(f collcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			lf[logrus.ErrorKey] = err
			continue
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
