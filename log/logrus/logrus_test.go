package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/collcache"
)

func TestLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("index member has no item; skipped", collcache.Fields{"collection": "widgets", "id": "7"})
	l.Warn("operation partially applied", collcache.Fields{"err": errors.New("READONLY"), "phase": "updating index"})
	l.Info("plain", nil)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)

	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, "collcache", entries[0].Data["component"])
	assert.Equal(t, "7", entries[0].Data["id"])

	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.EqualError(t, entries[1].Data[logrus.ErrorKey].(error), "READONLY")
	assert.Equal(t, "updating index", entries[1].Data["phase"])

	assert.Equal(t, "plain", entries[2].Message)
}

func TestErrorLevel(t *testing.T) {
	base, hook := test.NewNullLogger()
	New(base).Error("failed", collcache.Fields{"err": "not an error value"})
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "not an error value", last.Data["err"])
}
