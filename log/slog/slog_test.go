package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/collcache"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})))

	l.Debug("dropped", collcache.Fields{"x": 1})
	l.Info("collection initialized from fallback", collcache.Fields{"collection": "widgets", "records": 2})
	l.Error("failed", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "collcache", rec["component"])
	assert.Equal(t, "widgets", rec["collection"])
	assert.EqualValues(t, 2, rec["records"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "ERROR", rec["level"])
}

func TestAttrsSorted(t *testing.T) {
	as := attrs(collcache.Fields{"z": 1, "a": 2})
	require.Len(t, as, 2)
	assert.Equal(t, "a", as[0].Key)
	assert.Equal(t, "z", as[1].Key)
}
