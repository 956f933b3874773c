package sloghooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/collcache"
)

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestHooks(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{Redact: func(s string) string { return "id:" + s }})

	h.FallbackInvoked("widgets", 3, time.Millisecond)
	h.OrphanedMember("widgets", "7")
	h.StoreRetry("sadd", 1, errors.New("reset"), 50*time.Millisecond)
	h.PartialFailure("widgets", collcache.OpAdd, collcache.PhaseUpdateIndex, errors.New("READONLY"))

	recs := records(t, &buf)
	require.Len(t, recs, 4)
	assert.Equal(t, "collcache.fallback_invoked", recs[0]["msg"])
	assert.EqualValues(t, 3, recs[0]["records"])
	assert.Equal(t, "id:7", recs[1]["id"])
	assert.Equal(t, "sadd", recs[2]["call"])
	assert.Equal(t, "add", recs[3]["op"])
	assert.Equal(t, "updating index", recs[3]["phase"])
	assert.Equal(t, "READONLY", recs[3]["err"])
}

func TestSampling(t *testing.T) {
	var buf bytes.Buffer
	h := New(slog.New(slog.NewJSONHandler(&buf, nil)), Options{OrphanEvery: 3})
	for i := 0; i < 9; i++ {
		h.OrphanedMember("widgets", "x")
	}
	assert.Len(t, records(t, &buf), 3)
}

func TestDefaultRedaction(t *testing.T) {
	h := New(nil, Options{})
	got := h.redact("secret-id")
	assert.Len(t, got, 16)
	assert.NotContains(t, got, "secret")
	// nil logger is a no-op
	h.PartialFailure("k", collcache.OpDelete, collcache.PhaseDeleteRecord, errors.New("x"))
}
