package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type closingBuffer struct {
	bytes.Buffer
	closed int
}

func (b *closingBuffer) Close() error {
	b.closed++
	return nil
}

func lines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if l == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestLogAuditEvent(t *testing.T) {
	t.Cleanup(func() { _ = CloseAuditLogger() })

	// disabled until a writer is configured
	LogAuditEvent(EventIDRead, "cli", "", nil)
	require.NoError(t, InitAuditLogger(nil))

	buf := &closingBuffer{}
	require.NoError(t, InitAuditLogger(buf))

	LogAuditEvent(EventIDReadFailed, "http", "127.0.0.1", map[string]interface{}{"method": "getId"})

	got := lines(t, buf.Bytes())
	require.Len(t, got, 1)
	require.Equal(t, EventIDReadFailed, got[0]["event_type"])
	require.Equal(t, "http", got[0]["actor"])
	require.Equal(t, "127.0.0.1", got[0]["source_ip"])
	require.Equal(t, "getId", got[0]["method"])

	_, err := uuid.Parse(got[0]["event_id"].(string))
	require.NoError(t, err)

	// replacing the writer closes the previous one
	next := &closingBuffer{}
	require.NoError(t, InitAuditLogger(next))
	require.Equal(t, 1, buf.closed)

	require.NoError(t, CloseAuditLogger())
	require.Equal(t, 1, next.closed)
	require.NoError(t, CloseAuditLogger())
	require.Equal(t, 1, next.closed)

	LogAuditEvent(EventIDRead, "cli", "", nil)
	require.Zero(t, next.Len())
}

func TestAuditHelpers(t *testing.T) {
	t.Cleanup(func() { _ = CloseAuditLogger() })

	var buf bytes.Buffer
	require.NoError(t, InitAuditLogger(&buf))

	AuditIDRead("android_id", "10.0.2.2", true)
	AuditIDReadFailed("android_id", "", errors.New("Permission denial"))
	AuditEmulatorCheck("android_id", "", false)
	AuditChannel(true, "android_id")
	AuditChannel(false, "android_id")

	got := lines(t, buf.Bytes())
	require.Len(t, got, 5)

	require.Equal(t, EventIDRead, got[0]["event_type"])
	require.Equal(t, true, got[0]["present"])
	require.Equal(t, "10.0.2.2", got[0]["source_ip"])

	require.Equal(t, EventIDReadFailed, got[1]["event_type"])
	require.Equal(t, "Permission denial", got[1]["error"])

	require.Equal(t, EventEmulatorCheck, got[2]["event_type"])
	require.Equal(t, false, got[2]["emulator"])

	require.Equal(t, EventChannelAttach, got[3]["event_type"])
	require.Equal(t, EventChannelDetach, got[4]["event_type"])
	require.Equal(t, "android_id", got[4]["channel"])
	require.NotContains(t, got[4], "actor")
}

func TestNewFileAuditWriter(t *testing.T) {
	w, err := NewFileAuditWriter("")
	require.NoError(t, err)
	require.Nil(t, w)

	path := filepath.Join(t.TempDir(), "audit.log")
	w, err = NewFileAuditWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("entry\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = NewFileAuditWriter(filepath.Join(t.TempDir(), "missing", "audit.log"))
	require.Error(t, err)
}
