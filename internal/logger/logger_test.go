package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"panic":   zerolog.PanicLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := newLogger(&buf, "warn", true)
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("dropped")
	log.Warn().Str("channel", "android_id").Msg("kept")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "android_id", line["channel"])
	require.Contains(t, line, "time")
}

func TestNewLogger_Console(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := newLogger(&buf, "info", false)
	log.Error().Msg("boom")

	require.Contains(t, buf.String(), "| \x1b[31merror\x1b[0m |")
	require.Contains(t, buf.String(), "boom")
}

func TestFormatLevel(t *testing.T) {
	require.Equal(t, "| \x1b[36mdebug\x1b[0m |", formatLevel("debug"))
	require.Equal(t, "| \x1b[37m???\x1b[0m |", formatLevel(nil))
	require.Equal(t, "| TRA |", formatLevel(zerolog.TraceLevel))
}

func TestContextHelpers(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	ctx, log := InitLogger(context.Background(), "error", true, nil)
	require.Same(t, log, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)

	require.Empty(t, SourceIPFromContext(ctx))
	ctx = WithSourceIP(ctx, "10.0.2.2")
	require.Equal(t, "10.0.2.2", SourceIPFromContext(ctx))
}
