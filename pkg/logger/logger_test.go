package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameInstance(t *testing.T) {
	l1 := Get(0)
	l2 := Get(-1)
	require.NotNil(t, l1)
	assert.Same(t, l1, l2)
}

func TestGetReturnsNoopWhenGlobalNil(t *testing.T) {
	Get(0)
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, Get(0))
}

func TestNewJSONWritesExpectedKeys(t *testing.T) {
	var buf bytes.Buffer
	lgr, _ := New(Options{Level: 0, Output: &buf})
	lgr.WithValues(PageKey, "all").Info("dispatched", EventKey, "select_all")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "dispatched", line[MessageKey])
	assert.Equal(t, "all", line[PageKey])
	assert.Equal(t, "select_all", line[EventKey])
	assert.Contains(t, line, TimeStampKey)
	assert.Contains(t, line, VersionKey)
	assert.Contains(t, line, CommitKey)
}

func TestNewConsoleEncoding(t *testing.T) {
	var buf bytes.Buffer
	lgr, _ := New(Options{Level: 0, Encoding: EncodingConsole, Output: &buf})
	lgr.Info("hello")
	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr, _ := New(Options{Level: 0, Output: &buf})
	lgr.V(1).Info("hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	lgr, _ = New(Options{Level: -1, Output: &buf})
	lgr.V(1).Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	l1 := Get(0)
	ctx1 := WithLogger(ctx, l1)
	assert.Same(t, l1, FromContext(ctx1))

	t.Run("same logger keeps context", func(t *testing.T) {
		assert.Equal(t, ctx1, WithLogger(ctx1, l1))
	})

	t.Run("different logger replaces", func(t *testing.T) {
		d := logr.Discard()
		ctx2 := WithLogger(ctx1, &d)
		assert.Same(t, &d, FromContext(ctx2))
	})
}

func TestFromContextFallbacks(t *testing.T) {
	Get(0)
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, globalLogrLogger, FromContext(nil))
	assert.Same(t, globalLogrLogger, FromContext(context.Background()))

	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestWithValuesReturnsNewLogger(t *testing.T) {
	base := GetNoopLogger()
	got := WithValues(base, PageKey, "optimized")
	require.NotNil(t, got)
	assert.NotSame(t, base, got)
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"enotty", syscall.ENOTTY, true},
		{"einval wrapped", &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}, true},
		{"windows handle", errors.New("sync /dev/stderr: The handle is invalid."), true},
		{"other", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isIgnorableSyncError(tt.err))
		})
	}
}

func TestSyncWithoutGlobalIsSafe(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()
	assert.NotPanics(t, Sync)
}
