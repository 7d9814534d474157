package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false // Disable colors for easier testing
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		output := buf.String()
		assert.Contains(t, output, "debug message")
		assert.Contains(t, output, "info message")
		assert.Contains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		Debug("debug message")
		Info("info message")

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.Contains(t, output, "info message")
	})

	t.Run("ErrorLevelShowsOnlyErrors", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		output := buf.String()
		assert.NotContains(t, output, "info message")
		assert.NotContains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("BOGUS")

		assert.Equal(t, int32(LevelInfo), currentLevel.Load())
	})
}

// ============================================================================
// Format Tests
// ============================================================================

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	defer SetFormat("text")

	Info("json test", KeyPath, "/alice/Documents", KeyUserID, uint64(42))

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "json test", record["msg"])
	assert.Equal(t, "/alice/Documents", record["path"])
	assert.Equal(t, float64(42), record["user_id"])
}

func TestTextFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	Info("text test", KeyEntryUID, "abc-123")

	output := buf.String()
	assert.Contains(t, output, "text test")
	assert.Contains(t, output, "entry_uid=abc-123")
}

// ============================================================================
// Context-aware Logging Tests
// ============================================================================

func TestContextFields(t *testing.T) {
	t.Run("FieldsInjectedFromContext", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")

		lc := NewLogContext("req-1").
			WithOperation("descendants").
			WithUser("alice", 7)
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "listing")

		output := buf.String()
		assert.Contains(t, output, "request_id=req-1")
		assert.Contains(t, output, "operation=descendants")
		assert.Contains(t, output, "user=alice")
		assert.Contains(t, output, "user_id=7")
	})

	t.Run("NoContextIsFine", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		InfoCtx(context.Background(), "bare")

		assert.Contains(t, buf.String(), "bare")
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext("req-2").WithUser("bob", 9)
		clone := lc.WithOperation("resolve")

		assert.Equal(t, "", lc.Operation)
		assert.Equal(t, "resolve", clone.Operation)
		assert.Equal(t, "bob", clone.Username)
	})

	t.Run("NilContextRetrieval", func(t *testing.T) {
		assert.Nil(t, FromContext(context.Background()))
		var nilCtx context.Context
		assert.Nil(t, FromContext(nilCtx))
	})
}

// ============================================================================
// Field Constructor Tests
// ============================================================================

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, KeyPath, Path("/x").Key)
	assert.Equal(t, "/x", Path("/x").Value.String())

	assert.Equal(t, KeyAllowed, Allowed(true).Key)
	assert.Equal(t, KeyDepth, Depth(-1).Key)

	errAttr := Err(assert.AnError)
	assert.Equal(t, KeyError, errAttr.Key)
	assert.Contains(t, errAttr.Value.String(), "assert.AnError")

	nilAttr := Err(nil)
	assert.Equal(t, "<nil>", nilAttr.Value.String())
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				Info("concurrent", KeyCount, n)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	// Every line should be complete (no interleaved writes)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Contains(t, line, "concurrent")
	}
}
