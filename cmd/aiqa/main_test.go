// File: cmd/aiqa/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Setup Helpers ---

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

// captureExit records the status passed to osExit.
func captureExit(t *testing.T) *int {
	t.Helper()
	code := -1
	osExit = func(c int) { code = c }
	t.Cleanup(resetMocks)
	return &code
}

// --- handlePanic ---

func TestHandlePanic(t *testing.T) {
	t.Run("writes the panic log", func(t *testing.T) {
		code := captureExit(t)
		var written string
		var path string
		osWriteFile = func(name string, data []byte, _ os.FileMode) error {
			path, written = name, string(data)
			return nil
		}

		func() {
			defer handlePanic()
			panic("selector resolver blew up")
		}()

		assert.Equal(t, 2, *code)
		assert.Equal(t, panicLogFile, path)
		assert.True(t, strings.HasPrefix(written, "panic: selector resolver blew up"))
		assert.Contains(t, written, "goroutine")
	})

	t.Run("falls back to stderr when the log cannot be written", func(t *testing.T) {
		code := captureExit(t)
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }

		func() {
			defer handlePanic()
			panic(fmt.Errorf("boom"))
		}()

		assert.Equal(t, 1, *code)
	})

	t.Run("does nothing without a panic", func(t *testing.T) {
		code := captureExit(t)
		osWriteFile = func(string, []byte, os.FileMode) error {
			t.Fatal("panic log written without a panic")
			return nil
		}

		func() {
			defer handlePanic()
		}()

		assert.Equal(t, -1, *code)
	})
}

// --- Exit codes ---

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 0, exitCode(fmt.Errorf("run aborted: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("test failed")))
}

// --- Interactive Shell ---

func TestInteractive(t *testing.T) {
	in := strings.NewReader("\n--version\nquit\nvalidate never-reached.yaml\n")
	var out bytes.Buffer

	require.NoError(t, interactive(context.Background(), in, &out))

	output := out.String()
	assert.Contains(t, output, "aiqa > ")
	assert.Contains(t, output, "aiqa version")
	assert.Contains(t, output, "Exiting aiqa.")
}

func TestInteractive_EOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, interactive(context.Background(), strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "Exiting aiqa.")
}
