// File: cmd/applyflow/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitInterrupted, exitCode(fmt.Errorf("run aborted: %w", context.Canceled)))
}

func TestHandlePanic(t *testing.T) {
	origWrite, origExit := osWriteFile, osExit
	t.Cleanup(func() { osWriteFile, osExit = origWrite, origExit })

	var (
		written []byte
		code    = -1
	)
	osWriteFile = func(name string, data []byte, perm os.FileMode) error {
		assert.Equal(t, panicLogFile, name)
		written = data
		return nil
	}
	osExit = func(c int) { code = c }

	func() {
		defer handlePanic()
		panic("scenario exploded")
	}()

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, string(written), "panic: scenario exploded")
	assert.Contains(t, string(written), "goroutine")
}

func TestHandlePanic_WriteFailure(t *testing.T) {
	origWrite, origExit := osWriteFile, osExit
	t.Cleanup(func() { osWriteFile, osExit = origWrite, origExit })

	osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
	code := -1
	osExit = func(c int) { code = c }

	func() {
		defer handlePanic()
		panic("again")
	}()
	assert.Equal(t, exitFailure, code)
}

func TestHandlePanic_NoPanic(t *testing.T) {
	origExit := osExit
	t.Cleanup(func() { osExit = origExit })
	called := false
	osExit = func(int) { called = true }

	func() {
		defer handlePanic()
	}()
	assert.False(t, called)
}
