package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeErr(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestExitCode_UnknownFlag(t *testing.T) {
	err := executeErr(t, "scan", "--bogus", "genome.txt")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestExitCode_MissingArgument(t *testing.T) {
	err := executeErr(t, "scan")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))

	err = executeErr(t, "config", "set", "fetch.rate")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestExitCode_RuntimeError(t *testing.T) {
	assert.Equal(t, ExitError, exitCode(errors.New("read record: unexpected EOF")))

	// A bad config value is a runtime failure, not command-line misuse.
	err := executeErr(t, "config", "set", "telemetry.enabled", "true")
	require.Error(t, err)
	assert.Equal(t, ExitError, exitCode(err))
}
