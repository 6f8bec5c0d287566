// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	envFile := filepath.Join(t.TempDir(), "missing.env")
	cmd.SetArgs(append([]string{"--env-file", envFile, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunAgainstEmulator(t *testing.T) {
	out, err := execute(t, "run", "--emulator", "--poll-interval", "1ms", "-p", "2", "basic-agent", "functions", "inference")
	require.NoError(t, err, out)
	assert.Contains(t, out, "=== basic-agent ===")
	assert.Contains(t, out, "PASS basic-agent")
	assert.Contains(t, out, "PASS functions")
	assert.Contains(t, out, "PASS inference")
}

func TestRunNeedsSamples(t *testing.T) {
	_, err := execute(t, "run", "--emulator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestRunUnknownSample(t *testing.T) {
	_, err := execute(t, "run", "--emulator", "no-such-sample")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-sample")
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "basic-agent")
	assert.Contains(t, out, "browser-automation")
}

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "console", false},
		{"debug", "json", false},
		{"loud", "console", true},
		{"info", "xml", true},
	} {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := newLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
