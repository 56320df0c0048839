package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusenback/logship/internal/config"
)

func TestRootCmdRequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--docker-image", "busybox"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.FlagGroup)
	assert.Contains(t, err.Error(), config.FlagRegion)
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range append(config.Required,
		config.FlagPollInterval, config.FlagPull, config.FlagDockerHost, config.FlagLogLevel, config.FlagTUI) {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestRunRejectsBadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"

	err := run(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, config.FlagLogLevel)
}

func TestRunRejectsIncompleteSinkConfig(t *testing.T) {
	cfg := config.Default()
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), cfg, &stdout, &stderr)
	assert.ErrorIs(t, err, errRunFailed)
	assert.Contains(t, stderr.String(), "invalid log sink configuration")
}

func TestExecuteExitCode(t *testing.T) {
	assert.Equal(t, 1, execute([]string{"--aws-region", "eu-west-1"}))
}
