package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "hdcluster", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"list",
		"launch-cluster",
		"launch-master",
		"launch-workers",
		"wait-for-service",
		"url",
		"terminate-cluster",
		"delete-cluster",
		"create-storage",
		"attach-storage",
		"list-storage",
		"delete-storage",
		"create-formatted-snapshot",
		"version",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
}

func TestRoot_PersistentFlags(t *testing.T) {
	cmd := Root()

	for _, name := range []string{"config", "env-file", "verbose", "log-format", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, ".env", cmd.PersistentFlags().Lookup("env-file").DefValue)
	assert.Equal(t, "console", cmd.PersistentFlags().Lookup("log-format").DefValue)
}

func TestDestructiveCommands_HaveForceFlag(t *testing.T) {
	cmd := Root()

	for _, name := range []string{"terminate-cluster", "delete-cluster", "delete-storage"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		flag := sub.Flags().Lookup("force")
		require.NotNil(t, flag, "%s has no --force flag", name)
		assert.Equal(t, "f", flag.Shorthand)
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing worker count", []string{"launch-cluster", "prod"}, "accepts 2 arg(s), received 1"},
		{"non-numeric worker count", []string{"launch-workers", "prod", "many"}, `invalid worker count "many": must be an integer`},
		{"zero workers", []string{"wait-for-service", "prod", "0"}, "invalid worker count 0: must be positive"},
		{"zero size", []string{"create-formatted-snapshot", "prod", "0"}, "invalid size 0: must be positive"},
		{"storage without spec", []string{"create-storage", "prod", "worker", "2"}, "accepts 4 arg(s), received 3"},
		{"attach without cluster", []string{"attach-storage"}, "requires at least 1 arg(s), only received 0"},
		{"list with two names", []string{"list", "a", "b"}, "accepts at most 1 arg(s), received 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Root()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()

			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestPositiveArg(t *testing.T) {
	n, err := positiveArg("12", "worker count")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = positiveArg("1.5", "size")
	assert.Error(t, err)
}
