package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/config"
	"github.com/roach88/bake/internal/ir"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bake", cmd.Use)
	assert.Contains(t, cmd.Long, "recipes")
}

func TestRootVersion(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	stdout, _, err := execute(NewRootCommand(), "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "bake "+ir.EngineVersion+" (recipe schema v"+ir.IRVersion+")\n", stdout)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "invoke", "validate", "compile", "ops", "history", "trace", "replay", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"input", "db", "recipe-format", "output-kind", "breakpoints"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "i", runCmd.Flags().Lookup("input").Shorthand)
}

func TestInvokeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	invokeCmd, _, err := cmd.Find([]string{"invoke"})
	require.NoError(t, err)

	argsFlag := invokeCmd.Flags().Lookup("args")
	require.NotNil(t, argsFlag)
	assert.Equal(t, "[]", argsFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)
	assert.NotNil(t, testCmd.Flags().Lookup("golden"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	cmd := NewRootCommand()
	_, _, err := execute(cmd, "", "--format", "invalid", "ops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootBadConfigFile(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	path := writeFile(t, t.TempDir(), "bake.toml", "[engine]\nbogus = 1\n")

	cmd := NewRootCommand()
	_, _, err := execute(cmd, "", "--config", path, "ops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Contains(t, err.Error(), "engine.bogus")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootConfigFromEnvironment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bake.toml", "[engine]\nmax_jumps = 7\n")
	t.Setenv(config.EnvConfigPath, path)

	opts := &RootOptions{Format: "text"}
	cfg, err := opts.Config()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.MaxJumps)
	assert.Equal(t, path, cfg.Path)

	// Loaded once.
	again, err := opts.Config()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestNewLoggerFanOut(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bake.json")
	stderr := &bytes.Buffer{}

	logger, closer, err := newLogger(stderr, config.LogConfig{Level: "info", File: logPath}, false)
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Debug("hidden")
	logger.Info("bake finished", "status", "ok")
	require.NoError(t, closer.Close())

	assert.Contains(t, stderr.String(), "msg=\"bake finished\"")
	assert.Contains(t, stderr.String(), "status=ok")
	assert.NotContains(t, stderr.String(), "hidden")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"bake finished"`)
	assert.Contains(t, string(data), `"status":"ok"`)
}

func TestNewLoggerVerbose(t *testing.T) {
	stderr := &bytes.Buffer{}
	logger, closer, err := newLogger(stderr, config.LogConfig{Level: "error"}, true)
	require.NoError(t, err)
	assert.Nil(t, closer)

	logger.Debug("step finished")
	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestNewLoggerBadLevel(t *testing.T) {
	_, _, err := newLogger(&bytes.Buffer{}, config.LogConfig{Level: "loud"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}
