package cmd

import (
	"bytes"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/tinysh/core/config"
	"github.com/josephlewis42/tinysh/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, string) {
	t.Helper()

	t.Cleanup(func() {
		cfgPath, commandFlag, verbose = "", "", false
		sessionFilter, typeFilter = "", ""
		rootCmd.Flags().Lookup("command").Changed = false
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	require.NoError(t, rootCmd.Execute())
	return stdout.String(), stderr.String()
}

func initDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := config.Initialize(dir, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return dir
}

func TestRoot_command(t *testing.T) {
	dir := initDir(t)

	stdout, stderr := execute(t, "", "--config", dir, "-c", "echo hello; quit; echo after")

	assert.Equal(t, "hello\nExiting shell...\n", stdout)
	assert.Empty(t, stderr)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	fd, err := cfg.ReadEventLog()
	require.NoError(t, err)
	defer fd.Close()

	report := logger.NewReport()
	require.NoError(t, logger.ReadJSONLinesLog(fd, report.Update))
	assert.Equal(t, 1, report.EventTypes.Get(string(logger.EventRunCommand)))
	assert.Equal(t, 1, report.EventTypes.Get(string(logger.EventBuiltin)))
}

func TestRoot_interactive(t *testing.T) {
	dir := initDir(t)

	stdout, _ := execute(t, "echo one\n", "--config", filepath.Join(dir, config.ConfigurationName))

	assert.Equal(t, "> one\n> ", stdout)
}

func TestBuiltinsCmd(t *testing.T) {
	stdout, _ := execute(t, "", "builtins")

	assert.Equal(t, "cd\nexit\nhelp\njobs\nquit\n", stdout)
}

func TestEventsCmd(t *testing.T) {
	dir := initDir(t)
	execute(t, "", "--config", dir, "-c", "true")

	report, _ := execute(t, "", "--config", dir, "events", "report")
	assert.Contains(t, report, "log_entries: 2")

	lines, _ := execute(t, "", "--config", dir, "events", "cat", "--type", "command_exit")
	assert.Equal(t, 1, strings.Count(lines, "\n"))
	assert.Contains(t, lines, `"exit_code":0`)
}
