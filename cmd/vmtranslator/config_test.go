package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	level, err := cfg.level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vmtranslator.yaml")
	content := `
output: out/Basic.asm
bootstrap: true
assemble: true
run_steps: 5000
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Output:    "out/Basic.asm",
		Bootstrap: true,
		Assemble:  true,
		RunSteps:  5000,
		LogLevel:  "debug",
	}, cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0666))
	_, err = loadConfig(path)
	assert.ErrorContains(t, err, "loud")
}

func TestOutputPaths(t *testing.T) {
	asmPath, hackPath := Config{}.outputPaths("dir/BasicTest.vm")
	assert.Equal(t, "dir/BasicTest.asm", asmPath)
	assert.Equal(t, "dir/BasicTest.hack", hackPath)

	asmPath, hackPath = Config{Output: "out.asm"}.outputPaths("dir/BasicTest.vm")
	assert.Equal(t, "out.asm", asmPath)
	assert.Equal(t, "out.hack", hackPath)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Simple.vm")
	require.NoError(t, os.WriteFile(input, []byte("// adds\npush constant 2\npush constant 3\nadd\n"), 0666))
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	require.NoError(t, run(logger, input, Config{Assemble: true, RunSteps: 1000}))
	asmCode, err := os.ReadFile(filepath.Join(dir, "Simple.asm"))
	require.NoError(t, err)
	assert.Contains(t, string(asmCode), "// push constant 2\n@2\n")
	assert.Contains(t, string(asmCode), "(END)\n@END\n0;JMP\n")
	hackCode, err := os.ReadFile(filepath.Join(dir, "Simple.hack"))
	require.NoError(t, err)
	assert.Contains(t, string(hackCode), "0000000000000010\n")
}

func TestRun_TranslateError(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Bad.vm")
	require.NoError(t, os.WriteFile(input, []byte("push constant 1\npop temp 8\n"), 0666))
	err := run(slog.New(slog.NewTextHandler(os.Stderr, nil)), input, Config{})
	assert.ErrorContains(t, err, "greater than 7")
	_, statErr := os.Stat(filepath.Join(dir, "Bad.asm"))
	assert.True(t, os.IsNotExist(statErr))
}
