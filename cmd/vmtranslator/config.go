package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the driver settings. It can be loaded from a yaml file, flags given on the
// command line take precedence over it.
type Config struct {
	Output    string `yaml:"output"`
	Bootstrap bool   `yaml:"bootstrap"`
	Verbose   bool   `yaml:"verbose"`
	LogLevel  string `yaml:"log_level"`
	// Assemble also writes the .hack binary next to the .asm output.
	Assemble bool `yaml:"assemble"`
	// RunSteps runs the translated unit on the emulator when positive.
	RunSteps int `yaml:"run_steps"`
}

func defaultConfig() Config {
	return Config{LogLevel: "info"}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if _, err := cfg.level(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) level() (slog.Level, error) {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown log level %q", cfg.LogLevel)
}

// outputPaths returns where the assembler code, and the binary code, of input are saved.
func (cfg Config) outputPaths(input string) (string, string) {
	asmPath := cfg.Output
	if asmPath == "" {
		asmPath = strings.TrimSuffix(input, ".vm") + ".asm"
	}
	return asmPath, strings.TrimSuffix(asmPath, ".asm") + ".hack"
}
