package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tebeka/atexit"

	"github.com/xiaobogaga/hackvm/assembler"
	"github.com/xiaobogaga/hackvm/emulator"
	"github.com/xiaobogaga/hackvm/vmtranslator"
)

// A simple program to translate one hack vm file to hack assembler code.

var (
	path       = flag.String("path", "", "the vm file to translate")
	output     = flag.String("o", "", "the saved path, defaults to the input path with an .asm extension")
	configPath = flag.String("config", "", "an optional yaml config file")
	verbose    = flag.Bool("v", false, "whether print translate result")
	// Chapter 7 tests set up SP themselves.
	writeInitializeCode = flag.Bool("wi", false, "whether write initialize code")
	assemble            = flag.Bool("hack", false, "whether also assemble the result to a .hack file")
	runSteps            = flag.Int("run", 0, "run the result on the emulator for at most this many steps")
	logLevel            = flag.String("log", "", "log level: debug, info, warn or error")
)

func main() {
	flag.Parse()
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fail(slog.Default(), err)
	}
	applyFlags(&cfg)
	level, err := cfg.level()
	if err != nil {
		fail(slog.Default(), err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if *path == "" {
		flag.Usage()
		atexit.Exit(2)
	}
	if err := run(logger, *path, cfg); err != nil {
		fail(logger, err)
	}
	atexit.Exit(0)
}

// applyFlags copies the flags given on the command line over cfg.
func applyFlags(cfg *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output = *output
		case "v":
			cfg.Verbose = *verbose
		case "wi":
			cfg.Bootstrap = *writeInitializeCode
		case "hack":
			cfg.Assemble = *assemble
		case "run":
			cfg.RunSteps = *runSteps
		case "log":
			cfg.LogLevel = *logLevel
		}
	})
}

func fail(logger *slog.Logger, err error) {
	logger.Error("[Translator]: failed", slog.String("err", err.Error()))
	atexit.Exit(1)
}

func run(logger *slog.Logger, input string, cfg Config) error {
	source, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrap(err, "read source")
	}
	unit := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	lines, err := vmtranslator.Translate(string(source), vmtranslator.Options{
		Unit:      unit,
		Bootstrap: cfg.Bootstrap,
	})
	if err != nil {
		return errors.Wrapf(err, "translate %s", input)
	}
	code := strings.Join(lines, "\n") + "\n"
	if cfg.Verbose {
		fmt.Print(code)
	}
	asmPath, hackPath := cfg.outputPaths(input)
	if err := saveTo(asmPath, []byte(code)); err != nil {
		return err
	}
	logger.Info("translated", slog.String("input", input), slog.String("output", asmPath),
		slog.Int("lines", len(lines)))

	if !cfg.Assemble && cfg.RunSteps <= 0 {
		return nil
	}
	codes, err := assembler.New().Assemble(strings.NewReader(code))
	if err != nil {
		return errors.Wrapf(err, "assemble %s", asmPath)
	}
	if cfg.Assemble {
		var sb strings.Builder
		if err := assembler.WriteHack(&sb, codes); err != nil {
			return err
		}
		if err := saveTo(hackPath, []byte(sb.String())); err != nil {
			return err
		}
		logger.Info("assembled", slog.String("output", hackPath), slog.Int("instructions", len(codes)))
	}
	if cfg.RunSteps > 0 {
		return execute(logger, assembler.Words(codes), cfg)
	}
	return nil
}

func execute(logger *slog.Logger, rom []uint16, cfg Config) error {
	cpu := emulator.New(rom)
	if !cfg.Bootstrap {
		cpu.Write(emulator.SP, 256)
	}
	if err := cpu.Run(cfg.RunSteps); err != nil {
		return errors.Wrap(err, "run")
	}
	attrs := []any{slog.Int("steps", cpu.Steps()), slog.Int("sp", int(cpu.Read(emulator.SP)))}
	if cpu.Read(emulator.SP) > 256 {
		attrs = append(attrs, slog.Int("top", int(cpu.StackTop())))
	}
	logger.Info("halted", attrs...)
	return nil
}

// saveTo writes data to a temporary file renamed over filePath once complete, so a failed
// run never leaves a truncated output behind.
func saveTo(filePath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*")
	if err != nil {
		return errors.Wrap(err, "save")
	}
	// Removing a renamed file is a no-op.
	atexit.Register(func() { os.Remove(tmp.Name()) })
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "save to %s", filePath)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "save to %s", filePath)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), filePath), "save to %s", filePath)
}
