package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/xiaobogaga/hackvm/assembler"
)

// a simple program accepts an input assembler code file produced by the vm translator and transforms
// the content to the corresponding hack machine language.

var (
	inputPath  = flag.String("i", "./input.asm", "the input hack assemble code file path")
	outputPath = flag.String("o", "", "the output hack binary code file path, defaults to the input path with a .hack extension")
	verbose    = flag.Bool("v", false, "whether print all transformed binary code")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	f, err := os.Open(*inputPath)
	if err != nil {
		logger.Error("failed to open file", slog.String("path", *inputPath), slog.String("err", err.Error()))
		atexit.Exit(1)
	}
	defer f.Close()
	codes, err := assembler.New().Assemble(f)
	if err != nil {
		logger.Error("failed to assemble file", slog.String("path", *inputPath), slog.String("err", err.Error()))
		atexit.Exit(1)
	}
	if *verbose {
		for _, code := range codes {
			fmt.Println(code)
		}
	}
	out := *outputPath
	if out == "" {
		out = strings.TrimSuffix(*inputPath, ".asm") + ".hack"
	}
	dst, err := os.Create(out)
	if err != nil {
		logger.Error("failed to create file", slog.String("path", out), slog.String("err", err.Error()))
		atexit.Exit(1)
	}
	if err := assembler.WriteHack(dst, codes); err != nil {
		dst.Close()
		logger.Error("failed to save", slog.String("path", out), slog.String("err", err.Error()))
		atexit.Exit(1)
	}
	if err := dst.Close(); err != nil {
		logger.Error("failed to save", slog.String("path", out), slog.String("err", err.Error()))
		atexit.Exit(1)
	}
	logger.Info("assembled", slog.String("input", *inputPath), slog.String("output", out),
		slog.Int("instructions", len(codes)))
	atexit.Exit(0)
}
