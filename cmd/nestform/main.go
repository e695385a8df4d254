package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"github.com/reoring/nestform/source"
)

var version = "dev"

// spewConfig renders --dump output; unexported Value fields are shown.
var spewConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// env carries the process streams so commands stay testable.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr, logger: newLogger(stderr)}
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "encode":
		err = encodeCmd(e, args[1:])
	case "decode":
		err = decodeCmd(e, args[1:])
	case "version":
		fmt.Fprintln(stdout, "nestform", version)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		usage(stderr)
		return 2
	}
	if err != nil {
		if err == errUsage {
			return 2
		}
		fmt.Fprintf(stderr, "nestform: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `nestform CLI

Usage:
  nestform encode [--format json|jsonc|yaml|cbor] [--prefix P] [--output pairs|body]
                  [--bytes raw|base64] [--max-depth N] [--duplicates ignore|warn|error]
                  [--config FILE] [--dump] [FILE]
  nestform decode [--dump] [FILE]
  nestform version

Notes:
  - FILE defaults to stdin ("-").
  - Set NESTFORM_DEBUG=1 for debug logs on stderr.`)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if v := os.Getenv("NESTFORM_DEBUG"); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// config mirrors the encode flags; flags given on the command line win.
type config struct {
	Format     string `yaml:"format"`
	Prefix     string `yaml:"prefix"`
	Output     string `yaml:"output"`
	Bytes      string `yaml:"bytes"`
	MaxDepth   int    `yaml:"max_depth"`
	Duplicates string `yaml:"duplicates"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func readInput(e *env, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(path)
}

func duplicatePolicy(s string) (source.DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return source.DupIgnore, nil
	case "warn":
		return source.DupWarn, nil
	case "error":
		return source.DupError, nil
	}
	return source.DupIgnore, fmt.Errorf("unknown duplicates policy %q", s)
}
