package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/reoring/nestform"
	"github.com/reoring/nestform/source"
)

var errUsage = errors.New("usage")

type encodeFlags struct {
	format     string
	prefix     string
	output     string
	bytes      string
	maxDepth   int
	duplicates string
	config     string
	dump       bool
}

func encodeCmd(e *env, args []string) error {
	var f encodeFlags
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVarP(&f.format, "format", "f", "", "input format: json, jsonc, yaml or cbor (default from file extension)")
	fs.StringVarP(&f.prefix, "prefix", "p", "", "key prefix for every emitted pair")
	fs.StringVarP(&f.output, "output", "o", "pairs", "output: pairs (one key=value per line) or body (urlencoded)")
	fs.StringVar(&f.bytes, "bytes", "raw", "byte string rendering: raw or base64")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "nesting limit; 0 uses the default, negative disables")
	fs.StringVar(&f.duplicates, "duplicates", "ignore", "duplicate object keys: ignore, warn or error")
	fs.StringVar(&f.config, "config", "", "YAML file with defaults for these flags")
	fs.BoolVar(&f.dump, "dump", false, "dump the decoded tree to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("encode takes at most one file, got %d", fs.NArg())
	}
	if err := f.applyConfig(fs); err != nil {
		return err
	}
	path := fs.Arg(0)

	format := source.FormatFromPath(path)
	if f.format != "" {
		var err error
		if format, err = source.ParseFormat(f.format); err != nil {
			return err
		}
	}
	dup, err := duplicatePolicy(f.duplicates)
	if err != nil {
		return err
	}
	var bytesMode nestform.BytesMode
	switch strings.ToLower(f.bytes) {
	case "raw":
		bytesMode = nestform.BytesRaw
	case "base64":
		bytesMode = nestform.BytesBase64
	default:
		return fmt.Errorf("unknown bytes mode %q", f.bytes)
	}

	data, err := readInput(e, path)
	if err != nil {
		return err
	}
	e.logger.Debug("decoding input", "path", path, "format", format, "bytes", len(data))
	v, err := source.Decode(format, data, source.Options{
		MaxDepth:    f.maxDepth,
		OnDuplicate: dup,
		OnIssue: func(issue *nestform.Error) {
			e.logger.Warn("duplicate key", "path", issue.Path)
		},
	})
	if err != nil {
		return err
	}
	if f.dump {
		spewConfig.Fdump(e.stderr, v)
	}

	var pairs nestform.Pairs
	if err := nestform.EncodeTo(&pairs, f.prefix, v, nestform.EncodeOpt{MaxDepth: f.maxDepth, Bytes: bytesMode}); err != nil {
		return err
	}
	e.logger.Debug("encoded", "pairs", len(pairs))

	switch f.output {
	case "pairs":
		for _, kv := range pairs {
			fmt.Fprintf(e.stdout, "%s=%s\n", kv.Key, kv.Value)
		}
	case "body":
		fmt.Fprintln(e.stdout, pairs.Encode())
	default:
		return fmt.Errorf("unknown output %q", f.output)
	}
	return nil
}

func (f *encodeFlags) applyConfig(fs *pflag.FlagSet) error {
	c, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	set := func(name string, dst *string, v string) {
		if v != "" && !fs.Changed(name) {
			*dst = v
		}
	}
	set("format", &f.format, c.Format)
	set("prefix", &f.prefix, c.Prefix)
	set("output", &f.output, c.Output)
	set("bytes", &f.bytes, c.Bytes)
	set("duplicates", &f.duplicates, c.Duplicates)
	if c.MaxDepth != 0 && !fs.Changed("max-depth") {
		f.maxDepth = c.MaxDepth
	}
	return nil
}
