// Package source decodes JSON, JSONC, YAML and CBOR documents into
// nestform values, keeping member order where the format has one.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/reoring/nestform"
	eng "github.com/reoring/nestform/internal/engine"
	cborsrc "github.com/reoring/nestform/source/cbor"
	jsonsrc "github.com/reoring/nestform/source/json"
	yamlsrc "github.com/reoring/nestform/source/yaml"
)

// Format names a document syntax.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
	FormatCBOR  Format = "cbor"
)

// ParseFormat accepts a format name, case-insensitively. "yml" is YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatJSONC, FormatYAML, FormatCBOR:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// FormatFromPath picks a format from a file extension, falling back to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonc", ".json5":
		return FormatJSONC
	case ".yaml", ".yml":
		return FormatYAML
	case ".cbor":
		return FormatCBOR
	}
	return FormatJSON
}

// Duplicate key policies, re-exported from the engine.
const (
	DupIgnore = eng.DupIgnore
	DupWarn   = eng.DupWarn
	DupError  = eng.DupError
)

// DuplicatePolicy selects how repeated object keys are treated. Under every
// policy except DupError the last value wins.
type DuplicatePolicy = eng.DuplicateStrictness

// Options configures Decode.
type Options struct {
	// MaxDepth bounds container nesting; zero means
	// nestform.DefaultMaxDepth, negative disables the check.
	MaxDepth    int
	OnDuplicate DuplicatePolicy
	// OnIssue receives warnings under DupWarn.
	OnIssue func(*nestform.Error)
}

func (o Options) enforce() eng.EnforceOptions {
	depth := o.MaxDepth
	switch {
	case depth == 0:
		depth = nestform.DefaultMaxDepth
	case depth < 0:
		depth = 0
	}
	return eng.EnforceOptions{OnDuplicate: o.OnDuplicate, MaxDepth: depth, OnIssue: o.OnIssue}
}

// Decode parses one document. Syntax errors come back as *nestform.Error
// with CodeParseError; depth and duplicate violations carry their own codes.
func Decode(format Format, data []byte, opt Options) (nestform.Value, error) {
	src, err := open(format, data)
	if err != nil {
		return nestform.Value{}, err
	}
	src = eng.WrapWithEnforcement(src, opt.enforce())
	v, err := eng.BuildValue(src)
	if err != nil {
		return nestform.Value{}, parseError(err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		e := nestform.NewError(nestform.CodeParseError, "", nestform.KindUnit)
		e.Cause = errors.New("trailing data after document")
		if err != nil {
			e.Cause = err
		}
		return nestform.Value{}, e
	}
	return v, nil
}

func open(format Format, data []byte) (eng.TokenSource, error) {
	switch format {
	case FormatJSON, "":
		return jsonsrc.NewBytes(data), nil
	case FormatJSONC:
		return jsonsrc.NewJSONC(data), nil
	case FormatYAML:
		return yamlsrc.NewBytes(data)
	case FormatCBOR:
		return cborsrc.NewBytes(data)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func parseError(err error) error {
	if _, ok := nestform.AsError(err); ok {
		return err
	}
	e := nestform.NewError(nestform.CodeParseError, "", nestform.KindUnit)
	e.Cause = err
	return e
}
