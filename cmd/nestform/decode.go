package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/reoring/nestform"
)

func decodeCmd(e *env, args []string) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	var dump bool
	fs.BoolVar(&dump, "dump", false, "dump the rebuilt tree to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("decode takes at most one file, got %d", fs.NArg())
	}
	data, err := readInput(e, fs.Arg(0))
	if err != nil {
		return err
	}
	v, err := nestform.ParseFormValue(strings.TrimSpace(string(data)))
	if err != nil {
		return err
	}
	if dump {
		spewConfig.Fdump(e.stderr, v)
	}
	w := bufio.NewWriter(e.stdout)
	jw := &jsonWriter{w: w}
	if err := jw.value(v, ""); err != nil {
		return err
	}
	jw.str("\n")
	if jw.err != nil {
		return jw.err
	}
	return w.Flush()
}

// jsonWriter prints a Value as indented JSON, keeping map entry order. The
// first write error sticks and stops further output.
type jsonWriter struct {
	w   io.Writer
	err error
}

func (j *jsonWriter) str(s string) {
	if j.err == nil {
		_, j.err = io.WriteString(j.w, s)
	}
}

func (j *jsonWriter) marshal(x any) {
	if j.err != nil {
		return
	}
	b, err := json.Marshal(x)
	if err != nil {
		j.err = err
		return
	}
	_, j.err = j.w.Write(b)
}

func (j *jsonWriter) value(v nestform.Value, indent string) error {
	inner := indent + "  "
	switch v.Kind() {
	case nestform.KindMap, nestform.KindStruct:
		type member struct {
			key string
			val nestform.Value
		}
		var members []member
		for _, en := range v.Entries() {
			k, err := nestform.KeySegment(en.Key)
			if err != nil {
				return err
			}
			members = append(members, member{k, en.Value})
		}
		for _, f := range v.Fields() {
			members = append(members, member{f.Name, f.Value})
		}
		if len(members) == 0 {
			j.str("{}")
			return j.err
		}
		j.str("{\n")
		for i, m := range members {
			j.str(inner)
			j.marshal(m.key)
			j.str(": ")
			if err := j.value(m.val, inner); err != nil {
				return err
			}
			if i < len(members)-1 {
				j.str(",")
			}
			j.str("\n")
		}
		j.str(indent + "}")
		return j.err
	case nestform.KindSeq:
		elems := v.Elems()
		if len(elems) == 0 {
			j.str("[]")
			return j.err
		}
		j.str("[\n")
		for i, el := range elems {
			j.str(inner)
			if err := j.value(el, inner); err != nil {
				return err
			}
			if i < len(elems)-1 {
				j.str(",")
			}
			j.str("\n")
		}
		j.str(indent + "]")
		return j.err
	case nestform.KindOptional:
		if el, ok := v.Elem(); ok {
			return j.value(el, indent)
		}
		j.str("null")
		return j.err
	case nestform.KindUnit:
		j.str("null")
		return j.err
	}
	var scalar any
	switch v.Kind() {
	case nestform.KindBool:
		scalar, _ = v.BoolValue()
	case nestform.KindInt:
		scalar, _ = v.IntValue()
	case nestform.KindUint:
		scalar, _ = v.UintValue()
	case nestform.KindFloat:
		scalar, _ = v.FloatValue()
	case nestform.KindBytes:
		b, _ := v.BytesValue()
		scalar = string(b)
	case nestform.KindUnitVariant:
		scalar = v.Name()
	default:
		scalar, _ = v.Text()
	}
	j.marshal(scalar)
	return j.err
}
