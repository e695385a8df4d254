package source_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/nestform"
	"github.com/reoring/nestform/source"
)

func encodeLines(t *testing.T, v nestform.Value) []string {
	t.Helper()
	p, err := nestform.Encode(v)
	require.NoError(t, err)
	out := make([]string, len(p))
	for i, kv := range p {
		out[i] = kv.Key + "=" + kv.Value
	}
	return out
}

func TestDecode_JSONKeepsOrderAndTypes(t *testing.T) {
	doc := `{"zeta": 1, "constraints": {"ids": [100, 200], "query": null, "big": 18446744073709551615}, "ratio": 0.5, "open": true}`
	v, err := source.Decode(source.FormatJSON, []byte(doc), source.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"zeta=1",
		"constraints[ids][0]=100",
		"constraints[ids][1]=200",
		"constraints[big]=18446744073709551615",
		"ratio=0.5",
		"open=true",
	}, encodeLines(t, v))

	big := v.Entries()[1].Value.Entries()[2].Value
	assert.Equal(t, nestform.KindUint, big.Kind())
}

func TestDecode_JSONC(t *testing.T) {
	doc := `{
		// leading comment
		"a": [1, 2,], /* trailing comma above */
		"b": "x",
	}`
	v, err := source.Decode(source.FormatJSONC, []byte(doc), source.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a[0]=1", "a[1]=2", "b=x"}, encodeLines(t, v))
}

func TestDecode_JSONErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":    ``,
		"broken":   `{"a": }`,
		"trailing": `{"a": 1} {"b": 2}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := source.Decode(source.FormatJSON, []byte(doc), source.Options{})
			require.ErrorIs(t, err, nestform.ErrParse)
		})
	}
}

func TestDecode_Enforcement(t *testing.T) {
	doc := []byte(`{"a": {"b": {"c": 1}}, "a": 2}`)

	_, err := source.Decode(source.FormatJSON, doc, source.Options{MaxDepth: 2})
	require.ErrorIs(t, err, nestform.ErrDepthExceeded)

	_, err = source.Decode(source.FormatJSON, doc, source.Options{OnDuplicate: source.DupError})
	require.ErrorIs(t, err, nestform.ErrDuplicateKey)

	var warned []string
	v, err := source.Decode(source.FormatJSON, doc, source.Options{
		OnDuplicate: source.DupWarn,
		OnIssue:     func(e *nestform.Error) { warned = append(warned, e.Path) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, warned)
	assert.Equal(t, []string{"a=2"}, encodeLines(t, v))
}

func TestDecode_YAML(t *testing.T) {
	doc := `
defaults: &defaults
  priority: low
  tags: [a, b]
task:
  <<: *defaults
  priority: high
  title: "Fix the badger"
  attachment: !!binary aGk=
  owner: ~
  points: 2.0
`
	v, err := source.Decode(source.FormatYAML, []byte(doc), source.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"defaults[priority]=low",
		"defaults[tags][0]=a",
		"defaults[tags][1]=b",
		"task[tags][0]=a",
		"task[tags][1]=b",
		"task[priority]=high",
		"task[title]=Fix the badger",
		"task[attachment]=hi",
		"task[points]=2",
	}, encodeLines(t, v))
}

func TestDecode_YAMLMergeSequenceFirstWins(t *testing.T) {
	doc := `
a: &a {k: first, only_a: 1}
b: &b {k: second, only_b: 2}
c:
  <<: [*a, *b]
  own: 3
`
	for _, dup := range []source.DuplicatePolicy{source.DupIgnore, source.DupError} {
		v, err := source.Decode(source.FormatYAML, []byte(doc), source.Options{OnDuplicate: dup})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"a[k]=first",
			"a[only_a]=1",
			"b[k]=second",
			"b[only_b]=2",
			"c[k]=first",
			"c[only_a]=1",
			"c[only_b]=2",
			"c[own]=3",
		}, encodeLines(t, v))
	}

	// a repeated explicit key is still a duplicate
	_, err := source.Decode(source.FormatYAML, []byte("c:\n  k: 1\n  k: 2\n"), source.Options{OnDuplicate: source.DupError})
	require.ErrorIs(t, err, nestform.ErrDuplicateKey)
}

func TestDecode_YAMLAliasExpansionIsBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, "l%d: &l%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*l%d", i-1)
		}
		b.WriteString("]\n")
	}
	_, err := source.Decode(source.FormatYAML, []byte(b.String()), source.Options{MaxDepth: -1})
	require.ErrorIs(t, err, nestform.ErrDepthExceeded)
	assert.Contains(t, err.Error(), "excessive aliasing")

	// modest reuse stays within budget
	v, err := source.Decode(source.FormatYAML, []byte("base: &b [1, 2]\nuse: [*b, *b]\n"), source.Options{})
	require.NoError(t, err)
	assert.Len(t, encodeLines(t, v), 6)
}

func TestDecode_YAMLKeysKeepTheirType(t *testing.T) {
	v, err := source.Decode(source.FormatYAML, []byte("labels:\n  1: one\n"), source.Options{})
	require.NoError(t, err)
	_, err = nestform.Encode(v)
	require.ErrorIs(t, err, nestform.ErrUnsupportedKeyType)

	v, err = source.Decode(source.FormatYAML, []byte("flags:\n  true: on\n"), source.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"flags[true]=on"}, encodeLines(t, v))
}

func TestDecode_YAMLEmptyDocument(t *testing.T) {
	v, err := source.Decode(source.FormatYAML, nil, source.Options{})
	require.NoError(t, err)
	assert.True(t, v.IsNone())
}

func TestDecode_CBOR(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{
		"zeta":  uint64(1),
		"alpha": []any{int64(-2), "x", []byte{0x01, 'a'}},
		"ratio": 1.5,
		"none":  nil,
	})
	require.NoError(t, err)

	v, err := source.Decode(source.FormatCBOR, data, source.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"alpha[0]=-2",
		"alpha[1]=x",
		"alpha[2]=\x01a",
		"ratio=1.5",
		"zeta=1",
	}, encodeLines(t, v))
}

func TestDecode_CBORIntegerKeys(t *testing.T) {
	data, err := cbor.Marshal(map[uint64]string{1: "one"})
	require.NoError(t, err)
	v, err := source.Decode(source.FormatCBOR, data, source.Options{})
	require.NoError(t, err)
	_, err = nestform.Encode(v)
	require.ErrorIs(t, err, nestform.ErrUnsupportedKeyType)
}

func TestDecode_CBORMalformed(t *testing.T) {
	_, err := source.Decode(source.FormatCBOR, []byte{0xff, 0x00}, source.Options{})
	require.ErrorIs(t, err, nestform.ErrParse)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, source.FormatYAML, source.FormatFromPath("req.yml"))
	assert.Equal(t, source.FormatJSONC, source.FormatFromPath("req.JSONC"))
	assert.Equal(t, source.FormatCBOR, source.FormatFromPath("req.cbor"))
	assert.Equal(t, source.FormatJSON, source.FormatFromPath("-"))

	f, err := source.ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, source.FormatYAML, f)
	_, err = source.ParseFormat("toml")
	assert.Error(t, err)

	_, err = source.Decode(source.Format("toml"), []byte("a"), source.Options{})
	assert.Error(t, err)
}
