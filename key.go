package nestform

import "strconv"

// Compose appends one path segment to a bracket key prefix:
//
//	Compose("", "badgers")         == "badgers"
//	Compose("badgers", "0")        == "badgers[0]"
//	Compose("badgers[0]", "items") == "badgers[0][items]"
//
// The segment is taken verbatim; brackets inside it are not interpreted or
// escaped. Percent-encoding is left to Pairs.Encode.
func Compose(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "[" + segment + "]"
}

// ComposeIndex appends a sequence index segment.
func ComposeIndex(prefix string, i int) string {
	return Compose(prefix, strconv.Itoa(i))
}

// KeySegment reduces a map key to the text used as its path segment.
// Strings and chars reduce to their literal text and booleans to "true" or
// "false". Any other kind is rejected with CodeUnsupportedKey; the service's
// form convention never uses numeric or composite map keys.
func KeySegment(k Value) (string, error) {
	return keySegment(k, "")
}

func keySegment(k Value, path string) (string, error) {
	switch k.kind {
	case KindString, KindChar:
		return k.s, nil
	case KindBool:
		if k.b {
			return "true", nil
		}
		return "false", nil
	default:
		return "", NewError(CodeUnsupportedKey, path, k.kind)
	}
}
