package nestform

// BytesMode selects how byte-sequence scalars are rendered.
type BytesMode int

const (
	BytesRaw    BytesMode = iota // Emit the bytes verbatim as the value text.
	BytesBase64                  // Emit standard base64 (RFC 4648, padded).
)

// DefaultMaxDepth bounds value tree nesting when EncodeOpt.MaxDepth is zero.
const DefaultMaxDepth = 64

// EncodeOpt bundles encoding options.
type EncodeOpt struct {
	// MaxDepth bounds the nesting depth of the value tree. Zero means
	// DefaultMaxDepth; negative disables the check.
	MaxDepth int
	Bytes    BytesMode
}

func (o EncodeOpt) maxDepth() int {
	switch {
	case o.MaxDepth == 0:
		return DefaultMaxDepth
	case o.MaxDepth < 0:
		return int(^uint(0) >> 1)
	}
	return o.MaxDepth
}

func lastEncodeOpt(opts []EncodeOpt) EncodeOpt {
	var opt EncodeOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return opt
}

// ReflectOpt configures ValueOf.
type ReflectOpt struct {
	// TagName is the primary struct tag consulted for key names and options
	// ("form" when empty). The json tag name is the fallback.
	TagName string
	// MaxDepth bounds reflection recursion (pointer cycles). Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

func (o ReflectOpt) tagName() string {
	if o.TagName == "" {
		return "form"
	}
	return o.TagName
}

func (o ReflectOpt) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}
