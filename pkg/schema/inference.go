package schema

import (
	"github.com/ajitpratap0/colbridge/pkg/host"
)

// Inference is the result of sampling a generic host array.
type Inference struct {
	// Type is the column type; Null when nothing could be sampled
	Type DataType
	// Sampled is the index of the element the type came from, or -1
	Sampled int
	// NullCount counts null and undefined elements
	NullCount int
	// Mixed holds the indices of present elements whose kind differs from the sampled one
	Mixed []int
}

// Nullable reports whether the array held any missing element.
func (in Inference) Nullable() bool {
	return in.NullCount > 0
}

// Empty reports whether there was no present element to infer from.
func (in Inference) Empty() bool {
	return in.Sampled < 0
}

// ElementType maps a present host scalar to the column type it starts:
// numbers are Float64, booleans Bool and strings Utf8.
func ElementType(v any) (DataType, bool) {
	switch host.Classify(v) {
	case host.KindNumber:
		return Float64, true
	case host.KindBool:
		return Bool, true
	case host.KindString:
		return Utf8, true
	default:
		return Object, false
	}
}

// Infer samples values: the column type comes from the first element that is
// neither null nor undefined, and every later element is checked against it.
func Infer(values []any) Inference {
	in := Inference{Type: Null, Sampled: -1}
	sampledKind := host.KindUnknown

	for i, v := range values {
		kind := host.Classify(v)
		if kind == host.KindNull || kind == host.KindUndefined {
			in.NullCount++
			continue
		}
		if in.Sampled < 0 {
			in.Sampled = i
			sampledKind = kind
			in.Type, _ = ElementType(v)
			continue
		}
		if kind != sampledKind {
			in.Mixed = append(in.Mixed, i)
		}
	}
	return in
}
