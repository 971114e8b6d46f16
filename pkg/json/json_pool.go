// Package json provides JSON serialization with object pooling
package json

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/colbridge/pkg/host"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// MarshalHost encodes a host value. Objects keep their key order, Undefined
// is written as null, typed buffers become arrays of numbers.
func MarshalHost(v any) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := writeHost(buf, v); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func writeHost(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case host.Undefined:
		buf.WriteString("null")
		return nil
	case host.Uint8Clamped:
		return writeHost(buf, []uint8(x))
	case []uint8:
		// []byte would otherwise be base64 encoded
		buf.WriteByte('[')
		for i, b := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, "%d", b)
		}
		buf.WriteByte(']')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeHost(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	if obj, ok := host.AsObject(v); ok {
		buf.WriteByte('{')
		for i, e := range obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := gojson.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeHost(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	data, err := gojson.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// DecodeHost reads one JSON document into host values: objects become
// host.Object with their key order preserved, arrays become []any, numbers
// float64 and null nil.
func DecodeHost(r io.Reader) (any, error) {
	dec := gojson.NewDecoder(r)
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

// UnmarshalHost is DecodeHost over a byte slice.
func UnmarshalHost(data []byte) (any, error) {
	return DecodeHost(bytes.NewReader(data))
}

func decodeValue(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			obj := host.Object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, host.Entry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		// string, float64, bool or nil
		return tok, nil
	}
}
