package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/pretty"
)

// maxDepth bounds array/object nesting accepted by Decode.
const maxDepth = 10000

// Decode parses a single JSON document. Objects keep the order in which keys
// first appear; a repeated key overwrites the earlier value in place.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, data, 0)
	if err != nil {
		return Value{}, err
	}

	// Only whitespace may follow the document.
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return Value{}, toParseError(data, dec, err)
		}
		return Value{}, newParseError(data, dec.InputOffset(), "unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, data []byte, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, newParseError(data, dec.InputOffset(), "exceeded maximum nesting depth")
	}

	tok, err := dec.Token()
	if err != nil {
		return Value{}, toParseError(data, dec, err)
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return Value{}, newParseError(data, dec.InputOffset(), "number out of range: "+string(t))
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '[':
			arr := NewArray()
			for dec.More() {
				item, err := decodeValue(dec, data, depth+1)
				if err != nil {
					return Value{}, err
				}
				arr.Append(item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, toParseError(data, dec, err)
			}
			return FromArray(arr), nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, toParseError(data, dec, err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, newParseError(data, dec.InputOffset(), "object key must be a string")
				}
				item, err := decodeValue(dec, data, depth+1)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, toParseError(data, dec, err)
			}
			return FromObject(obj), nil
		}
	}
	return Value{}, newParseError(data, dec.InputOffset(), "unexpected token")
}

func toParseError(data []byte, dec *json.Decoder, err error) error {
	var syn *json.SyntaxError
	switch {
	case errors.As(err, &syn):
		return newParseError(data, syn.Offset, syn.Error())
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return newParseError(data, int64(len(data)), "unexpected end of JSON input")
	default:
		return newParseError(data, dec.InputOffset(), err.Error())
	}
}

// Encode renders v as compact JSON. Object keys are written in insertion
// order, so equal inputs always produce identical bytes. It fails with a
// *CycleError when an array or object contains itself.
func Encode(v Value) ([]byte, error) {
	e := &encoder{visiting: make(map[any]struct{})}
	if err := e.encode(v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// EncodeIndent renders v as indented JSON with a trailing newline.
func EncodeIndent(v Value, indent string) ([]byte, error) {
	b, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(b, &pretty.Options{Width: 80, Indent: indent}), nil
}

type encoder struct {
	buf      []byte
	visiting map[any]struct{}
	path     []string
}

func (e *encoder) encode(v Value) error {
	switch v.kind {
	case KindNull:
		e.buf = append(e.buf, "null"...)
	case KindBool:
		e.buf = strconv.AppendBool(e.buf, v.b)
	case KindNumber:
		e.buf = appendNumber(e.buf, v.n)
	case KindString:
		e.buf = appendString(e.buf, v.s)
	case KindArray:
		if err := e.enter(v.arr); err != nil {
			return err
		}
		e.buf = append(e.buf, '[')
		for i, item := range v.arr.items {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			e.path = append(e.path, "["+strconv.Itoa(i)+"]")
			if err := e.encode(item); err != nil {
				return err
			}
			e.path = e.path[:len(e.path)-1]
		}
		e.buf = append(e.buf, ']')
		delete(e.visiting, v.arr)
	case KindObject:
		if err := e.enter(v.obj); err != nil {
			return err
		}
		e.buf = append(e.buf, '{')
		for i, k := range v.obj.keys {
			if i > 0 {
				e.buf = append(e.buf, ',')
			}
			e.buf = appendString(e.buf, k)
			e.buf = append(e.buf, ':')
			e.path = append(e.path, "."+k)
			if err := e.encode(v.obj.vals[i]); err != nil {
				return err
			}
			e.path = e.path[:len(e.path)-1]
		}
		e.buf = append(e.buf, '}')
		delete(e.visiting, v.obj)
	}
	return nil
}

func (e *encoder) enter(container any) error {
	if _, ok := e.visiting[container]; ok {
		return &CycleError{Path: "$" + strings.Join(e.path, "")}
	}
	e.visiting[container] = struct{}{}
	return nil
}

// appendNumber writes integral values without a fraction and switches to
// exponent form at the same thresholds as encoding/json. NaN and infinities
// have no JSON form and are written as null.
func appendNumber(b []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(b, "null"...)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return b
}

const hexDigits = "0123456789abcdef"

func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			b = append(b, s[start:i]...)
			switch c {
			case '"', '\\':
				b = append(b, '\\', c)
			case '\n':
				b = append(b, '\\', 'n')
			case '\r':
				b = append(b, '\\', 'r')
			case '\t':
				b = append(b, '\\', 't')
			case '\b':
				b = append(b, '\\', 'b')
			case '\f':
				b = append(b, '\\', 'f')
			default:
				b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b = append(b, s[start:i]...)
			b = append(b, `\ufffd`...)
			i += size
			start = i
			continue
		}
		// U+2028 and U+2029 break JavaScript string literals.
		if r == '\u2028' || r == '\u2029' {
			b = append(b, s[start:i]...)
			b = append(b, '\\', 'u', '2', '0', '2', hexDigits[r&0xF])
			i += size
			start = i
			continue
		}
		i += size
	}
	b = append(b, s[start:]...)
	return append(b, '"')
}
