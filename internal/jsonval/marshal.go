package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Parse decodes a single JSON document from data, preserving object key
// order. encoding/json's normal map-based decoding does not preserve order,
// so this walks the token stream directly.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("jsonval: object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return FromObject(obj), nil
		case '[':
			arr := NewArray()
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return FromArray(arr), nil
		default:
			return nil, fmt.Errorf("jsonval: unexpected delimiter %v", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("jsonval: invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return nil, fmt.Errorf("jsonval: unexpected token %v (%T)", tok, tok)
	}
}

// MarshalOrdered serializes v preserving object key insertion order, with no
// indentation. Used where round-tripping the source document's shape
// matters more than canonical form (e.g. intermediate debug dumps).
func MarshalOrdered(v *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, false, "", ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalCanonical serializes v with object keys sorted and 4-space
// indentation, matching the reference serializer byte-for-byte.
func MarshalCanonical(v *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, true, "", "    "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v *Value, sortKeys bool, curIndent, step string) error {
	if v == nil || v.IsNull() {
		buf.WriteString("null")
		return nil
	}
	switch v.kind {
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(formatNumber(v.n))
	case KindString:
		enc, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindArray:
		return writeArray(buf, v.arr, sortKeys, curIndent, step)
	case KindObject:
		return writeObject(buf, v.obj, sortKeys, curIndent, step)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, a *Array, sortKeys bool, curIndent, step string) error {
	if a.Len() == 0 {
		buf.WriteString("[]")
		return nil
	}
	nextIndent := curIndent + step
	buf.WriteByte('[')
	for i, item := range a.Items() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if step != "" {
			buf.WriteByte('\n')
			buf.WriteString(nextIndent)
		}
		if err := writeValue(buf, item, sortKeys, nextIndent, step); err != nil {
			return err
		}
	}
	if step != "" {
		buf.WriteByte('\n')
		buf.WriteString(curIndent)
	}
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, o *Object, sortKeys bool, curIndent, step string) error {
	if o.Len() == 0 {
		buf.WriteString("{}")
		return nil
	}
	keys := append([]string(nil), o.Keys()...)
	if sortKeys {
		sort.Strings(keys)
	}
	nextIndent := curIndent + step
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if step != "" {
			buf.WriteByte('\n')
			buf.WriteString(nextIndent)
		}
		keyEnc, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(keyEnc)
		buf.WriteByte(':')
		if step != "" {
			buf.WriteByte(' ')
		}
		val, _ := o.Get(k)
		if err := writeValue(buf, val, sortKeys, nextIndent, step); err != nil {
			return err
		}
	}
	if step != "" {
		buf.WriteByte('\n')
		buf.WriteString(curIndent)
	}
	buf.WriteByte('}')
	return nil
}

// formatNumber writes non-integral values in strconv's shortest 'g' form
// (exponent notation below 1e-4 and from 1e6 up) and collapses integral
// values to their plain integer form (42, not 42.0) since the wire
// format the orchestrator expects treats "instances": 3 and "instances": 3.0
// differently in some deployments.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseReader is a convenience wrapper around Parse for io.Reader sources.
func ParseReader(r io.Reader) (*Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
