package jsonval

import "fmt"

// FromGo builds a Value tree out of plain Go values (nil, bool, float64/int,
// string, []any, map[string]any), in the order map iteration gives them for
// maps — callers that need deterministic order should build the Object
// directly instead. No code in this module calls it at present.
func FromGo(v any) *Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case string:
		return String(t)
	case []any:
		arr := NewArray()
		for _, item := range t {
			arr.Append(FromGo(item))
		}
		return FromArray(arr)
	case map[string]any:
		obj := NewObject()
		for k, item := range t {
			obj.Set(k, FromGo(item))
		}
		return FromObject(obj)
	default:
		panic(fmt.Sprintf("jsonval: FromGo: unsupported type %T", v))
	}
}

// ToGo converts a Value tree back into plain Go values for interop with
// libraries that expect map[string]any / []any (e.g. json.Marshal callers
// outside this package).
func ToGo(v *Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, v.arr.Len())
		for i, item := range v.arr.Items() {
			out[i] = ToGo(item)
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.Keys() {
			item, _ := v.obj.Get(k)
			out[k] = ToGo(item)
		}
		return out
	default:
		return nil
	}
}
