package jsonval

// Object is an ordered string-keyed mapping to *Value. Insertion order is
// preserved across Set calls so a value loaded from disk and merged keeps the
// shape an operator would recognize, even though the canonical serializer
// re-sorts keys on output.
type Object struct {
	keys []string
	vals map[string]*Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]*Value)}
}

// Get returns the value at key and whether it was present.
func (o *Object) Get(key string) (*Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set inserts or overwrites key, appending it to the key order the first
// time it is seen.
func (o *Object) Set(key string, v *Value) {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key, preserving the relative order of the rest.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order. The returned slice must not be
// mutated by the caller.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone performs a deep copy, preserving key order.
func (o *Object) Clone() *Object {
	if o == nil {
		return NewObject()
	}
	cp := NewObject()
	for _, k := range o.keys {
		cp.Set(k, o.vals[k].Clone())
	}
	return cp
}

// Equal reports deep, order-independent equality (two objects with the same
// keys and values in different insertion order are equal).
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for _, k := range o.Keys() {
		ov, ok := other.Get(k)
		if !ok {
			return false
		}
		if !Equal(o.vals[k], ov) {
			return false
		}
	}
	return true
}
