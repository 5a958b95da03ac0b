// Package diff implements the diff engine (§4.6): deciding whether a desired
// application equals, scales, or updates an observed one, with the port
// fields' dynamic-assignment special case.
package diff

import (
	"strconv"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

const (
	keyPorts           = "ports"
	keyPortDefinitions = "portDefinitions"
	keyInstances       = "instances"
	keyPort            = "port"
)

// IsPortUpdate reports whether desired and observed differ in their port
// surface. A 0 in desired.ports means "assign dynamically" and never counts
// as a diff against whatever the orchestrator assigned.
func IsPortUpdate(desired, observed *jsonval.Object) bool {
	return portsDiffer(desired, observed) || portDefinitionsDiffer(desired, observed)
}

func portsDiffer(desired, observed *jsonval.Object) bool {
	dVal, dOK := desired.Get(keyPorts)
	oVal, oOK := observed.Get(keyPorts)
	if dOK != oOK {
		return true
	}
	if !dOK {
		return false
	}
	dArr, _ := dVal.AsArray()
	oArr, _ := oVal.AsArray()
	if dArr.Len() != oArr.Len() {
		return true
	}
	for i := 0; i < dArr.Len(); i++ {
		dn, _ := dArr.Get(i).AsNumber()
		on, _ := oArr.Get(i).AsNumber()
		if dn != on && dn != 0 {
			return true
		}
	}
	return false
}

func portDefinitionsDiffer(desired, observed *jsonval.Object) bool {
	dVal, dOK := desired.Get(keyPortDefinitions)
	oVal, oOK := observed.Get(keyPortDefinitions)
	if dOK != oOK {
		return true
	}
	if !dOK {
		return false
	}
	dArr, _ := dVal.AsArray()
	oArr, _ := oVal.AsArray()
	if dArr.Len() != oArr.Len() {
		return true
	}
	for i := 0; i < dArr.Len(); i++ {
		dObj, dIsObj := dArr.Get(i).AsObject()
		oObj, oIsObj := oArr.Get(i).AsObject()
		if !dIsObj || !oIsObj {
			if !jsonval.Equal(dArr.Get(i), oArr.Get(i)) {
				return true
			}
			continue
		}

		candidate := dObj.Clone()
		if dPort, ok := dObj.Get(keyPort); ok {
			if n, isNum := dPort.AsNumber(); isNum && n == 0 {
				if oPort, ok := oObj.Get(keyPort); ok {
					candidate.Set(keyPort, oPort.Clone())
				}
			}
		}

		combined := Combine(oObj, candidate)
		if !combined.Equal(oObj) {
			return true
		}
	}
	return false
}

// IsUpdate reports whether any non-port field differs between desired and
// observed.
func IsUpdate(desired, observed *jsonval.Object) bool {
	if IsPortUpdate(desired, observed) {
		return true
	}
	stripped := desired.Clone()
	stripped.Delete(keyPorts)
	stripped.Delete(keyPortDefinitions)

	combined := Combine(observed, stripped)
	return !combined.Equal(observed)
}

// Combine deep-overlays src onto a copy of dst: for every key of src, nested
// objects recurse, lists of equal length combine pairwise (recursing into
// matching dict/list pairs, otherwise taking src's element), lists of
// differing length are replaced wholesale by src's list, and scalars take
// src. Keys present only in dst are preserved.
func Combine(dst, src *jsonval.Object) *jsonval.Object {
	result := dst.Clone()
	for _, k := range src.Keys() {
		srcVal, _ := src.Get(k)
		dstVal, existed := result.Get(k)
		if !existed {
			result.Set(k, srcVal.Clone())
			continue
		}
		result.Set(k, combineValue(dstVal, srcVal))
	}
	return result
}

func combineValue(dst, src *jsonval.Value) *jsonval.Value {
	dstObj, dstIsObj := dst.AsObject()
	srcObj, srcIsObj := src.AsObject()
	if dstIsObj && srcIsObj {
		return jsonval.FromObject(Combine(dstObj, srcObj))
	}

	dstArr, dstIsArr := dst.AsArray()
	srcArr, srcIsArr := src.AsArray()
	if dstIsArr && srcIsArr {
		if dstArr.Len() != srcArr.Len() {
			return src.Clone()
		}
		out := jsonval.NewArray()
		for i := 0; i < dstArr.Len(); i++ {
			out.Append(combineValue(dstArr.Get(i), srcArr.Get(i)))
		}
		return jsonval.FromArray(out)
	}

	return src.Clone()
}

// IsScaleOnlyUpdate reports whether desired differs from observed exclusively
// in "instances".
func IsScaleOnlyUpdate(desired, observed *jsonval.Object) bool {
	dInstances, ok := numberOf(desired, keyInstances)
	if !ok {
		return false
	}
	oInstances, ok := numberOf(observed, keyInstances)
	if !ok {
		return false
	}
	if dInstances == oInstances {
		return false
	}

	adjusted := desired.Clone()
	adjusted.Set(keyInstances, jsonval.Number(oInstances))
	return !IsUpdate(adjusted, observed)
}

// numberOf reads a numeric field that may be encoded as a JSON number or as
// a numeric string, as the orchestrator's wire payload allows for instances.
func numberOf(o *jsonval.Object, key string) (float64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	if n, ok := v.AsNumber(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
