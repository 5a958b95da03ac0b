// Package merge implements the deep-merge-with-override semantics used to
// fold an extend chain of JSON fragments into one document (§4.1 of the
// specification this toolchain implements).
package merge

import (
	"github.com/orchestrator-tools/deploy/internal/errs"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

// Merge deep-merges src into dest and returns a fresh object: dest is the
// base, src overrides. Keys present only in dest are preserved; keys present
// only in src are copied; keys present in both recurse when both sides are
// objects or both are arrays, otherwise src wins outright.
func Merge(src, dest *jsonval.Object) (*jsonval.Object, error) {
	result := dest.Clone()
	for _, k := range src.Keys() {
		srcVal, _ := src.Get(k)
		destVal, existed := result.Get(k)

		if !existed {
			result.Set(k, srcVal.Clone())
			continue
		}

		srcObj, srcIsObj := srcVal.AsObject()
		destObj, destIsObj := destVal.AsObject()
		if srcIsObj && destIsObj {
			merged, err := Merge(srcObj, destObj)
			if err != nil {
				return nil, err
			}
			result.Set(k, jsonval.FromObject(merged))
			continue
		}

		srcArr, srcIsArr := srcVal.AsArray()
		destArr, destIsArr := destVal.AsArray()
		if srcIsArr && destIsArr {
			merged, err := mergeListsArrays(srcArr, destArr)
			if err != nil {
				return nil, err
			}
			result.Set(k, jsonval.FromArray(merged))
			continue
		}

		result.Set(k, srcVal.Clone())
	}
	return result, nil
}

// MergeLists implements merge_lists over two JSON values. Both operands must
// be arrays; anything else is a fatal ConfigError, matching the reference
// behavior of raising on a non-array merge_lists call.
func MergeLists(src, dest *jsonval.Value) (*jsonval.Array, error) {
	srcArr, ok := src.AsArray()
	if !ok {
		return nil, errs.Configf("merge_lists", "src is not an array (kind=%s)", src.Kind())
	}
	destArr, ok := dest.AsArray()
	if !ok {
		return nil, errs.Configf("merge_lists", "dest is not an array (kind=%s)", dest.Kind())
	}
	return mergeListsArrays(srcArr, destArr)
}

// mergeListsArrays is the typed core of MergeLists: dest is copied, then each
// element of src either overrides a matched dest element's "value" field
// (the {override: k, k: match, value: new} convention) or is appended unless
// an element structurally equal to it is already present. The result's
// length is always >= len(dest).
func mergeListsArrays(src, dest *jsonval.Array) (*jsonval.Array, error) {
	result := dest.Clone()

	for _, e := range src.Items() {
		if overrideKey, ok := overrideKeyOf(e); ok {
			applied, err := applyOverride(result, e, overrideKey)
			if err != nil {
				return nil, err
			}
			if !applied {
				// No match: the source element is silently discarded, per
				// the documented (if questionable) current behavior.
				continue
			}
			continue
		}

		if !containsStructurally(result, e) {
			result.Append(e.Clone())
		}
	}

	return result, nil
}

// overrideKeyOf returns the value of e["override"] and true if e is an
// object carrying an "override" key.
func overrideKeyOf(e *jsonval.Value) (string, bool) {
	obj, ok := e.AsObject()
	if !ok {
		return "", false
	}
	ov, ok := obj.Get("override")
	if !ok {
		return "", false
	}
	s, ok := ov.AsString()
	return s, ok
}

// applyOverride finds the first element of dest (an object with key
// overrideKey whose value equals e[overrideKey]) and sets its "value" field
// to e["value"]. Returns applied=false if no match was found.
func applyOverride(dest *jsonval.Array, e *jsonval.Value, overrideKey string) (bool, error) {
	eObj, _ := e.AsObject()
	eMatch, ok := eObj.Get(overrideKey)
	if !ok {
		return false, errs.Configf("merge_lists", "override entry missing key %q to match on", overrideKey)
	}

	for _, d := range dest.Items() {
		dObj, ok := d.AsObject()
		if !ok {
			continue
		}
		dMatch, ok := dObj.Get(overrideKey)
		if !ok {
			continue
		}
		if !jsonval.Equal(dMatch, eMatch) {
			continue
		}

		newVal, ok := eObj.Get("value")
		if !ok {
			return false, errs.Configf("merge_lists", "override entry for %q=%v has no \"value\"", overrideKey, jsonval.ToGo(eMatch))
		}
		if _, ok := dObj.Get("value"); !ok {
			return false, errs.Configf("merge_lists", "matched element for %q=%v has no \"value\" to override", overrideKey, jsonval.ToGo(eMatch))
		}
		dObj.Set("value", newVal.Clone())
		return true, nil
	}
	return false, nil
}

func containsStructurally(arr *jsonval.Array, v *jsonval.Value) bool {
	for _, item := range arr.Items() {
		if jsonval.Equal(item, v) {
			return true
		}
	}
	return false
}

// Layer is one element of an extend stack: either a full document (Whole) or
// a partial override document under the reserved "changes" key.
type Layer struct {
	Changes *jsonval.Object // non-nil if this layer had a "changes" key
	Whole   *jsonval.Object // the full loaded document, sans reserved keys
}

// FoldStack folds an extend stack deepest-ancestor-first into one merged
// object, per fold_stack: acc starts empty, and each layer (from the last
// element of stack to the first, i.e. from the root ancestor down to the
// leaf) is merged on top of the accumulator using its "changes" payload when
// present, or the whole layer otherwise.
func FoldStack(stack []Layer) (*jsonval.Object, error) {
	acc := jsonval.NewObject()
	for i := len(stack) - 1; i >= 0; i-- {
		layer := stack[i]
		src := layer.Whole
		if layer.Changes != nil {
			src = layer.Changes
		}
		merged, err := Merge(src, acc)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}
