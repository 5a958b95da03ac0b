package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

func obj(t *testing.T, src string) *jsonval.Object {
	t.Helper()
	v, err := jsonval.Parse([]byte(src))
	require.NoError(t, err)
	o, ok := v.AsObject()
	require.True(t, ok)
	return o
}

func assertJSONEq(t *testing.T, want string, o *jsonval.Object) {
	t.Helper()
	got, err := jsonval.MarshalCanonical(jsonval.FromObject(o))
	require.NoError(t, err)
	assert.JSONEq(t, want, string(got))
}

// S1: simple merge.
func TestMergeS1SimpleMerge(t *testing.T) {
	src := obj(t, `{"a":1,"b":3,"c":3}`)
	dest := obj(t, `{"a":1,"b":2,"d":4}`)

	merged, err := Merge(src, dest)
	require.NoError(t, err)
	assertJSONEq(t, `{"a":1,"b":3,"c":3,"d":4}`, merged)
}

// S2: changes layering via FoldStack.
func TestMergeS2ChangesLayering(t *testing.T) {
	stack := []Layer{
		{Changes: obj(t, `{"b":{"c":4}}`)},
		{Whole: obj(t, `{"a":1,"b":{"c":2,"d":3}}`)},
	}

	merged, err := FoldStack(stack)
	require.NoError(t, err)
	assertJSONEq(t, `{"a":1,"b":{"c":4,"d":3}}`, merged)
}

// S4: list override.
func TestMergeS4ListOverride(t *testing.T) {
	src := obj(t, `{"a":[{"key":"key1","value":"blah","override":"key"},{"key":"key3","value":"value3"}]}`)
	dest := obj(t, `{"a":[{"key":"key1","value":"value1"},{"key":"key2","value":"value2"}]}`)

	merged, err := Merge(src, dest)
	require.NoError(t, err)
	assertJSONEq(t, `{"a":[{"key":"key1","value":"blah"},{"key":"key2","value":"value2"},{"key":"key3","value":"value3"}]}`, merged)
}

// Law 1: merge(a, {}) == a; merge({}, b) == b.
func TestMergeIdentityLaws(t *testing.T) {
	a := obj(t, `{"x":1,"y":{"z":2}}`)
	empty := jsonval.NewObject()

	mergedA, err := Merge(a, empty)
	require.NoError(t, err)
	assertJSONEq(t, `{"x":1,"y":{"z":2}}`, mergedA)

	b := obj(t, `{"p":9}`)
	mergedB, err := Merge(empty, b)
	require.NoError(t, err)
	assertJSONEq(t, `{"p":9}`, mergedB)
}

// Law 2: right-biased on scalar collisions.
func TestMergeRightBiasedOnScalars(t *testing.T) {
	src := obj(t, `{"a":"src-a","b":"src-b"}`)
	dest := obj(t, `{"a":"dest-a","b":"dest-b"}`)

	merged, err := Merge(src, dest)
	require.NoError(t, err)
	for _, k := range []string{"a", "b"} {
		got, _ := merged.Get(k)
		want, _ := src.Get(k)
		assert.True(t, jsonval.Equal(got, want))
	}
}

// Law 3: fold_stack([x]) == x (sans extends/changes own semantics).
func TestMergeFoldStackSingletonIsLeaf(t *testing.T) {
	leaf := obj(t, `{"id":"app1","instances":2}`)
	merged, err := FoldStack([]Layer{{Whole: leaf}})
	require.NoError(t, err)
	assertJSONEq(t, `{"id":"app1","instances":2}`, merged)
}

// Law 4: merge_lists never shortens the destination.
func TestMergeListsNeverShortensDest(t *testing.T) {
	destVal, err := jsonval.Parse([]byte(`[1,2,3]`))
	require.NoError(t, err)
	srcVal, err := jsonval.Parse([]byte(`[1]`))
	require.NoError(t, err)

	merged, err := MergeLists(srcVal, destVal)
	require.NoError(t, err)
	destArr, _ := destVal.AsArray()
	assert.GreaterOrEqual(t, merged.Len(), destArr.Len())
}

func TestMergeListsOverrideMissingValueIsConfigError(t *testing.T) {
	destVal, err := jsonval.Parse([]byte(`[{"key":"k1","value":"v1"}]`))
	require.NoError(t, err)
	srcVal, err := jsonval.Parse([]byte(`[{"key":"k1","override":"key"}]`))
	require.NoError(t, err)

	_, err = MergeLists(srcVal, destVal)
	assert.Error(t, err)
}

func TestMergeListsOverrideWithNoMatchIsDropped(t *testing.T) {
	destVal, err := jsonval.Parse([]byte(`[{"key":"k1","value":"v1"}]`))
	require.NoError(t, err)
	srcVal, err := jsonval.Parse([]byte(`[{"key":"nope","override":"key","value":"new"}]`))
	require.NoError(t, err)

	merged, err := MergeLists(srcVal, destVal)
	require.NoError(t, err)
	assert.Equal(t, 1, merged.Len())
}

func TestMergeListsNonArrayIsConfigError(t *testing.T) {
	notArray := jsonval.String("nope")
	arr, err := jsonval.Parse([]byte(`[1,2]`))
	require.NoError(t, err)

	_, err = MergeLists(notArray, arr)
	assert.Error(t, err)

	_, err = MergeLists(arr, notArray)
	assert.Error(t, err)
}

func TestMergePreservesDestOnlyKeys(t *testing.T) {
	src := obj(t, `{"a":1}`)
	dest := obj(t, `{"a":0,"keep":"me"}`)
	merged, err := Merge(src, dest)
	require.NoError(t, err)
	v, ok := merged.Get("keep")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "me", s)
}
