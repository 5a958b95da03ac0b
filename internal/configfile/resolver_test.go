package configfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/merge"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveChainFollowsExtends(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.template", `{"a":1,"b":{"c":2,"d":3}}`)
	leaf := writeFile(t, dir, "app.instance", `{"extends":"base","changes":{"b":{"c":4}}}`)

	r := NewResolver(dir, false)
	stack, err := r.ResolveChain(leaf)
	require.NoError(t, err)
	require.Len(t, stack, 2)

	merged, err := merge.FoldStack(stack)
	require.NoError(t, err)
	got, err := jsonval.MarshalCanonical(jsonval.FromObject(merged))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":{"c":4,"d":3}}`, string(got))
}

func TestResolveChainUnresolvedExtendsIsFatal(t *testing.T) {
	dir := t.TempDir()
	leaf := writeFile(t, dir, "app.instance", `{"extends":"missing"}`)

	r := NewResolver(dir, false)
	_, err := r.ResolveChain(leaf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestResolveChainDepthCap(t *testing.T) {
	dir := t.TempDir()
	// Build a cycle: a -> b -> a.
	writeFile(t, dir, "a.template", `{"extends":"b"}`)
	leaf := writeFile(t, dir, "b.template", `{"extends":"a"}`)

	r := NewResolver(dir, false)
	_, err := r.ResolveChain(leaf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max depth")
}

func TestFindPrefersTemplateOverInstance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.instance", `{"x":1}`)
	writeFile(t, dir, "shared.template", `{"x":2}`)

	r := NewResolver(dir, false)
	path, err := r.find("shared")
	require.NoError(t, err)
	assert.Equal(t, ".template", filepath.Ext(path))
}

func TestStrictModeRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub1/dup.instance", `{"x":1}`)
	writeFile(t, dir, "sub2/dup.instance", `{"x":2}`)

	r := NewResolver(dir, true)
	_, err := r.find("dup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestNonStrictModeFirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub1/dup.instance", `{"x":1}`)
	writeFile(t, dir, "sub2/dup.instance", `{"x":2}`)

	r := NewResolver(dir, false)
	path, err := r.find("dup")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub1", "dup.instance"), path)
}

func TestFindAllInstances(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.instance", `{}`)
	writeFile(t, dir, "sub/b.instance", `{}`)
	writeFile(t, dir, "c.template", `{}`)

	r := NewResolver(dir, false)
	files, err := r.FindAllInstances()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestResolveByNameOrPathAcceptsDirectPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "standalone.instance", `{"id":"/app"}`)

	r := NewResolver(dir, false)
	stack, err := r.ResolveByNameOrPath(path)
	require.NoError(t, err)
	require.Len(t, stack, 1)
}
