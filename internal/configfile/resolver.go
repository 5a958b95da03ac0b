// Package configfile implements the extend resolver (§4.2): loading a
// ConfigFile, following its "extends" link across a directory tree, and
// building the ordered ExtendStack that merge.FoldStack folds into one
// document.
package configfile

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/orchestrator-tools/deploy/internal/errs"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/merge"
)

// Extensions searched, in order, when resolving an "extends" target or when
// locating a config by bare name.
var searchExtensions = []string{".template", ".instance"}

// maxExtendDepth bounds the extends chain so a cycle (undetected, per §9)
// fails loudly instead of looping forever.
const maxExtendDepth = 32

const (
	reservedExtends = "extends"
	reservedChanges = "changes"
)

// ConfigFile is one loaded fragment: its full parsed document plus the
// reserved keys split out.
type ConfigFile struct {
	Name string // file name without extension
	Path string
	doc  *jsonval.Object
}

// Extends returns the value of the reserved "extends" key, if present.
func (c *ConfigFile) Extends() (string, bool) {
	v, ok := c.doc.Get(reservedExtends)
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	return s, ok
}

// Changes returns the value of the reserved "changes" key, if present.
func (c *ConfigFile) Changes() (*jsonval.Object, bool) {
	v, ok := c.doc.Get(reservedChanges)
	if !ok {
		return nil, false
	}
	return v.AsObject()
}

// Body returns the document with the reserved keys stripped, for use as a
// "whole layer" merge source.
func (c *ConfigFile) Body() *jsonval.Object {
	body := c.doc.Clone()
	body.Delete(reservedExtends)
	body.Delete(reservedChanges)
	return body
}

// Resolver walks a root directory to locate and load config files.
type Resolver struct {
	Root   string
	Strict bool // error on duplicate filenames anywhere under Root, instead of first-match-wins

	index map[string][]string // bare name -> candidate paths, in walk order
}

func NewResolver(root string, strict bool) *Resolver {
	return &Resolver{Root: root, Strict: strict}
}

// buildIndex walks Root once and records every *.template/*.instance file by
// its bare name (filename without extension). filepath.WalkDir visits
// directory entries in lexical order, which is the "OS-determined walk
// order" the first-match-wins policy relies on.
func (r *Resolver) buildIndex() error {
	if r.index != nil {
		return nil
	}
	index := make(map[string][]string)
	err := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".template" && ext != ".instance" {
			return nil
		}
		name := strings.TrimSuffix(filepath.Base(path), ext)
		index[name] = append(index[name], path)
		return nil
	})
	if err != nil {
		return errs.NewConfigError("resolve", err)
	}
	r.index = index
	return nil
}

// find locates the file for a bare config name, searching .template before
// .instance. In Strict mode, any name with more than one candidate path
// anywhere under Root is a ConfigError even if the caller only asked for one
// extension to match.
func (r *Resolver) find(name string) (string, error) {
	if err := r.buildIndex(); err != nil {
		return "", err
	}
	candidates, ok := r.index[name]
	if !ok || len(candidates) == 0 {
		return "", errs.Configf("resolve", "could not resolve config %q under %s", name, r.Root)
	}
	if r.Strict && len(candidates) > 1 {
		return "", errs.Configf("resolve", "ambiguous config name %q: matches %v", name, candidates)
	}
	for _, wantExt := range searchExtensions {
		for _, path := range candidates {
			if filepath.Ext(path) == wantExt {
				return path, nil
			}
		}
	}
	// Matches exist but none carry a recognized extension; fall back to the
	// first candidate found during the walk.
	return candidates[0], nil
}

// Load reads and parses a single config file from disk.
func (r *Resolver) Load(path string) (*ConfigFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	v, err := jsonval.Parse(data)
	if err != nil {
		return nil, errs.NewConfigError("resolve", err)
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, errs.Configf("resolve", "%s: top-level JSON value must be an object", path)
	}
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)
	return &ConfigFile{Name: name, Path: path, doc: obj}, nil
}

// ResolveChain loads the config at startPath and follows "extends" links
// until a file with no "extends" key is reached, returning the ordered
// ExtendStack [leaf, parent, grandparent, ...] that merge.FoldStack expects.
func (r *Resolver) ResolveChain(startPath string) ([]merge.Layer, error) {
	cur, err := r.Load(startPath)
	if err != nil {
		return nil, err
	}

	var stack []merge.Layer
	depth := 0
	for {
		layer := merge.Layer{Whole: cur.Body()}
		if changes, ok := cur.Changes(); ok {
			layer = merge.Layer{Changes: changes}
		}
		stack = append(stack, layer)

		extends, ok := cur.Extends()
		if !ok {
			return stack, nil
		}

		depth++
		if depth > maxExtendDepth {
			return nil, errs.Configf("resolve", "extends chain exceeds max depth %d (possible cycle at %q)", maxExtendDepth, extends)
		}

		path, err := r.find(extends)
		if err != nil {
			return nil, errs.Configf("resolve", "unresolved extends target %q from %s: %w", extends, cur.Path, err)
		}
		cur, err = r.Load(path)
		if err != nil {
			return nil, err
		}
	}
}

// ResolveByNameOrPath resolves startArg the way config-producer's CLI does:
// if it names an existing file, that file is the chain's leaf; otherwise it
// is looked up by bare name under Root.
func (r *Resolver) ResolveByNameOrPath(startArg string) ([]merge.Layer, error) {
	if fileExists(startArg) {
		return r.ResolveChain(startArg)
	}
	path, err := r.find(startArg)
	if err != nil {
		return nil, err
	}
	return r.ResolveChain(path)
}

// FindAllInstances returns every *.instance file under Root, in walk order,
// for group assembly (C5 consumes one merged document per instance).
func (r *Resolver) FindAllInstances() ([]string, error) {
	var out []string
	err := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".instance" {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewConfigError("resolve", err)
	}
	return out, nil
}
