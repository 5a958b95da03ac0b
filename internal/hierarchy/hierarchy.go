// Package hierarchy implements the hierarchy builder (§4.4): folding a flat
// list of application definitions into a nested Group tree keyed by
// "/"-separated ids.
package hierarchy

import (
	"strings"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

// Application is a rendered orchestrator application document. Doc carries
// every field the caller resolved (id, instances, ports, ...); ID and
// Dependencies are read from and written back into Doc so hierarchy
// rewriting (flatten) and downstream consumers (diff, deploy) see the same
// document.
type Application struct {
	Doc *jsonval.Object
}

func (a *Application) ID() string {
	v, ok := a.Doc.Get("id")
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

func (a *Application) SetID(id string) {
	a.Doc.Set("id", jsonval.String(id))
}

func (a *Application) Dependencies() []string {
	v, ok := a.Doc.Get("dependencies")
	if !ok {
		return nil
	}
	arr, ok := v.AsArray()
	if !ok {
		return nil
	}
	out := make([]string, 0, arr.Len())
	for _, item := range arr.Items() {
		s, _ := item.AsString()
		out = append(out, s)
	}
	return out
}

func (a *Application) SetDependencies(deps []string) {
	arr := jsonval.NewArray()
	for _, d := range deps {
		arr.Append(jsonval.String(d))
	}
	a.Doc.Set("dependencies", jsonval.FromArray(arr))
}

// Group is a namespace of applications and subgroups, keyed by a slash-path
// id at the root and by its own bare segment id below that.
type Group struct {
	ID     string
	Groups []*Group
	Apps   []*Application
}

func newGroup(id string) *Group {
	return &Group{ID: id}
}

func (g *Group) child(id string) *Group {
	for _, c := range g.Groups {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (g *Group) childOrCreate(id string) *Group {
	if c := g.child(id); c != nil {
		return c
	}
	c := newGroup(id)
	g.Groups = append(g.Groups, c)
	return c
}

// ReplaceSlashes replaces every '/' with '-' and strips a leading '-'.
func ReplaceSlashes(s string) string {
	r := strings.ReplaceAll(s, "/", "-")
	return strings.TrimPrefix(r, "-")
}

func nonEmptySegments(id string) []string {
	parts := strings.Split(id, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Build folds apps into a Group tree rooted at base. If flat is true, every
// application id (and its "dependencies" entries) is rewritten with
// ReplaceSlashes first and the tree collapses to a single level under base.
func Build(base string, apps []*Application, flat bool) *Group {
	root := newGroup(base)
	baseLen := len(nonEmptySegments(base))

	if flat {
		baseLen = 0
		for _, app := range apps {
			app.SetID(ReplaceSlashes(app.ID()))
			deps := app.Dependencies()
			if deps != nil {
				rewritten := make([]string, len(deps))
				for i, d := range deps {
					rewritten[i] = ReplaceSlashes(d)
				}
				app.SetDependencies(rewritten)
			}
		}
	}

	for _, app := range apps {
		segs := nonEmptySegments(app.ID())
		if baseLen <= len(segs) {
			segs = segs[baseLen:]
		} else {
			segs = nil
		}
		if len(segs) == 0 {
			continue
		}

		node := root
		for _, seg := range segs[:len(segs)-1] {
			node = node.childOrCreate(seg)
		}

		last := segs[len(segs)-1]
		if existing := node.child(last); existing != nil {
			// Current observable (arguably wrong, per §9) behavior: an
			// application whose id collides with an existing group id is
			// absorbed as a further descent rather than placed as a leaf.
			node = existing
			continue
		}
		node.Apps = append(node.Apps, app)
	}

	return root
}

// ToJSON renders g as the orchestrator-ready Group document: {id, groups,
// apps?}. "apps" is omitted entirely when the group has no leaf
// applications, per the Group invariant in the data model.
func (g *Group) ToJSON() *jsonval.Object {
	obj := jsonval.NewObject()
	obj.Set("id", jsonval.String(g.ID))

	groups := jsonval.NewArray()
	for _, c := range g.Groups {
		groups.Append(jsonval.FromObject(c.ToJSON()))
	}
	obj.Set("groups", jsonval.FromArray(groups))

	if len(g.Apps) > 0 {
		apps := jsonval.NewArray()
		for _, a := range g.Apps {
			apps.Append(jsonval.FromObject(a.Doc))
		}
		obj.Set("apps", jsonval.FromArray(apps))
	}

	return obj
}
