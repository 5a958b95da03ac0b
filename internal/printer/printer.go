// Package printer renders deploy and delete progress as aligned tables,
// the way the teacher's internal/printer package aligns kind/name/namespace
// columns for status output.
package printer

import (
	"fmt"
	"io"

	"github.com/aquasecurity/table"
)

// Status is one row of deploy/delete progress.
type Status struct {
	AppID     string
	Desired   string
	Observed  string
	Healthy   string
	Note      string
}

// Printer renders Status rows to an underlying writer, one table per flush.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Render draws a single table snapshot of the given rows.
func (p *Printer) Render(rows []Status) {
	t := table.New(p.w)
	t.SetHeaders("APP", "DESIRED", "OBSERVED", "HEALTHY", "NOTE")
	for _, r := range rows {
		t.AddRow(r.AppID, r.Desired, r.Observed, r.Healthy, r.Note)
	}
	t.Render()
}

// Line prints a single free-form progress line, for events that don't
// warrant a full table redraw (e.g. "waiting for deployment to clear").
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// GroupDeleteRow is one row of the deepest-first group deletion trace.
type GroupDeleteRow struct {
	GroupID string
	Step    string // "emptied" or "deleted"
}

func (p *Printer) RenderGroupDelete(rows []GroupDeleteRow) {
	t := table.New(p.w)
	t.SetHeaders("GROUP", "STEP")
	for _, r := range rows {
		t.AddRow(r.GroupID, r.Step)
	}
	t.Render()
}
