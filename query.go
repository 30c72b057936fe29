package lintchecks

import (
	"fmt"
	"sort"

	"github.com/bmv-2143/lintchecks/internal/checks"
	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/store"
)

// QueryBuilder reads stored runs and the type index of the last run.
type QueryBuilder struct {
	store *store.Store
}

// LatestRun returns the most recent finished run, or nil.
func (q *QueryBuilder) LatestRun() (*Run, error) {
	return q.store.LatestRun()
}

// Run returns a run by ID, or nil.
func (q *QueryBuilder) Run(id int64) (*Run, error) {
	return q.store.RunByID(id)
}

// Diagnostics returns the stored diagnostics of a run.
func (q *QueryBuilder) Diagnostics(runID int64, filter DiagnosticFilter) ([]Diagnostic, error) {
	rows, err := q.store.DiagnosticsByRun(runID, filter)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	out := make([]Diagnostic, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromStored(r))
	}
	return out, nil
}

// RuleCounts returns the number of diagnostics per rule for a run.
func (q *QueryBuilder) RuleCounts(runID int64) (map[string]int, error) {
	return q.store.RuleCounts(runID)
}

// TypesNamed returns the indexed types with the given simple name.
func (q *QueryBuilder) TypesNamed(name string) ([]*Type, error) {
	return q.store.TypesByName(name)
}

// Ancestors returns every supertype reachable from qn, nearest first.
// Only types indexed by the last run contribute edges.
func (q *QueryBuilder) Ancestors(qn string) ([]string, error) {
	var (
		out     []string
		visited = map[string]bool{qn: true}
		queue   = []string{qn}
	)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sts, err := q.store.Supertypes(cur)
		if err != nil {
			return nil, fmt.Errorf("ancestors of %s: %w", qn, err)
		}
		for _, st := range sts {
			if visited[st] {
				continue
			}
			visited[st] = true
			out = append(out, st)
			queue = append(queue, st)
		}
	}
	return out, nil
}

// Subtypes returns the indexed types that directly extend qn.
func (q *QueryBuilder) Subtypes(qn string) ([]*Type, error) {
	return q.store.Subtypes(qn)
}

// Files returns the files recorded by the last run in path order. An empty
// kind lists every kind.
func (q *QueryBuilder) Files(kind string) ([]*File, error) {
	if kind != "" {
		return q.store.FilesByKind(kind)
	}
	var out []*File
	for _, k := range []string{KindKotlin, KindManifest, KindResource} {
		files, err := q.store.FilesByKind(k)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// File returns the file recorded under a project-relative path, or nil.
func (q *QueryBuilder) File(path string) (*File, error) {
	return q.store.FileByPath(path)
}

// TypesInFile returns the types a file declares in source order.
func (q *QueryBuilder) TypesInFile(fileID int64) ([]*Type, error) {
	return q.store.TypesByFile(fileID)
}

// TypeDetail is an indexed type with the data its supertypes were resolved
// from.
type TypeDetail struct {
	Type       *Type
	File       *File
	Supertypes []*Supertype // as written and as resolved, in declaration order
	Imports    []*Import    // of the declaring file
}

// Detail loads the file, supertypes and imports behind t.
func (q *QueryBuilder) Detail(t *Type) (*TypeDetail, error) {
	f, err := q.store.FileByID(t.FileID)
	if err != nil {
		return nil, err
	}
	sts, err := q.store.SupertypesByType(t.ID)
	if err != nil {
		return nil, err
	}
	imps, err := q.store.ImportsByFile(t.FileID)
	if err != nil {
		return nil, err
	}
	return &TypeDetail{Type: t, File: f, Supertypes: sts, Imports: imps}, nil
}

func toStored(diags []Diagnostic) []store.Diagnostic {
	out := make([]store.Diagnostic, len(diags))
	for i, d := range diags {
		sd := store.Diagnostic{
			RuleID:    d.RuleID,
			Severity:  string(d.Severity),
			Path:      d.Location.Path,
			StartLine: d.Location.StartLine,
			StartCol:  d.Location.StartCol,
			EndLine:   d.Location.EndLine,
			EndCol:    d.Location.EndCol,
			StartByte: d.Location.StartByte,
			EndByte:   d.Location.EndByte,
			Message:   d.Message,
		}
		if d.Fix != nil {
			sd.FixName = d.Fix.Name
			sd.FixOld = d.Fix.Old
			sd.FixNew = d.Fix.New
		}
		out[i] = sd
	}
	return out
}

// fromStored rebuilds a Diagnostic. A stored fix always covers the
// diagnostic's own location.
func fromStored(sd *store.Diagnostic) Diagnostic {
	loc := diag.Location{
		Path:      sd.Path,
		StartLine: sd.StartLine,
		StartCol:  sd.StartCol,
		EndLine:   sd.EndLine,
		EndCol:    sd.EndCol,
		StartByte: sd.StartByte,
		EndByte:   sd.EndByte,
	}
	d := Diagnostic{
		RuleID:   sd.RuleID,
		Severity: diag.Severity(sd.Severity),
		Location: loc,
		Message:  sd.Message,
	}
	if sd.FixName != "" {
		d.Fix = &diag.TextReplacement{Name: sd.FixName, Range: loc, Old: sd.FixOld, New: sd.FixNew}
	}
	return d
}

// Issues returns the registered issues sorted by ID.
func Issues() []*Issue {
	return checks.Issues()
}
