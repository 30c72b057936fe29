// Package diag defines the issues lintchecks reports and the diagnostics it
// emits for them.
package diag

import (
	"fmt"
	"sort"
	"sync"
)

// Severity mirrors the Android lint severity levels that the rules use.
type Severity string

const (
	SeverityInformational Severity = "informational"
	SeverityWarning       Severity = "warning"
	SeverityError         Severity = "error"
)

// Category groups issues in reports.
type Category string

const (
	CategoryCorrectness Category = "Correctness"
)

// Issue is the static description of a rule.
type Issue struct {
	ID          string
	Brief       string
	Explanation string
	Category    Category
	Priority    int
	Severity    Severity
}

// Location is a source range. Lines and columns are 1-based; byte offsets
// are 0-based and half-open.
type Location struct {
	Path      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	StartByte int
	EndByte   int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.StartLine, l.StartCol)
}

// TextReplacement replaces the text in Range with New. Old is the text the
// replacement expects to find there.
type TextReplacement struct {
	Name  string
	Range Location
	Old   string
	New   string
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Location Location
	Message  string
	Fix      *TextReplacement
}

// Sink receives diagnostics as rules report them.
type Sink interface {
	Report(d Diagnostic)
}

// New builds a Diagnostic for issue at loc.
func New(issue *Issue, loc Location, message string, fix *TextReplacement) Diagnostic {
	return Diagnostic{
		RuleID:   issue.ID,
		Severity: issue.Severity,
		Location: loc,
		Message:  message,
		Fix:      fix,
	}
}

// Collector is a Sink that keeps diagnostics in report order. It is safe
// for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Len returns the number of diagnostics reported so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// SortByLocation orders diagnostics by path, then position, then rule.
// The sort is stable so diagnostics at the same position keep report order.
func SortByLocation(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Location, diags[j].Location
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		return diags[i].RuleID < diags[j].RuleID
	})
}

// Filter returns the diagnostics whose rule is not in disabled.
func Filter(diags []Diagnostic, disabled map[string]bool) []Diagnostic {
	if len(disabled) == 0 {
		return diags
	}
	out := diags[:0:0]
	for _, d := range diags {
		if !disabled[d.RuleID] {
			out = append(out, d)
		}
	}
	return out
}
