package checks

import (
	"fmt"

	"github.com/bmv-2143/lintchecks/internal/color"
	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/palette"
)

// CrossReferenceReporter classifies recorded color usages against the
// completed palette. It runs once per analysis, after every resource file
// has been scanned.
type CrossReferenceReporter struct {
	sink diag.Sink
}

// NewCrossReferenceReporter creates a reporter writing to sink.
func NewCrossReferenceReporter(sink diag.Sink) *CrossReferenceReporter {
	return &CrossReferenceReporter{sink: sink}
}

// Report emits one diagnostic per classifiable usage, in usage order, and
// returns how many were emitted.
func (r *CrossReferenceReporter) Report(usages []ColorUsage, idx *palette.Index) int {
	n := 0
	for _, u := range usages {
		if d, ok := Classify(u, idx); ok {
			r.sink.Report(d)
			n++
		}
	}
	return n
}

// Classify builds the diagnostic for one usage. System references are
// never looked up in the palette.
func Classify(u ColorUsage, idx *palette.Index) (diag.Diagnostic, bool) {
	switch {
	case color.IsLiteral(u.RawValue):
		canonical, _ := color.Normalize(u.RawValue)
		name, found := idx.Lookup(canonical)
		if !found {
			msg := fmt.Sprintf("Using raw color %s, which is not in the palette. Add it to the palette or use an existing color.", u.RawValue)
			return diag.New(WrongColorUsage, u.Location, msg, nil), true
		}
		ref := color.PaletteReference(name)
		msg := fmt.Sprintf("Color %s is in palette. Don't hardcode colors, use palette references: %s", u.RawValue, ref)
		fix := &diag.TextReplacement{
			Name:  "Replace with " + ref,
			Range: u.Location,
			Old:   u.Source,
			New:   ref,
		}
		return diag.New(WrongColorUsage, u.Location, msg, fix), true
	case color.IsSystemReference(u.RawValue):
		msg := fmt.Sprintf("System color %s is used. Add the corresponding color to the palette or use an existing one.", u.RawValue)
		return diag.New(WrongColorUsage, u.Location, msg, nil), true
	}
	return diag.Diagnostic{}, false
}
