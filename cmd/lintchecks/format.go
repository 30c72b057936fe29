package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/bmv-2143/lintchecks"
	"github.com/bmv-2143/lintchecks/internal/report"
)

// format returns the validated --format value.
func format() report.Format {
	f, err := report.ParseFormat(flagFormat)
	if err != nil {
		return report.FormatText
	}
	return f
}

// outputDiagnostics writes diags to stdout in the selected format.
func outputDiagnostics(command string, diags []lintchecks.Diagnostic) error {
	switch format() {
	case report.FormatJSON:
		return report.WriteJSON(os.Stdout, command, diags)
	case report.FormatSARIF:
		return report.WriteSARIF(os.Stdout, lintchecks.Version, lintchecks.Issues(), diags)
	default:
		report.WriteText(os.Stdout, diags, report.TextOptions{Color: !color.NoColor})
		return nil
	}
}

// outputResult writes a non-diagnostic result. SARIF only describes
// diagnostics, so it falls back to JSON here.
func outputResult(result CLIResult) error {
	if format() == report.FormatText {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError reports err in the selected format and marks it handled.
func outputError(command string, err error) error {
	errorHandled = true
	if format() == report.FormatText {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report.Envelope{Command: command, Results: []report.Diagnostic{}, Error: err.Error()})
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIRule:
		formatRulesText(w, v)
	case []CLIHierarchy:
		formatHierarchyText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatRulesText formats CLIRule results as aligned columns.
func formatRulesText(w io.Writer, rules []CLIRule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tPRIORITY\tDESCRIPTION")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Severity, r.Priority, r.Brief)
	}
	tw.Flush()
}

func formatHierarchyText(w io.Writer, hs []CLIHierarchy) {
	for i, h := range hs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s (%s:%d)\n", h.Type.Kind, h.Type.QualifiedName, h.File, h.Type.Line)
		for _, st := range h.Supertypes {
			if st.Raw == st.Resolved {
				fmt.Fprintf(w, "  supertype: %s\n", st.Resolved)
			} else {
				fmt.Fprintf(w, "  supertype: %s (as %s)\n", st.Resolved, st.Raw)
			}
		}
		if len(h.Ancestors) > 0 {
			fmt.Fprintf(w, "  extends: %s\n", strings.Join(h.Ancestors, " -> "))
		}
		for _, s := range h.Subtypes {
			fmt.Fprintf(w, "  subtype: %s\n", s.QualifiedName)
		}
	}
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tLINES\tTYPES")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Path, f.Kind, f.LineCount, strings.Join(f.Types, ", "))
	}
	tw.Flush()
}
