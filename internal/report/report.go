// Package report renders diagnostics as colored text, JSON or SARIF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/bmv-2143/lintchecks/internal/diag"
)

// Format is an output format name.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatSARIF:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be json, text, or sarif", s)
}

// Envelope is the top-level JSON document.
type Envelope struct {
	Command    string         `json:"command"`
	Results    []Diagnostic   `json:"results"`
	TotalCount int            `json:"total_count"`
	Counts     map[string]int `json:"counts,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Diagnostic is the JSON form of diag.Diagnostic.
type Diagnostic struct {
	RuleID    string `json:"rule_id"`
	Severity  string `json:"severity"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	Message   string `json:"message"`
	Fix       *Fix   `json:"fix,omitempty"`
}

// Fix is the JSON form of diag.TextReplacement.
type Fix struct {
	Name      string `json:"name"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
	Old       string `json:"old"`
	New       string `json:"new"`
}

func toJSON(d diag.Diagnostic) Diagnostic {
	out := Diagnostic{
		RuleID:    d.RuleID,
		Severity:  string(d.Severity),
		File:      d.Location.Path,
		StartLine: d.Location.StartLine,
		StartCol:  d.Location.StartCol,
		EndLine:   d.Location.EndLine,
		EndCol:    d.Location.EndCol,
		Message:   d.Message,
	}
	if d.Fix != nil {
		out.Fix = &Fix{
			Name:      d.Fix.Name,
			StartByte: d.Fix.Range.StartByte,
			EndByte:   d.Fix.Range.EndByte,
			Old:       d.Fix.Old,
			New:       d.Fix.New,
		}
	}
	return out
}

// Counts returns the number of diagnostics per rule.
func Counts(diags []diag.Diagnostic) map[string]int {
	counts := make(map[string]int)
	for _, d := range diags {
		counts[d.RuleID]++
	}
	return counts
}

// WriteJSON writes diags in an Envelope.
func WriteJSON(w io.Writer, command string, diags []diag.Diagnostic) error {
	env := Envelope{
		Command:    command,
		Results:    make([]Diagnostic, 0, len(diags)),
		TotalCount: len(diags),
		Counts:     Counts(diags),
	}
	for _, d := range diags {
		env.Results = append(env.Results, toJSON(d))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// TextOptions controls WriteText.
type TextOptions struct {
	Color bool
}

var (
	pathColor    = color.New(color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	ruleColor    = color.New(color.Faint)
	fixColor     = color.New(color.FgGreen)
)

func paint(c *color.Color, enabled bool, s string) string {
	if !enabled {
		return s
	}
	// Copy so enabling color here does not leak into other writers.
	cc := *c
	cc.EnableColor()
	return cc.Sprint(s)
}

// WriteText writes one "file:line:col: severity: message [rule]" line per
// diagnostic, followed by its fix and a per-rule summary.
func WriteText(w io.Writer, diags []diag.Diagnostic, opts TextOptions) {
	for _, d := range diags {
		sev := string(d.Severity)
		switch d.Severity {
		case diag.SeverityError:
			sev = paint(errorColor, opts.Color, sev)
		case diag.SeverityWarning:
			sev = paint(warningColor, opts.Color, sev)
		default:
			sev = paint(infoColor, opts.Color, sev)
		}
		fmt.Fprintf(w, "%s: %s: %s %s\n",
			paint(pathColor, opts.Color, d.Location.String()),
			sev,
			d.Message,
			paint(ruleColor, opts.Color, "["+d.RuleID+"]"),
		)
		if d.Fix != nil {
			fmt.Fprintf(w, "    %s\n", paint(fixColor, opts.Color, "fix: "+d.Fix.Name))
		}
	}

	if len(diags) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	counts := Counts(diags)
	rules := make([]string, 0, len(counts))
	for r := range counts {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = fmt.Sprintf("%s: %d", r, counts[r])
	}
	noun := "issues"
	if len(diags) == 1 {
		noun = "issue"
	}
	fmt.Fprintf(w, "\n%d %s (%s)\n", len(diags), noun, strings.Join(parts, ", "))
}
