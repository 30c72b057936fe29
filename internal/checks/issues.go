// Package checks implements the lint rules: GlobalScopeUsage over Kotlin
// sources and WrongColorUsage over XML resources.
package checks

import (
	"sort"

	"github.com/bmv-2143/lintchecks/internal/diag"
)

// GlobalScopeUsage flags references to kotlinx.coroutines.GlobalScope.
var GlobalScopeUsage = &diag.Issue{
	ID:    "GlobalScopeUsage",
	Brief: "Don't use GlobalScope for coroutines",
	Explanation: "Using GlobalScope can lead to coroutines that outlive the lifecycle of your app components, " +
		"potentially causing memory leaks and excessive resource usage. Prefer using a more appropriate scope " +
		"such as viewModelScope or lifecycleScope.",
	Category: diag.CategoryCorrectness,
	Priority: 6,
	Severity: diag.SeverityWarning,
}

// WrongColorUsage flags colors that bypass the palette.
var WrongColorUsage = &diag.Issue{
	ID:          "WrongColorUsage",
	Brief:       "Should use colors only from palette",
	Explanation: "All app colors should be taken from the color palette defined in `colors.xml`",
	Category:    diag.CategoryCorrectness,
	Priority:    3,
	Severity:    diag.SeverityWarning,
}

var registry = map[string]*diag.Issue{
	GlobalScopeUsage.ID: GlobalScopeUsage,
	WrongColorUsage.ID:  WrongColorUsage,
}

// Issues returns every registered issue sorted by ID.
func Issues() []*diag.Issue {
	out := make([]*diag.Issue, 0, len(registry))
	for _, issue := range registry {
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupIssue returns the issue registered under id.
func LookupIssue(id string) (*diag.Issue, bool) {
	issue, ok := registry[id]
	return issue, ok
}
