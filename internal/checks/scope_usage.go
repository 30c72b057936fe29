package checks

import (
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bmv-2143/lintchecks/internal/ancestry"
	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/kotlin"
)

// GlobalScopeName is the identifier GlobalScopeUsage matches. Matching is
// textual, so a local declaration that shadows it is reported as well.
const GlobalScopeName = "GlobalScope"

// FixSuggestion is the replacement chosen for one reference.
type FixSuggestion struct {
	Replacement        string
	RequiredCapability string
}

// ScopeUsageDetector reports GlobalScope references as they are found and
// attaches a replacement when the enclosing class's ancestry and the
// project's capabilities allow one.
type ScopeUsageDetector struct {
	resolver *ancestry.Resolver
	kinds    []ancestry.ComponentKind
	sink     diag.Sink
	logger   *slog.Logger
}

// NewScopeUsageDetector creates a detector. kinds is evaluated in order.
func NewScopeUsageDetector(resolver *ancestry.Resolver, kinds []ancestry.ComponentKind, sink diag.Sink, logger *slog.Logger) *ScopeUsageDetector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScopeUsageDetector{resolver: resolver, kinds: kinds, sink: sink, logger: logger}
}

// Check reports every GlobalScope reference in f and returns how many were
// found.
func (d *ScopeUsageDetector) Check(f *kotlin.File) int {
	refs := f.References(GlobalScopeName)
	for _, ref := range refs {
		d.report(f, ref)
	}
	return len(refs)
}

func (d *ScopeUsageDetector) report(f *kotlin.File, ref *sitter.Node) {
	loc := f.Location(ref)
	var fix *diag.TextReplacement
	if s, ok := d.SuggestFix(f, ref); ok {
		fix = &diag.TextReplacement{
			Name:  "Replace with " + s.Replacement,
			Range: loc,
			Old:   f.Text(ref),
			New:   s.Replacement,
		}
	}
	d.sink.Report(diag.New(GlobalScopeUsage, loc, GlobalScopeUsage.Brief, fix))
}

// SuggestFix picks the replacement for a reference. The first component
// kind whose base type the enclosing class descends from decides; its
// capability must then be available. Any failure means no fix.
func (d *ScopeUsageDetector) SuggestFix(f *kotlin.File, ref *sitter.Node) (FixSuggestion, bool) {
	if d.resolver == nil {
		return FixSuggestion{}, false
	}
	td, ok := d.resolver.ResolveEnclosingType(f, ref)
	if !ok {
		return FixSuggestion{}, false
	}
	for _, kind := range d.kinds {
		descends, err := d.resolver.IsDescendantOf(td, kind.BaseType)
		if err != nil {
			d.logger.Warn("ancestry lookup failed", "type", td.QualifiedName, "base", kind.BaseType, "err", err)
			return FixSuggestion{}, false
		}
		if !descends {
			continue
		}
		if !d.resolver.HasCapability(kind.Capability) {
			return FixSuggestion{}, false
		}
		return FixSuggestion{Replacement: kind.Replacement, RequiredCapability: kind.Capability}, true
	}
	return FixSuggestion{}, false
}
