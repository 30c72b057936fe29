package lintchecks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmv-2143/lintchecks/internal/ancestry"
	"github.com/bmv-2143/lintchecks/internal/checks"
	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/kotlin"
	"github.com/bmv-2143/lintchecks/internal/manifest"
	"github.com/bmv-2143/lintchecks/internal/palette"
	"github.com/bmv-2143/lintchecks/internal/store"
)

// SkippedFile is a file the run could not analyze.
type SkippedFile struct {
	Path string
	Err  error
}

// Result summarizes one Check run.
type Result struct {
	RunID        int64
	Root         string
	Files        int
	Skipped      []SkippedFile
	Capabilities []string
	Diagnostics  []Diagnostic
	RulesChanged bool
	Elapsed      time.Duration
}

// Check analyzes the project at root and stores the run. Diagnostics are
// returned sorted by location with disabled rules removed.
//
// Pipeline:
//  1. Discover files and read build manifests for capabilities.
//  2. Record files, then parse code and resources on the worker pool.
//  3. Index declared types and their supertypes in the store.
//  4. Report GlobalScope references as each file is checked.
//  5. Commit color batches in path order, Finish, then cross-reference.
func (e *Engine) Check(ctx context.Context, root string) (*Result, error) {
	start := time.Now()
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: resolve root: %w", err)
	}

	rules, err := e.Rules(ctx)
	if err != nil {
		return nil, err
	}
	rulesChanged, err := e.RulesChanged(ctx)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: rules hash: %w", err)
	}

	files, err := e.discover(root)
	if err != nil {
		return nil, err
	}
	var manifests []string
	for _, f := range files {
		if f.kind == KindManifest {
			manifests = append(manifests, f.path)
		}
	}
	deps, err := manifest.Load(ctx, root, manifests)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: %w", err)
	}
	caps := ancestry.Union{deps, capabilitySet(e.extraCaps)}

	if err := e.store.Reset(); err != nil {
		return nil, fmt.Errorf("lintchecks: %w", err)
	}
	runID, err := e.store.BeginRun(root, start)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: %w", err)
	}

	items, err := e.prepareFiles(root, files, start)
	if err != nil {
		return nil, err
	}
	defer closeItems(items)

	parseStart := time.Now()
	if err := e.parseFiles(ctx, items); err != nil {
		return nil, fmt.Errorf("lintchecks: parse: %w", err)
	}
	e.logger.Debug("pass.timing", "pass", "parse", "files", len(items), "elapsed", time.Since(parseStart))

	res := &Result{
		RunID:        runID,
		Root:         root,
		Capabilities: declaredCapabilities(deps, e.extraCaps),
		RulesChanged: rulesChanged,
	}
	for _, item := range items {
		if item.err != nil {
			e.logger.Warn("skipping file", "path", item.path, "err", item.err)
			res.Skipped = append(res.Skipped, SkippedFile{Path: item.path, Err: item.err})
			continue
		}
		res.Files++
	}

	indexStart := time.Now()
	if err := e.indexTypes(items, rules); err != nil {
		return nil, err
	}
	e.logger.Debug("pass.timing", "pass", "index", "elapsed", time.Since(indexStart))

	collector := &diag.Collector{}
	if !e.disabled[checks.GlobalScopeUsage.ID] {
		scopeStart := time.Now()
		if err := e.checkScopeUsage(ctx, items, rules, caps, collector); err != nil {
			return nil, fmt.Errorf("lintchecks: %s: %w", checks.GlobalScopeUsage.ID, err)
		}
		e.logger.Debug("pass.timing", "pass", "kotlin", "elapsed", time.Since(scopeStart))
	}
	if !e.disabled[checks.WrongColorUsage.ID] {
		colorStart := time.Now()
		if err := e.checkColorUsage(items, collector); err != nil {
			return nil, fmt.Errorf("lintchecks: %s: %w", checks.WrongColorUsage.ID, err)
		}
		e.logger.Debug("pass.timing", "pass", "resources", "elapsed", time.Since(colorStart))
	}

	diags := diag.Filter(collector.Diagnostics(), e.disabled)
	diag.SortByLocation(diags)
	res.Diagnostics = diags

	if err := e.store.InsertDiagnostics(runID, toStored(diags)); err != nil {
		return nil, fmt.Errorf("lintchecks: %w", err)
	}
	if err := e.store.FinishRun(runID, time.Now(), res.Files, len(diags)); err != nil {
		return nil, fmt.Errorf("lintchecks: %w", err)
	}
	if err := e.store.SetMetadata(rulesHashKey, e.rulesHash); err != nil {
		return nil, fmt.Errorf("lintchecks: %w", err)
	}

	res.Elapsed = time.Since(start)
	e.logger.Info("check finished",
		"root", root, "files", res.Files, "skipped", len(res.Skipped),
		"diagnostics", len(diags), "elapsed", res.Elapsed)
	return res, nil
}

// indexTypes resolves the declarations of all parsed Kotlin files and
// commits them, one batch per file in path order.
func (e *Engine) indexTypes(items []*workItem, rules *ancestry.Rules) error {
	var (
		files  []*kotlin.File
		fileID = make(map[string]int64)
	)
	for _, item := range items {
		if item.kotlin != nil {
			files = append(files, item.kotlin)
			fileID[item.path] = item.fileID
		}
	}

	byPath := make(map[string][]ancestry.Declared)
	for _, d := range ancestry.Index(files, rules) {
		byPath[d.Path] = append(byPath[d.Path], d)
	}

	for _, f := range files {
		batch := store.NewBatchedStore()
		id := fileID[f.Path]
		for _, d := range byPath[f.Path] {
			typeID, err := batch.InsertType(&store.Type{
				FileID:        id,
				Name:          d.Name,
				QualifiedName: d.QualifiedName,
				Kind:          d.Kind,
				Line:          d.Line,
				Col:           d.Col,
			})
			if err != nil {
				return err
			}
			for i, resolved := range d.Supertypes {
				if _, err := batch.InsertSupertype(&store.Supertype{
					TypeID:       typeID,
					RawName:      d.Raw[i],
					ResolvedName: resolved,
					Ordinal:      i,
				}); err != nil {
					return err
				}
			}
		}
		for _, imp := range f.Imports {
			if _, err := batch.InsertImport(&store.Import{
				FileID:   id,
				Path:     imp.Path,
				Alias:    imp.Alias,
				Wildcard: imp.Wildcard,
			}); err != nil {
				return err
			}
		}
		if err := e.store.CommitBatch(batch); err != nil {
			return fmt.Errorf("lintchecks: commit %s: %w", f.Path, err)
		}
	}
	return nil
}

// checkScopeUsage runs the GlobalScope detector over every Kotlin file.
// Ancestry is answered by the stored index, falling back to the known
// framework supertypes.
func (e *Engine) checkScopeUsage(ctx context.Context, items []*workItem, rules *ancestry.Rules, caps ancestry.Capabilities, sink diag.Sink) error {
	hierarchy := ancestry.Layered{e.store, ancestry.MapHierarchy(rules.KnownSupertypes)}
	detector := checks.NewScopeUsageDetector(
		ancestry.NewResolver(hierarchy, caps),
		rules.ComponentKinds,
		sink,
		e.logger,
	)

	var kt []*kotlin.File
	for _, item := range items {
		if item.kotlin != nil {
			kt = append(kt, item.kotlin)
		}
	}
	return e.forEach(ctx, len(kt), func(_ context.Context, i int) error {
		if n := detector.Check(kt[i]); n > 0 {
			e.logger.Debug("GlobalScope references", "path", kt[i].Path, "count", n)
		}
		return nil
	})
}

// checkColorUsage commits the per-file color batches in path order, closes
// the first pass, and classifies every recorded usage against the palette.
func (e *Engine) checkColorUsage(items []*workItem, sink diag.Sink) error {
	idx := palette.New()
	scanner := checks.NewColorUsageScanner(idx)
	for _, item := range items {
		if item.colors == nil {
			continue
		}
		if err := scanner.Commit(item.colors); err != nil {
			return err
		}
	}
	usages, err := scanner.Finish()
	if err != nil {
		return err
	}
	n := checks.NewCrossReferenceReporter(sink).Report(usages, idx)
	e.logger.Debug("color usages classified", "usages", len(usages), "palette", idx.Len(), "reported", n)
	return nil
}

func capabilitySet(ids []string) ancestry.CapabilitySet {
	set := make(ancestry.CapabilitySet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// declaredCapabilities lists the modules declared in main configurations
// plus the extra ones, sorted and deduplicated.
func declaredCapabilities(deps *manifest.Dependencies, extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, d := range deps.List() {
		add(d.ID())
	}
	for _, id := range extra {
		add(id)
	}
	sort.Strings(out)
	return out
}
