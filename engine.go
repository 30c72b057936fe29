package lintchecks

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmv-2143/lintchecks/internal/ancestry"
	"github.com/bmv-2143/lintchecks/internal/checks"
	"github.com/bmv-2143/lintchecks/internal/manifest"
	"github.com/bmv-2143/lintchecks/internal/resource"
	"github.com/bmv-2143/lintchecks/internal/runtime"
	"github.com/bmv-2143/lintchecks/internal/store"
)

// File kinds recorded in the store.
const (
	KindKotlin   = "kotlin"
	KindResource = "resource"
	KindManifest = "manifest"
)

// Engine orchestrates a lint run: file discovery, capability discovery,
// type indexing, the two detectors, and persistence of the results.
type Engine struct {
	store  *store.Store
	logger *slog.Logger

	rules     *ancestry.Rules // nil until loaded
	rulesFS   fs.FS
	rulesPath string
	rulesHash string
	extraCaps []string
	disabled  map[string]bool
	excludes  map[string]bool
	parallel  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls parallel parsing and detection. When true
// (default), per-file work runs on a bounded worker pool and a single
// committer applies the results in path order. Output is identical either
// way.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.parallel = parallel
	}
}

// WithLogger sets the structured logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCapabilities declares capability modules ("group:artifact") in
// addition to the ones found in the project's build files.
func WithCapabilities(ids ...string) Option {
	return func(e *Engine) {
		e.extraCaps = append(e.extraCaps, ids...)
	}
}

// WithRules uses rules directly instead of evaluating a rules script.
func WithRules(rules *ancestry.Rules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithRulesFS evaluates runtime.RulesScript from fsys. This is how the
// embedded scripts are wired in.
func WithRulesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.rulesFS = fsys
	}
}

// WithRulesScript evaluates the rules script at path on disk. It takes
// precedence over WithRulesFS.
func WithRulesScript(path string) Option {
	return func(e *Engine) {
		e.rulesPath = path
	}
}

// WithDisabledRules suppresses the given issue IDs.
func WithDisabledRules(ids ...string) Option {
	return func(e *Engine) {
		for _, id := range ids {
			e.disabled[id] = true
		}
	}
}

// WithExcludes skips directories with the given base names during
// discovery, in addition to the built-in ones.
func WithExcludes(names ...string) Option {
	return func(e *Engine) {
		for _, n := range names {
			e.excludes[n] = true
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("lintchecks: migrate: %w", err)
	}

	e := &Engine{
		store:    s,
		logger:   slog.New(slog.DiscardHandler),
		disabled: make(map[string]bool),
		excludes: make(map[string]bool),
		parallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	for id := range e.disabled {
		if _, ok := checks.LookupIssue(id); !ok {
			e.logger.Warn("unknown rule disabled", "rule", id)
		}
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Rules loads the rules once: WithRules, then WithRulesScript, then
// WithRulesFS, then the built-in defaults.
func (e *Engine) Rules(ctx context.Context) (*ancestry.Rules, error) {
	if e.rules != nil {
		return e.rules, nil
	}

	var (
		rt   *runtime.Runtime
		path = runtime.RulesScript
	)
	switch {
	case e.rulesPath != "":
		rt = runtime.NewRuntime(filepath.Dir(e.rulesPath), runtime.WithRuntimeLogger(e.logger))
		path = filepath.Base(e.rulesPath)
	case e.rulesFS != nil:
		rt = runtime.NewRuntime("", runtime.WithRuntimeFS(e.rulesFS), runtime.WithRuntimeLogger(e.logger))
	default:
		e.rules = ancestry.DefaultRules()
		e.rulesHash = "builtin"
		return e.rules, nil
	}

	src, err := rt.LoadScript(path)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: rules: %w", err)
	}
	rules, err := ancestry.LoadRules(ctx, rt, path)
	if err != nil {
		return nil, fmt.Errorf("lintchecks: rules: %w", err)
	}
	e.rules = rules
	e.rulesHash = fmt.Sprintf("%x", sha256.Sum256([]byte(src)))
	e.logger.Debug("rules loaded", "script", path, "component_kinds", len(rules.ComponentKinds))
	return rules, nil
}

// RulesChanged reports whether the rules differ from the ones used by the
// previous run stored in the database.
func (e *Engine) RulesChanged(ctx context.Context) (bool, error) {
	if _, err := e.Rules(ctx); err != nil {
		return false, err
	}
	stored, err := e.store.GetMetadata(rulesHashKey)
	if err != nil {
		return false, err
	}
	return stored != e.rulesHash, nil
}

const rulesHashKey = "rules_hash"

// skipDirs are never descended into during discovery.
var skipDirs = map[string]bool{
	"build":        true,
	"node_modules": true,
}

// sourceFile is a discovered project file.
type sourceFile struct {
	path string // project-relative, slash separated
	kind string
}

// Classify returns the kind of a project-relative path, or "" when the
// file is not analyzed.
func Classify(path string) string {
	switch {
	case manifest.IsManifest(path):
		return KindManifest
	case strings.EqualFold(filepath.Ext(path), ".kt"):
		return KindKotlin
	case resource.IsResourcePath(path):
		return KindResource
	}
	return ""
}

// discover lists the analyzed files under root in path order. If root is
// inside a git repository, git ls-files is used to respect .gitignore;
// otherwise the filesystem is walked.
func (e *Engine) discover(root string) ([]sourceFile, error) {
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "err", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}

	var files []sourceFile
	for _, p := range paths {
		if e.excluded(p) {
			continue
		}
		if kind := Classify(p); kind != "" {
			files = append(files, sourceFile{path: p, kind: kind})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// excluded reports whether any directory of a relative path is skipped.
func (e *Engine) excluded(rel string) bool {
	dirs := strings.Split(rel, "/")
	for _, d := range dirs[:len(dirs)-1] {
		if e.skipDir(d) {
			return true
		}
	}
	return false
}

func (e *Engine) skipDir(name string) bool {
	return (strings.HasPrefix(name, ".") && name != "." && name != "..") || skipDirs[name] || e.excludes[name]
}

// SkipDir reports whether discovery ignores directories named name.
func (e *Engine) SkipDir(name string) bool {
	return e.skipDir(name)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paths = append(paths, filepath.ToSlash(line))
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a
// fallback when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && e.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lintchecks: walk directory: %w", err)
	}
	return paths, nil
}

// readFile reads a discovered file.
func readFile(root, rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
}
