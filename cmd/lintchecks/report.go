package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bmv-2143/lintchecks"
)

var (
	flagRules []string
	flagPath  string
	flagRun   int64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the diagnostics of a stored run",
	Long:  "Reads diagnostics from the database without re-checking. Defaults to the latest finished run.",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringSliceVar(&flagRules, "rule", nil, "only show these rule IDs")
	reportCmd.Flags().StringVar(&flagPath, "path", "", "only show files under this project-relative prefix")
	reportCmd.Flags().Int64Var(&flagRun, "run", 0, "run ID (default: latest)")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available rules",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <name>",
	Short: "Show the indexed supertypes and subtypes of a class",
	Long:  "Looks up classes by simple name in the last run's type index and prints each one's ancestors, nearest first, and direct subtypes.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHierarchy,
}

// openEngine opens the database of the repository containing the cwd.
func openEngine() (*lintchecks.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'lintchecks check' first)", dbPath)
	}
	return lintchecks.New(dbPath, lintchecks.WithLogger(newLogger()))
}

func runReport(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("report", err)
	}
	defer engine.Close()
	q := engine.Query()

	var run *lintchecks.Run
	if flagRun != 0 {
		run, err = q.Run(flagRun)
	} else {
		run, err = q.LatestRun()
	}
	if err != nil {
		return outputError("report", err)
	}
	if run == nil {
		return outputError("report", fmt.Errorf("no finished run found"))
	}

	diags, err := q.Diagnostics(run.ID, lintchecks.DiagnosticFilter{Rules: flagRules, PathPrefix: flagPath})
	if err != nil {
		return outputError("report", err)
	}
	return outputDiagnostics("report", diags)
}

func runRules(cmd *cobra.Command, args []string) error {
	issues := lintchecks.Issues()
	out := make([]CLIRule, 0, len(issues))
	for _, issue := range issues {
		out = append(out, CLIRule{
			ID:          issue.ID,
			Brief:       issue.Brief,
			Explanation: issue.Explanation,
			Category:    string(issue.Category),
			Priority:    issue.Priority,
			Severity:    string(issue.Severity),
		})
	}
	return outputResult(CLIResult{Command: "rules", Results: out})
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("hierarchy", err)
	}
	defer engine.Close()
	q := engine.Query()

	types, err := q.TypesNamed(args[0])
	if err != nil {
		return outputError("hierarchy", err)
	}
	if len(types) == 0 {
		return outputError("hierarchy", fmt.Errorf("no class named %q in the index", args[0]))
	}

	out := make([]CLIHierarchy, 0, len(types))
	for _, t := range types {
		ancestors, err := q.Ancestors(t.QualifiedName)
		if err != nil {
			return outputError("hierarchy", err)
		}
		subs, err := q.Subtypes(t.QualifiedName)
		if err != nil {
			return outputError("hierarchy", err)
		}
		detail, err := q.Detail(t)
		if err != nil {
			return outputError("hierarchy", err)
		}
		h := CLIHierarchy{
			Type:       typeToCLI(t),
			Supertypes: make([]CLISupertype, 0, len(detail.Supertypes)),
			Ancestors:  ancestors,
			Subtypes:   make([]CLIType, 0, len(subs)),
		}
		if detail.File != nil {
			h.File = detail.File.Path
		}
		for _, st := range detail.Supertypes {
			h.Supertypes = append(h.Supertypes, CLISupertype{Raw: st.RawName, Resolved: st.ResolvedName})
		}
		for _, imp := range detail.Imports {
			h.Imports = append(h.Imports, importString(imp))
		}
		for _, s := range subs {
			h.Subtypes = append(h.Subtypes, typeToCLI(s))
		}
		out = append(out, h)
	}
	return outputResult(CLIResult{Command: "hierarchy", Results: out})
}

var flagKind string

var filesCmd = &cobra.Command{
	Use:   "files [path]",
	Short: "List the files of the last run and the classes they declare",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFiles,
}

func init() {
	filesCmd.Flags().StringVar(&flagKind, "kind", "", "only list files of this kind: kotlin|resource|manifest")
}

func runFiles(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("files", err)
	}
	defer engine.Close()
	q := engine.Query()

	var files []*lintchecks.File
	if len(args) == 1 {
		f, err := q.File(filepath.ToSlash(args[0]))
		if err != nil {
			return outputError("files", err)
		}
		if f == nil {
			return outputError("files", fmt.Errorf("file not in the index: %s", args[0]))
		}
		files = append(files, f)
	} else if files, err = q.Files(flagKind); err != nil {
		return outputError("files", err)
	}

	out := make([]CLIFile, 0, len(files))
	for _, f := range files {
		cf := CLIFile{Path: f.Path, Kind: f.Kind, LineCount: f.LineCount}
		if f.Kind == lintchecks.KindKotlin {
			types, err := q.TypesInFile(f.ID)
			if err != nil {
				return outputError("files", err)
			}
			for _, t := range types {
				cf.Types = append(cf.Types, t.QualifiedName)
			}
		}
		out = append(out, cf)
	}
	return outputResult(CLIResult{Command: "files", Results: out})
}

func importString(imp *lintchecks.Import) string {
	s := imp.Path
	if imp.Wildcard {
		s += ".*"
	}
	if imp.Alias != "" {
		s += " as " + imp.Alias
	}
	return s
}

func typeToCLI(t *lintchecks.Type) CLIType {
	return CLIType{
		QualifiedName: t.QualifiedName,
		Kind:          t.Kind,
		Line:          t.Line,
		Col:           t.Col,
	}
}
