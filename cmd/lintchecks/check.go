package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmv-2143/lintchecks"
	"github.com/bmv-2143/lintchecks/internal/config"
	"github.com/bmv-2143/lintchecks/internal/fix"
	"github.com/bmv-2143/lintchecks/internal/watch"
	"github.com/bmv-2143/lintchecks/scripts"
)

var (
	flagDisable      []string
	flagCapability   []string
	flagExclude      []string
	flagRulesScript  string
	flagSerial       bool
	flagFix          bool
	flagWatch        bool
	flagFailOnIssues bool
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Check an Android project",
	Long:  "Discovers Kotlin sources, XML resources and Gradle build files under path, runs every enabled rule and stores the run in the database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVar(&flagDisable, "disable", nil, "rule IDs to disable")
	checkCmd.Flags().StringSliceVar(&flagCapability, "capability", nil, "extra capabilities to treat as declared (group:artifact)")
	checkCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "directory names to skip")
	checkCmd.Flags().StringVar(&flagRulesScript, "rules-script", "", "load fix-selection rules from a Risor script instead of the embedded one")
	checkCmd.Flags().BoolVar(&flagSerial, "serial", false, "check files on a single goroutine")
	checkCmd.Flags().BoolVar(&flagFix, "fix", false, "apply suggested fixes in place")
	checkCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-check whenever analyzed files change")
	checkCmd.Flags().BoolVar(&flagFailOnIssues, "fail-on-issues", false, "exit with status 2 when issues are reported")
}

func runCheck(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("check", err)
	}
	dbPath := resolveDBPath(findRepoRoot(targetDir))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError("check", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}

	cfg, err := checkConfig(cmd, targetDir)
	if err != nil {
		return outputError("check", err)
	}
	logger := newLogger()

	opts := []lintchecks.Option{
		lintchecks.WithLogger(logger),
		lintchecks.WithParallel(cfg.ParallelOr(true)),
		lintchecks.WithDisabledRules(cfg.DisabledRules...),
		lintchecks.WithCapabilities(cfg.Capabilities...),
		lintchecks.WithExcludes(cfg.Exclude...),
	}
	if cfg.RulesScript != "" {
		opts = append(opts, lintchecks.WithRulesScript(cfg.RulesScript))
	} else {
		opts = append(opts, lintchecks.WithRulesFS(scripts.FS))
	}

	engine, err := lintchecks.New(dbPath, opts...)
	if err != nil {
		return outputError("check", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var found int
	once := func(ctx context.Context) error {
		res, err := checkOnce(ctx, engine, targetDir)
		if err != nil {
			return err
		}
		found = len(res.Diagnostics)
		return outputDiagnostics("check", res.Diagnostics)
	}

	if err := once(ctx); err != nil {
		return outputError("check", err)
	}
	if flagWatch {
		fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl-C to stop)\n", targetDir)
		w := watch.New(targetDir,
			watch.WithSkipDir(engine.SkipDir),
			watch.WithFilter(func(path string) bool {
				rel, err := filepath.Rel(targetDir, path)
				return err == nil && lintchecks.Classify(filepath.ToSlash(rel)) != ""
			}),
			watch.WithLogger(logger),
		)
		if err := w.Run(ctx, once); err != nil {
			return outputError("check", err)
		}
		return nil
	}
	if flagFailOnIssues && found > 0 {
		return errIssuesFound
	}
	return nil
}

// checkConfig merges the project's config file with the command line.
// Command-line lists add to the file's; scalars replace them.
func checkConfig(cmd *cobra.Command, targetDir string) (*config.Config, error) {
	fileCfg, err := config.Load(targetDir)
	if err != nil {
		return nil, err
	}
	flags := &config.Config{
		DisabledRules: flagDisable,
		Capabilities:  flagCapability,
		Exclude:       flagExclude,
	}
	if flagRulesScript != "" {
		abs, err := filepath.Abs(flagRulesScript)
		if err != nil {
			return nil, fmt.Errorf("resolving rules script %q: %w", flagRulesScript, err)
		}
		flags.RulesScript = abs
	}
	if cmd.Flags().Changed("serial") {
		parallel := !flagSerial
		flags.Parallel = &parallel
	}
	return fileCfg.Merge(flags), nil
}

// checkOnce runs one check, applying fixes first when --fix is set, and
// prints a status line to stderr.
func checkOnce(ctx context.Context, engine *lintchecks.Engine, targetDir string) (*lintchecks.Result, error) {
	res, err := engine.Check(ctx, targetDir)
	if err != nil {
		return nil, fmt.Errorf("checking: %w", err)
	}
	if flagFix {
		applied, err := fix.Apply(res.Root, res.Diagnostics, newLogger())
		if err != nil {
			return nil, err
		}
		if applied.Applied > 0 {
			fmt.Fprintf(os.Stderr, "Applied %d fixes in %d files\n", applied.Applied, len(applied.Files))
			// Report what is left after the rewrite.
			if res, err = engine.Check(ctx, targetDir); err != nil {
				return nil, fmt.Errorf("re-checking: %w", err)
			}
		}
	}

	for _, s := range res.Skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: %s\n", s.Path, s.Err)
	}
	// The first run has nothing to compare against.
	if res.RulesChanged && res.RunID > 1 {
		fmt.Fprintln(os.Stderr, "Rules changed since the previous run")
	}
	fmt.Fprintf(os.Stderr, "Checked %d files in %s\n", res.Files, res.Elapsed.Round(time.Millisecond))
	return res, nil
}
