// Package lintchecks checks Android projects for two policy violations and
// proposes text fixes for them:
//
//   - GlobalScopeUsage: references to GlobalScope in Kotlin code. When the
//     enclosing class descends from a lifecycle-bound component and the
//     project declares the matching -ktx module, the diagnostic carries a
//     replacement (viewModelScope, lifecycleScope).
//   - WrongColorUsage: raw hex colors and @android:color references in XML
//     resources, cross-referenced against the palette in
//     res/values*/colors.xml.
//
// # Pipeline
//
// [Engine.Check] runs one analysis of a project root:
//
//  1. Discover: list Kotlin sources, resource XML and Gradle build files
//     (git ls-files, or a filesystem walk outside git).
//  2. Capabilities: read dependencies from build.gradle(.kts) and the
//     libs.versions.toml version catalog.
//  3. Parse: tree-sitter for Kotlin, a positional XML reader for
//     resources, in parallel.
//  4. Index: declared types and their resolved supertypes go to SQLite,
//     where the ancestry walk reads them.
//  5. Detect: GlobalScope references are reported as each file is checked.
//     Color usages are only recorded; after every resource file has been
//     seen the palette is complete and each usage is classified.
//
// Every run is stored, so [QueryBuilder] can list the diagnostics of the
// last run without re-analyzing.
//
// # Usage
//
//	e, err := lintchecks.New(".lintchecks/index.db", lintchecks.WithRulesFS(scripts.FS))
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.Check(ctx, "path/to/project")
//	for _, d := range res.Diagnostics { ... }
//
// # Rules
//
// The component table that picks a replacement scope, and the framework
// supertypes that the project's sources cannot show, are data evaluated
// from a Risor script (scripts/rules.risor). Adding a component kind is a
// change to that script.
package lintchecks
