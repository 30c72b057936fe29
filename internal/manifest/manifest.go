// Package manifest reads the dependencies a Gradle project declares so the
// detectors can ask whether a capability module is available.
//
// Supported inputs are build.gradle.kts (parsed with tree-sitter),
// build.gradle (matched textually) and the gradle/libs.versions.toml version
// catalog, whose library aliases are resolved when build files refer to
// them as libs.* accessors.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manifest file names.
const (
	KotlinBuildFile = "build.gradle.kts"
	GroovyBuildFile = "build.gradle"
	CatalogFile     = "libs.versions.toml"
)

// mainConfigurations are the dependency configurations that put a module on
// the application's classpath. Test configurations are not capabilities.
var mainConfigurations = map[string]bool{
	"implementation":        true,
	"api":                   true,
	"compileOnly":           true,
	"runtimeOnly":           true,
	"kapt":                  true,
	"ksp":                   true,
	"annotationProcessor":   true,
	"debugImplementation":   true,
	"releaseImplementation": true,
}

// IsMainConfiguration reports whether name is a dependency configuration
// counted as a capability.
func IsMainConfiguration(name string) bool {
	return mainConfigurations[name]
}

// Dependency is one declared module.
type Dependency struct {
	Group         string
	Artifact      string
	Version       string
	Configuration string
	Path          string // build file that declared it
}

// ID returns "group:artifact".
func (d Dependency) ID() string {
	return d.Group + ":" + d.Artifact
}

// ParseCoordinate splits "group:artifact[:version]".
func ParseCoordinate(s string) (Dependency, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Dependency{}, false
	}
	d := Dependency{Group: parts[0], Artifact: parts[1]}
	if len(parts) > 2 {
		d.Version = strings.Join(parts[2:], ":")
	}
	return d, true
}

// Dependencies is the set of modules declared across a project's build
// files. It implements ancestry.Capabilities.
type Dependencies struct {
	byID map[string][]Dependency
}

// NewDependencies returns an empty set.
func NewDependencies() *Dependencies {
	return &Dependencies{byID: make(map[string][]Dependency)}
}

// Add records d.
func (d *Dependencies) Add(deps ...Dependency) {
	for _, dep := range deps {
		d.byID[dep.ID()] = append(d.byID[dep.ID()], dep)
	}
}

// Has reports whether group:artifact is declared in any main configuration.
func (d *Dependencies) Has(id string) bool {
	return len(d.byID[id]) > 0
}

// Len returns the number of distinct modules.
func (d *Dependencies) Len() int {
	return len(d.byID)
}

// List returns every declaration sorted by ID, then path.
func (d *Dependencies) List() []Dependency {
	var out []Dependency
	for _, deps := range d.byID {
		out = append(out, deps...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID() != out[j].ID() {
			return out[i].ID() < out[j].ID()
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// IsManifest reports whether a project-relative path is a file Load reads.
func IsManifest(path string) bool {
	switch filepath.Base(path) {
	case KotlinBuildFile, GroovyBuildFile, CatalogFile:
		return true
	}
	return false
}

// Load reads the given project-relative manifest paths under root. Version
// catalogs are read first so build files can use their accessors.
func Load(ctx context.Context, root string, paths []string) (*Dependencies, error) {
	catalog := NewCatalog()
	var builds []string
	for _, p := range paths {
		if filepath.Base(p) != CatalogFile {
			builds = append(builds, p)
			continue
		}
		src, err := os.ReadFile(filepath.Join(root, p))
		if err != nil {
			return nil, fmt.Errorf("manifest: reading %s: %w", p, err)
		}
		c, err := ParseCatalog(src)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s: %w", p, err)
		}
		catalog.Merge(c)
	}

	deps := NewDependencies()
	for _, p := range builds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(filepath.Join(root, p))
		if err != nil {
			return nil, fmt.Errorf("manifest: reading %s: %w", p, err)
		}
		var found []Dependency
		switch filepath.Base(p) {
		case KotlinBuildFile:
			found, err = ParseKotlinScript(ctx, p, src, catalog)
			if err != nil {
				return nil, fmt.Errorf("manifest: %s: %w", p, err)
			}
		case GroovyBuildFile:
			found = ParseGroovy(p, src, catalog)
		}
		deps.Add(found...)
	}
	return deps, nil
}
