package manifest

import (
	"regexp"
)

// Groovy build scripts have no grammar in the parser set, so declarations
// are matched line by line.
var (
	groovyCoordinate = regexp.MustCompile(`(?m)^\s*(\w+)\s*\(?\s*(?:platform\s*\(\s*)?['"]([^'"$\s]+:[^'"\s]+)['"]`)
	groovyAccessor   = regexp.MustCompile(`(?m)^\s*(\w+)\s*\(?\s*(libs\.[\w.]+)`)
	groovyMap        = regexp.MustCompile(`(?m)^\s*(\w+)\s*\(?\s*group\s*:\s*['"]([^'"]+)['"]\s*,\s*name\s*:\s*['"]([^'"]+)['"](?:\s*,\s*version\s*:\s*['"]([^'"]+)['"])?`)
)

// ParseGroovy extracts dependency declarations from a build.gradle file.
func ParseGroovy(path string, src []byte, catalog *Catalog) []Dependency {
	var deps []Dependency
	add := func(config string, found ...Dependency) {
		if !IsMainConfiguration(config) {
			return
		}
		for _, d := range found {
			d.Configuration = config
			d.Path = path
			deps = append(deps, d)
		}
	}

	for _, m := range groovyCoordinate.FindAllSubmatch(src, -1) {
		if dep, ok := ParseCoordinate(string(m[2])); ok {
			add(string(m[1]), dep)
		}
	}
	for _, m := range groovyAccessor.FindAllSubmatch(src, -1) {
		if found, ok := catalog.Resolve(string(m[2])); ok {
			add(string(m[1]), found...)
		}
	}
	for _, m := range groovyMap.FindAllSubmatch(src, -1) {
		add(string(m[1]), Dependency{Group: string(m[2]), Artifact: string(m[3]), Version: string(m[4])})
	}
	return deps
}
