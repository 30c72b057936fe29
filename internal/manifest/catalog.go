package manifest

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Catalog maps libs.* accessors to dependencies.
type Catalog struct {
	libraries map[string]Dependency   // accessor without "libs." prefix
	bundles   map[string][]Dependency // bundle name as accessor
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		libraries: make(map[string]Dependency),
		bundles:   make(map[string][]Dependency),
	}
}

type catalogFile struct {
	Versions  map[string]any      `toml:"versions"`
	Libraries map[string]any      `toml:"libraries"`
	Bundles   map[string][]string `toml:"bundles"`
}

// ParseCatalog decodes a Gradle version catalog.
func ParseCatalog(src []byte) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.Decode(string(src), &f); err != nil {
		return nil, fmt.Errorf("decoding version catalog: %w", err)
	}

	c := NewCatalog()
	byAlias := make(map[string]Dependency, len(f.Libraries))
	for alias, v := range f.Libraries {
		dep, err := catalogLibrary(v, f.Versions)
		if err != nil {
			return nil, fmt.Errorf("library %q: %w", alias, err)
		}
		byAlias[alias] = dep
		c.libraries[Accessor(alias)] = dep
	}
	for name, aliases := range f.Bundles {
		var deps []Dependency
		for _, alias := range aliases {
			dep, ok := byAlias[alias]
			if !ok {
				return nil, fmt.Errorf("bundle %q: unknown library %q", name, alias)
			}
			deps = append(deps, dep)
		}
		c.bundles[Accessor(name)] = deps
	}
	return c, nil
}

func catalogLibrary(v any, versions map[string]any) (Dependency, error) {
	switch lib := v.(type) {
	case string:
		dep, ok := ParseCoordinate(lib)
		if !ok {
			return Dependency{}, fmt.Errorf("invalid coordinate %q", lib)
		}
		return dep, nil
	case map[string]any:
		var dep Dependency
		if module, ok := lib["module"].(string); ok {
			parsed, ok := ParseCoordinate(module)
			if !ok {
				return Dependency{}, fmt.Errorf("invalid module %q", module)
			}
			dep = parsed
		} else {
			dep.Group, _ = lib["group"].(string)
			dep.Artifact, _ = lib["name"].(string)
		}
		if dep.Group == "" || dep.Artifact == "" {
			return Dependency{}, fmt.Errorf("missing module or group/name")
		}
		dep.Version = catalogVersion(lib["version"], versions)
		return dep, nil
	}
	return Dependency{}, fmt.Errorf("unsupported declaration %T", v)
}

// catalogVersion handles `version = "1.0"` and `version.ref = "name"`.
func catalogVersion(v any, versions map[string]any) string {
	switch ver := v.(type) {
	case string:
		return ver
	case map[string]any:
		if ref, ok := ver["ref"].(string); ok {
			s, _ := versions[ref].(string)
			return s
		}
	}
	return ""
}

// Accessor converts a catalog alias into its generated accessor path:
// "androidx-lifecycle_runtime" becomes "androidx.lifecycle.runtime".
func Accessor(alias string) string {
	return strings.NewReplacer("-", ".", "_", ".").Replace(alias)
}

// Merge copies other's entries into c.
func (c *Catalog) Merge(other *Catalog) {
	for k, v := range other.libraries {
		c.libraries[k] = v
	}
	for k, v := range other.bundles {
		c.bundles[k] = v
	}
}

// Resolve maps an accessor expression such as "libs.androidx.core.ktx" or
// "libs.bundles.lifecycle" to the dependencies it stands for.
func (c *Catalog) Resolve(expr string) ([]Dependency, bool) {
	if c == nil {
		return nil, false
	}
	rest, ok := strings.CutPrefix(expr, "libs.")
	if !ok {
		return nil, false
	}
	if name, ok := strings.CutPrefix(rest, "bundles."); ok {
		deps, ok := c.bundles[name]
		return deps, ok
	}
	dep, ok := c.libraries[rest]
	if !ok {
		return nil, false
	}
	return []Dependency{dep}, true
}
