package manifest

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bmv-2143/lintchecks/internal/kotlin"
)

// ParseKotlinScript extracts dependency declarations from a
// build.gradle.kts file. Recognized forms, for every main configuration:
//
//	implementation("group:artifact:version")
//	implementation(libs.some.library)
//	implementation(platform("group:artifact:version"))
//	implementation(group = "group", name = "artifact", version = "1.0")
func ParseKotlinScript(ctx context.Context, path string, src []byte, catalog *Catalog) ([]Dependency, error) {
	f, err := kotlin.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var deps []Dependency
	f.Walk(func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		callee := n.NamedChild(0)
		if callee == nil || callee.Type() != "simple_identifier" || !IsMainConfiguration(f.Text(callee)) {
			return true
		}
		config := f.Text(callee)
		for _, dep := range callArguments(f, n, catalog) {
			dep.Configuration = config
			dep.Path = path
			deps = append(deps, dep)
		}
		return false
	})
	return deps, nil
}

// callArguments reads the dependencies named by a configuration call.
func callArguments(f *kotlin.File, call *sitter.Node, catalog *Catalog) []Dependency {
	args := valueArguments(call)
	if len(args) == 0 {
		return nil
	}

	named := map[string]string{}
	for _, arg := range args {
		if label, value, ok := namedArgument(f, arg); ok {
			named[label] = unquote(f.Text(value))
		}
	}
	if named["group"] != "" && named["name"] != "" {
		return []Dependency{{Group: named["group"], Artifact: named["name"], Version: named["version"]}}
	}

	expr := argumentExpression(args[0])
	if expr == nil {
		return nil
	}
	return dependencyExpression(f, expr, catalog)
}

func dependencyExpression(f *kotlin.File, expr *sitter.Node, catalog *Catalog) []Dependency {
	switch expr.Type() {
	case "string_literal", "line_string_literal":
		if dep, ok := ParseCoordinate(unquote(f.Text(expr))); ok {
			return []Dependency{dep}
		}
	case "navigation_expression":
		if deps, ok := catalog.Resolve(strings.Join(strings.Fields(f.Text(expr)), "")); ok {
			return deps
		}
	case "call_expression":
		// platform(...), enforcedPlatform(...), project(...) wrap the real
		// argument; only the coordinate forms are dependencies.
		if callee := expr.NamedChild(0); callee != nil {
			switch f.Text(callee) {
			case "platform", "enforcedPlatform":
				if args := valueArguments(expr); len(args) > 0 {
					if inner := argumentExpression(args[0]); inner != nil {
						return dependencyExpression(f, inner, catalog)
					}
				}
			}
		}
	}
	return nil
}

// valueArguments returns the value_argument nodes of a call.
func valueArguments(call *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(call.NamedChildCount()); i++ {
		suffix := call.NamedChild(i)
		if suffix.Type() != "call_suffix" {
			continue
		}
		for j := 0; j < int(suffix.NamedChildCount()); j++ {
			va := suffix.NamedChild(j)
			if va.Type() != "value_arguments" {
				continue
			}
			for k := 0; k < int(va.NamedChildCount()); k++ {
				if arg := va.NamedChild(k); arg.Type() == "value_argument" {
					out = append(out, arg)
				}
			}
		}
	}
	return out
}

// argumentExpression returns the value expression of an argument, skipping
// a name label.
func argumentExpression(arg *sitter.Node) *sitter.Node {
	count := int(arg.NamedChildCount())
	if count == 0 {
		return nil
	}
	return arg.NamedChild(count - 1)
}

func namedArgument(f *kotlin.File, arg *sitter.Node) (string, *sitter.Node, bool) {
	first := arg.NamedChild(0)
	if first == nil || first.Type() != "simple_identifier" {
		return "", nil, false
	}
	next := first.NextSibling()
	if next == nil || next.Type() != "=" {
		return "", nil, false
	}
	return f.Text(first), argumentExpression(arg), true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
