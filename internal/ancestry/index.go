package ancestry

import (
	"github.com/bmv-2143/lintchecks/internal/kotlin"
)

// Declared is a project type with its supertypes resolved to fully
// qualified names.
type Declared struct {
	TypeDescriptor
	Col        int
	Kind       string
	Raw        []string
	Supertypes []string
}

// Index resolves the declarations of every file against the project's own
// types and the framework types named by rules. Names that cannot be
// resolved keep the file's package as qualifier.
func Index(files []*kotlin.File, rules *Rules) []Declared {
	known := rules.FrameworkTypes()
	perFile := make([][]kotlin.TypeDecl, len(files))
	names := make(map[string]bool)
	for i, f := range files {
		perFile[i] = f.Declarations()
		for _, d := range perFile[i] {
			names[d.QualifiedName] = true
		}
	}
	isKnown := func(qn string) bool {
		if names[qn] {
			return true
		}
		return known[qn]
	}

	var out []Declared
	for i, f := range files {
		for _, d := range perFile[i] {
			decl := Declared{
				TypeDescriptor: TypeDescriptor{
					Name:          d.Name,
					QualifiedName: d.QualifiedName,
					Path:          f.Path,
					Line:          d.Line,
				},
				Col:  d.Col,
				Kind: d.Kind,
				Raw:  d.Supertypes,
			}
			for _, raw := range d.Supertypes {
				decl.Supertypes = append(decl.Supertypes, f.ResolveTypeName(raw, isKnown))
			}
			out = append(out, decl)
		}
	}
	return out
}

// BuildHierarchy builds an in-memory hierarchy from resolved declarations.
func BuildHierarchy(decls []Declared) MapHierarchy {
	h := make(MapHierarchy, len(decls))
	for _, d := range decls {
		h[d.QualifiedName] = append(h[d.QualifiedName], d.Supertypes...)
	}
	return h
}
