// Package kotlin wraps tree-sitter Kotlin parse trees with the lookups the
// detectors need: package and import headers, class declarations with their
// declared supertypes, enclosing-class resolution and identifier references.
package kotlin

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/runtime"
)

// Import is a single import header.
type Import struct {
	Path     string // e.g. "kotlinx.coroutines.GlobalScope"
	Alias    string // set for `import a.B as C`
	Wildcard bool   // `import a.b.*`
}

// SimpleName is the name an import binds in the file: the alias if present,
// otherwise the last path segment. Wildcard imports bind nothing.
func (i Import) SimpleName() string {
	if i.Wildcard {
		return ""
	}
	if i.Alias != "" {
		return i.Alias
	}
	return lastSegment(i.Path)
}

// TypeDecl is a class, interface or object declared in a file.
type TypeDecl struct {
	Name          string
	QualifiedName string
	Kind          string   // "class", "interface", "object"
	Supertypes    []string // as written, generics stripped
	Line, Col     int      // 1-based
	Node          *sitter.Node
}

// File is a parsed Kotlin source file. Close releases the tree.
type File struct {
	Path    string
	Src     []byte
	Tree    *sitter.Tree
	Package string
	Imports []Import
}

// Parse parses Kotlin source and reads its package and import headers.
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	tree, err := runtime.Parse(ctx, "kotlin", src)
	if err != nil {
		return nil, fmt.Errorf("kotlin: parsing %s: %w", path, err)
	}
	f := &File{Path: path, Src: src, Tree: tree}
	f.readHeaders()
	return f, nil
}

// Close releases the underlying tree-sitter tree.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Root returns the source_file node.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Text returns the source text spanned by n.
func (f *File) Text(n *sitter.Node) string {
	return n.Content(f.Src)
}

// Location converts a node's span into a 1-based diagnostic location.
func (f *File) Location(n *sitter.Node) diag.Location {
	sp, ep := n.StartPoint(), n.EndPoint()
	return diag.Location{
		Path:      f.Path,
		StartLine: toInt(sp.Row) + 1,
		StartCol:  toInt(sp.Column) + 1,
		EndLine:   toInt(ep.Row) + 1,
		EndCol:    toInt(ep.Column) + 1,
		StartByte: toInt(n.StartByte()),
		EndByte:   toInt(n.EndByte()),
	}
}

func toInt(v uint32) int {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0
	}
	return n
}

func (f *File) readHeaders() {
	root := f.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_header":
			if id := firstNamedOfType(child, "identifier"); id != nil {
				f.Package = stripSpace(f.Text(id))
			}
		case "import_list":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if h := child.NamedChild(j); h.Type() == "import_header" {
					f.Imports = append(f.Imports, f.readImport(h))
				}
			}
		case "import_header":
			f.Imports = append(f.Imports, f.readImport(child))
		}
	}
}

func (f *File) readImport(h *sitter.Node) Import {
	var imp Import
	for i := 0; i < int(h.ChildCount()); i++ {
		c := h.Child(i)
		switch c.Type() {
		case "identifier":
			imp.Path = stripSpace(f.Text(c))
		case "import_alias":
			if name := lastNamedChild(c); name != nil {
				imp.Alias = f.Text(name)
			}
		case "wildcard_import", "*":
			imp.Wildcard = true
		}
	}
	return imp
}

// Declarations returns every class, interface and object declared in the
// file, including nested ones, in source order. Nested declarations are
// qualified through their outer types.
func (f *File) Declarations() []TypeDecl {
	var decls []TypeDecl
	f.Walk(func(n *sitter.Node) bool {
		switch n.Type() {
		case "class_declaration", "object_declaration":
			decls = append(decls, f.Declaration(n))
		}
		return true
	})
	return decls
}

// Declaration reads a class_declaration or object_declaration node.
func (f *File) Declaration(n *sitter.Node) TypeDecl {
	d := TypeDecl{Node: n, Kind: "class"}
	if n.Type() == "object_declaration" {
		d.Kind = "object"
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "interface":
			d.Kind = "interface"
		case "type_identifier":
			if d.Name == "" {
				d.Name = f.Text(c)
			}
		case "delegation_specifier":
			if st := f.supertypeName(c); st != "" {
				d.Supertypes = append(d.Supertypes, st)
			}
		case "delegation_specifiers":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if ds := c.NamedChild(j); ds.Type() == "delegation_specifier" {
					if st := f.supertypeName(ds); st != "" {
						d.Supertypes = append(d.Supertypes, st)
					}
				}
			}
		}
	}
	d.QualifiedName = f.QualifiedName(n)
	p := n.StartPoint()
	d.Line, d.Col = toInt(p.Row)+1, toInt(p.Column)+1
	return d
}

// supertypeName extracts the type name from a delegation specifier:
// `Base()`, `Iface`, `Iface by impl`. Function types are not supertypes
// that can carry ancestry and are skipped.
func (f *File) supertypeName(ds *sitter.Node) string {
	var ut *sitter.Node
	f.walk(ds, func(n *sitter.Node) bool {
		if ut != nil {
			return false
		}
		switch n.Type() {
		case "function_type":
			return false
		case "user_type":
			ut = n
			return false
		}
		return true
	})
	if ut == nil {
		return ""
	}
	return stripTypeArguments(f.Text(ut))
}

// QualifiedName builds the fully qualified name of a type declaration node
// from the package header and the names of enclosing declarations.
func (f *File) QualifiedName(decl *sitter.Node) string {
	var parts []string
	for n := decl; n != nil; n = n.Parent() {
		switch n.Type() {
		case "class_declaration", "object_declaration":
			if name := firstNamedOfType(n, "type_identifier"); name != nil {
				parts = append(parts, f.Text(name))
			}
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	name := strings.Join(parts, ".")
	if f.Package == "" {
		return name
	}
	return f.Package + "." + name
}

// EnclosingClass returns the nearest class_declaration containing n.
// Object declarations, companion objects and object literals do not count
// as enclosing classes, but are looked through.
func EnclosingClass(n *sitter.Node) (*sitter.Node, bool) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "class_declaration" {
			return p, true
		}
	}
	return nil, false
}

// Walk visits every node in the file in pre-order. Returning false from fn
// skips the node's children.
func (f *File) Walk(fn func(*sitter.Node) bool) {
	f.walk(f.Root(), fn)
}

func (f *File) walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		f.walk(n.Child(i), fn)
	}
}

// References returns every simple_identifier node whose text is name and
// that is used as a reference. Names in package and import headers,
// declaration names and named-argument labels are not references.
func (f *File) References(name string) []*sitter.Node {
	var refs []*sitter.Node
	f.Walk(func(n *sitter.Node) bool {
		switch n.Type() {
		case "package_header", "import_list", "import_header":
			return false
		case "simple_identifier":
			if f.Text(n) == name && isReference(n) {
				refs = append(refs, n)
			}
			return false
		}
		return true
	})
	return refs
}

func isReference(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}
	switch parent.Type() {
	case "variable_declaration", "function_declaration", "parameter",
		"class_parameter", "type_alias", "enum_entry":
		return false
	case "value_argument":
		// `f(name = value)` labels the argument; it is not a reference.
		if next := n.NextSibling(); next != nil && next.Type() == "=" {
			return false
		}
	}
	return true
}

// ResolveTypeName maps a type name as written in this file to a fully
// qualified name. Resolution order: explicit import or alias, already
// qualified, same package, wildcard imports. known reports whether a fully
// qualified name exists in the project or the known framework types; when
// nothing matches the name is returned unchanged.
func (f *File) ResolveTypeName(raw string, known func(string) bool) string {
	first, rest, qualified := strings.Cut(raw, ".")
	for _, imp := range f.Imports {
		if imp.Wildcard || imp.SimpleName() != first {
			continue
		}
		if qualified {
			return imp.Path + "." + rest
		}
		return imp.Path
	}
	if qualified {
		return raw
	}
	if f.Package != "" {
		if candidate := f.Package + "." + raw; known(candidate) {
			return candidate
		}
	}
	for _, imp := range f.Imports {
		if !imp.Wildcard {
			continue
		}
		if candidate := imp.Path + "." + raw; known(candidate) {
			return candidate
		}
	}
	if f.Package != "" {
		return f.Package + "." + raw
	}
	return raw
}

func firstNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	return n.NamedChild(count - 1)
}

// stripTypeArguments turns "Base<T, List<U>>" into "Base" and
// "a.Outer<T>.Inner" into "a.Outer.Inner".
func stripTypeArguments(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0 && r != ' ' && r != '\n' && r != '\t' && r != '?':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
