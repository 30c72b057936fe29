// Package ancestry resolves the enclosing type of a syntax node, walks the
// supertype graph, and answers capability queries used to pick a fix for a
// disallowed scope reference.
package ancestry

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bmv-2143/lintchecks/internal/kotlin"
)

// ComponentKind is one row of the priority-ordered fix table: a component
// descending from BaseType gets Replacement when Capability is available.
type ComponentKind struct {
	Name        string
	BaseType    string
	Capability  string
	Replacement string
}

// DefaultComponentKinds is used when no rules script is loaded. Order is
// priority: the first base type the enclosing class descends from decides.
var DefaultComponentKinds = []ComponentKind{
	{
		Name:        "ViewModel",
		BaseType:    "androidx.lifecycle.ViewModel",
		Capability:  "androidx.lifecycle:lifecycle-viewmodel-ktx",
		Replacement: "viewModelScope",
	},
	{
		Name:        "Fragment",
		BaseType:    "androidx.fragment.app.Fragment",
		Capability:  "androidx.lifecycle:lifecycle-runtime-ktx",
		Replacement: "lifecycleScope",
	},
}

// DefaultKnownSupertypes lists framework types that never appear in project
// sources but whose ancestry matters for fix selection.
var DefaultKnownSupertypes = map[string][]string{
	"androidx.lifecycle.AndroidViewModel":                                {"androidx.lifecycle.ViewModel"},
	"androidx.fragment.app.DialogFragment":                               {"androidx.fragment.app.Fragment"},
	"androidx.fragment.app.ListFragment":                                 {"androidx.fragment.app.Fragment"},
	"androidx.preference.PreferenceFragmentCompat":                       {"androidx.fragment.app.Fragment"},
	"androidx.appcompat.app.AppCompatDialogFragment":                     {"androidx.fragment.app.DialogFragment"},
	"com.google.android.material.bottomsheet.BottomSheetDialogFragment": {"androidx.appcompat.app.AppCompatDialogFragment"},
}

// TypeDescriptor identifies a declared type.
type TypeDescriptor struct {
	Name          string
	QualifiedName string
	Path          string
	Line          int
}

// Hierarchy answers direct supertypes of a fully qualified type name. An
// unknown type has no supertypes and no error.
type Hierarchy interface {
	Supertypes(qualifiedName string) ([]string, error)
}

// Capabilities answers whether a capability module (group:artifact) is
// declared as a project dependency.
type Capabilities interface {
	Has(id string) bool
}

// MapHierarchy is an in-memory Hierarchy.
type MapHierarchy map[string][]string

// Supertypes implements Hierarchy.
func (m MapHierarchy) Supertypes(qn string) ([]string, error) {
	return m[qn], nil
}

// Layered consults each Hierarchy in order and returns the first non-empty
// answer.
type Layered []Hierarchy

// Supertypes implements Hierarchy.
func (l Layered) Supertypes(qn string) ([]string, error) {
	for _, h := range l {
		if h == nil {
			continue
		}
		sts, err := h.Supertypes(qn)
		if err != nil {
			return nil, err
		}
		if len(sts) > 0 {
			return sts, nil
		}
	}
	return nil, nil
}

// CapabilitySet is an in-memory Capabilities.
type CapabilitySet map[string]bool

// Has implements Capabilities.
func (c CapabilitySet) Has(id string) bool {
	return c[id]
}

// Union answers true if any member has the capability.
type Union []Capabilities

// Has implements Capabilities.
func (u Union) Has(id string) bool {
	for _, c := range u {
		if c != nil && c.Has(id) {
			return true
		}
	}
	return false
}

// Resolver implements enclosing-type resolution, descendant checks and
// capability lookups over a Hierarchy and Capabilities.
type Resolver struct {
	hierarchy    Hierarchy
	capabilities Capabilities
}

// NewResolver creates a Resolver. Either collaborator may be nil, in which
// case nothing descends from anything and no capability is available.
func NewResolver(h Hierarchy, caps Capabilities) *Resolver {
	return &Resolver{hierarchy: h, capabilities: caps}
}

// ResolveEnclosingType returns the nearest class enclosing node.
func (r *Resolver) ResolveEnclosingType(f *kotlin.File, node *sitter.Node) (TypeDescriptor, bool) {
	cls, ok := kotlin.EnclosingClass(node)
	if !ok {
		return TypeDescriptor{}, false
	}
	qn := f.QualifiedName(cls)
	name := qn
	if d := f.Declaration(cls); d.Name != "" {
		name = d.Name
	}
	return TypeDescriptor{
		Name:          name,
		QualifiedName: qn,
		Path:          f.Path,
		Line:          f.Location(cls).StartLine,
	}, true
}

// IsDescendantOf reports whether base appears anywhere in t's supertype
// graph. A type is not its own descendant.
func (r *Resolver) IsDescendantOf(t TypeDescriptor, base string) (bool, error) {
	if r.hierarchy == nil {
		return false, nil
	}
	visited := map[string]bool{t.QualifiedName: true}
	queue := []string{t.QualifiedName}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		sts, err := r.hierarchy.Supertypes(current)
		if err != nil {
			return false, fmt.Errorf("ancestry: supertypes of %s: %w", current, err)
		}
		for _, st := range sts {
			if st == base {
				return true, nil
			}
			if !visited[st] {
				visited[st] = true
				queue = append(queue, st)
			}
		}
	}
	return false, nil
}

// HasCapability reports whether id is declared as a project dependency.
func (r *Resolver) HasCapability(id string) bool {
	return r.capabilities != nil && r.capabilities.Has(id)
}
