// Package palette holds the index of colors a project declares in its
// palette resource file.
package palette

import (
	"sort"
	"sync"

	"github.com/bmv-2143/lintchecks/internal/color"
)

// Entry is one declared palette color.
type Entry struct {
	Canonical color.Canonical
	Name      string
}

// Index maps canonical colors to the palette name declared for them.
// It is built once per analysis run and is safe for concurrent use.
//
// When two declarations normalize to the same color the one recorded last
// wins.
type Index struct {
	mu      sync.RWMutex
	entries map[color.Canonical]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{entries: make(map[color.Canonical]string)}
}

// Record stores name for canonical, replacing any earlier declaration.
func (x *Index) Record(canonical color.Canonical, name string) {
	x.mu.Lock()
	x.entries[canonical] = name
	x.mu.Unlock()
}

// Lookup returns the palette name declared for canonical.
func (x *Index) Lookup(canonical color.Canonical) (string, bool) {
	x.mu.RLock()
	name, ok := x.entries[canonical]
	x.mu.RUnlock()
	return name, ok
}

// Len returns the number of distinct palette colors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Entries returns a snapshot of the index sorted by palette name.
func (x *Index) Entries() []Entry {
	x.mu.RLock()
	out := make([]Entry, 0, len(x.entries))
	for c, name := range x.entries {
		out = append(out, Entry{Canonical: c, Name: name})
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Canonical < out[j].Canonical
	})
	return out
}
