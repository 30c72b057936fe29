package checks

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmv-2143/lintchecks/internal/color"
	"github.com/bmv-2143/lintchecks/internal/diag"
	"github.com/bmv-2143/lintchecks/internal/palette"
	"github.com/bmv-2143/lintchecks/internal/resource"
)

// PaletteFileName is the resource file palette colors are declared in.
const PaletteFileName = "colors.xml"

// ErrFinished is returned when a batch is committed after Finish.
var ErrFinished = errors.New("checks: color scan already finished")

// ColorUsage is a candidate color value recorded during the first pass.
type ColorUsage struct {
	Location diag.Location
	RawValue string // decoded value as authored
	Source   string // source text at Location, used as the fix's expected text
	Path     string
	Element  *resource.Element
}

// ColorBatch is everything one resource file contributes to a run.
type ColorBatch struct {
	Path    string
	Usages  []ColorUsage
	Palette []palette.Entry
}

// IsPaletteFile reports whether path is the palette declaration file:
// colors.xml in a values folder, with or without qualifiers.
func IsPaletteFile(path string) bool {
	return filepath.Base(path) == PaletteFileName && resource.FolderType(path) == resource.FolderValues
}

// ScanDocument collects a document's color usages and, for the palette
// file, its declarations. It does not classify or report anything.
func ScanDocument(doc *resource.Document) *ColorBatch {
	v := &colorVisitor{
		doc:     doc,
		palette: IsPaletteFile(doc.Path),
		batch:   &ColorBatch{Path: doc.Path},
	}
	resource.Walk(doc, v)
	return v.batch
}

type colorVisitor struct {
	doc     *resource.Document
	palette bool
	batch   *ColorBatch
}

func (v *colorVisitor) VisitAttribute(a *resource.Attr) {
	if color.IsCandidate(a.Value) {
		v.record(a.Value, a.ValueLoc, a.Owner)
	}
}

func (v *colorVisitor) VisitElement(el *resource.Element) {
	if v.palette {
		v.declare(el)
		return
	}
	if !el.IsLeaf() || (el.Name != "item" && el.Name != "color") {
		return
	}
	if color.IsCandidate(el.Text) {
		v.record(el.Text, el.TextLoc, el)
	}
}

func (v *colorVisitor) declare(el *resource.Element) {
	name, ok := el.Attr("name")
	if !ok {
		return
	}
	if c, ok := color.Normalize(strings.TrimSpace(el.Text)); ok {
		v.batch.Palette = append(v.batch.Palette, palette.Entry{Canonical: c, Name: name})
	}
}

func (v *colorVisitor) record(raw string, loc diag.Location, owner *resource.Element) {
	v.batch.Usages = append(v.batch.Usages, ColorUsage{
		Location: loc,
		RawValue: raw,
		Source:   string(v.doc.Src[loc.StartByte:loc.EndByte]),
		Path:     v.doc.Path,
		Element:  owner,
	})
}

// ColorUsageScanner accumulates color usages and feeds the palette index
// across all resource files of a run. Nothing is reported until Finish.
// It is safe for concurrent use.
type ColorUsageScanner struct {
	mu       sync.Mutex
	index    *palette.Index
	usages   []ColorUsage
	finished bool
}

// NewColorUsageScanner creates a scanner that records declarations into idx.
func NewColorUsageScanner(idx *palette.Index) *ColorUsageScanner {
	return &ColorUsageScanner{index: idx}
}

// Scan records one document.
func (s *ColorUsageScanner) Scan(doc *resource.Document) error {
	return s.Commit(ScanDocument(doc))
}

// Commit records a batch produced by ScanDocument. Usages keep commit
// order; palette declarations are applied in order, so within a run the
// last declaration of a color wins.
func (s *ColorUsageScanner) Commit(b *ColorBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrFinished
	}
	for _, e := range b.Palette {
		s.index.Record(e.Canonical, e.Name)
	}
	s.usages = append(s.usages, b.Usages...)
	return nil
}

// Len returns the number of usages recorded so far.
func (s *ColorUsageScanner) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.usages)
}

// Finish closes the first pass and hands over the recorded usages. The
// scanner rejects further batches.
func (s *ColorUsageScanner) Finish() ([]ColorUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, ErrFinished
	}
	s.finished = true
	usages := s.usages
	s.usages = nil
	return usages, nil
}
