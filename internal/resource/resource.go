// Package resource parses Android XML resource files into a small DOM that
// keeps byte-accurate positions for attribute values and element text, so
// diagnostics and fixes can point at the exact value that was authored.
package resource

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmv-2143/lintchecks/internal/diag"
)

// Folder types used by the detectors.
const (
	FolderValues = "values"
)

// Document is a parsed resource file.
type Document struct {
	Path   string
	Folder string // resource folder type, e.g. "values" for res/values-night
	Root   *Element
	Src    []byte
}

// Element is an XML element. Text and TextLoc are set when the element has
// non-whitespace character data; TextLoc spans the trimmed raw text.
type Element struct {
	Name     string
	Attrs    []*Attr
	Children []*Element
	Parent   *Element
	Text     string
	TextLoc  diag.Location
	Loc      diag.Location
}

// Attr is an attribute. ValueLoc spans the raw value between the quotes.
type Attr struct {
	Name     string // prefixed, e.g. "android:textColor"
	Value    string // entity-decoded
	ValueLoc diag.Location
	Owner    *Element
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsLeaf reports whether the element has no child elements.
func (e *Element) IsLeaf() bool {
	return len(e.Children) == 0
}

// Parse decodes src. The document keeps a reference to src.
func Parse(path string, src []byte) (*Document, error) {
	p := &parser{
		path:  path,
		src:   src,
		lines: newLineIndex(src),
	}
	root, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("resource: parsing %s: %w", path, err)
	}
	return &Document{Path: path, Folder: FolderType(path), Root: root, Src: src}, nil
}

type parser struct {
	path  string
	src   []byte
	lines lineIndex
}

func (p *parser) parse() (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(p.src))

	var (
		root    *Element
		current *Element
		text    textSpan
	)
	for {
		start := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		end := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			if current != nil {
				p.finishText(current, &text)
			}
			el := &Element{
				Name:   qualifiedName(t.Name),
				Parent: current,
				Loc:    p.location(start, end),
			}
			p.readAttrs(el, t.Attr, start, end)
			if current == nil {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = el
			} else {
				current.Children = append(current.Children, el)
			}
			current = el
			text = textSpan{}
		case xml.EndElement:
			if current == nil {
				return nil, fmt.Errorf("unexpected </%s>", qualifiedName(t.Name))
			}
			if name := qualifiedName(t.Name); name != current.Name {
				return nil, fmt.Errorf("element <%s> closed by </%s>", current.Name, name)
			}
			p.finishText(current, &text)
			current = current.Parent
			text = textSpan{}
		case xml.CharData:
			if current != nil {
				text.add(p.src, start, end, string(t))
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	if current != nil {
		return nil, fmt.Errorf("unclosed <%s>", current.Name)
	}
	return root, nil
}

func (p *parser) finishText(el *Element, text *textSpan) {
	if text.empty() {
		return
	}
	el.Text = strings.TrimSpace(el.Text + text.value.String())
	el.TextLoc = p.location(text.start, text.end)
	*text = textSpan{}
}

// readAttrs pairs decoded attributes with the value spans found by scanning
// the raw start tag. Both lists are in source order.
func (p *parser) readAttrs(el *Element, attrs []xml.Attr, start, end int) {
	spans := scanAttrSpans(p.src[start:end], start)
	for i, a := range attrs {
		attr := &Attr{
			Name:  qualifiedName(a.Name),
			Value: a.Value,
			Owner: el,
		}
		if i < len(spans) && spans[i].name == attr.Name {
			attr.ValueLoc = p.location(spans[i].start, spans[i].end)
		} else {
			attr.ValueLoc = el.Loc
		}
		el.Attrs = append(el.Attrs, attr)
	}
}

func (p *parser) location(start, end int) diag.Location {
	sl, sc := p.lines.position(start)
	el, ec := p.lines.position(end)
	return diag.Location{
		Path:      p.path,
		StartLine: sl,
		StartCol:  sc,
		EndLine:   el,
		EndCol:    ec,
		StartByte: start,
		EndByte:   end,
	}
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// textSpan accumulates the character data of one element between tags.
// start and end cover the raw bytes without leading and trailing
// whitespace.
type textSpan struct {
	start, end int
	value      strings.Builder
	set        bool
}

func (t *textSpan) add(src []byte, start, end int, decoded string) {
	raw := src[start:end]
	lead := len(raw) - len(bytes.TrimLeft(raw, " \t\r\n"))
	trail := len(raw) - len(bytes.TrimRight(raw, " \t\r\n"))
	t.value.WriteString(decoded)
	if lead == len(raw) {
		return
	}
	if !t.set {
		t.start = start + lead
		t.set = true
	}
	t.end = end - trail
}

func (t *textSpan) empty() bool {
	return !t.set
}

type attrSpan struct {
	name       string
	start, end int
}

// scanAttrSpans finds the raw value span of each attribute in a start tag.
// base is the offset of tag within the document.
func scanAttrSpans(tag []byte, base int) []attrSpan {
	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	var spans []attrSpan
	for {
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] == '>' || tag[i] == '/' {
			return spans
		}
		ns := i
		for i < len(tag) && tag[i] != '=' && !isSpace(tag[i]) && tag[i] != '>' {
			i++
		}
		name := string(tag[ns:i])
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			return spans
		}
		i++
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || (tag[i] != '"' && tag[i] != '\'') {
			return spans
		}
		quote := tag[i]
		i++
		vs := i
		for i < len(tag) && tag[i] != quote {
			i++
		}
		spans = append(spans, attrSpan{name: name, start: base + vs, end: base + i})
		i++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// lineIndex maps byte offsets to 1-based line and column.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, c := range src {
		if c == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) position(offset int) (line, col int) {
	i := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	return i + 1, offset - l[i] + 1
}

// Visitor receives elements and attributes during Walk.
type Visitor interface {
	VisitElement(el *Element)
	VisitAttribute(attr *Attr)
}

// Walk visits every element in document order: the element's attributes,
// then the element, then its children. Attribute values precede an
// element's text in the source, so visits follow source positions.
func Walk(doc *Document, v Visitor) {
	if doc.Root != nil {
		walk(doc.Root, v)
	}
}

func walk(el *Element, v Visitor) {
	for _, a := range el.Attrs {
		v.VisitAttribute(a)
	}
	v.VisitElement(el)
	for _, c := range el.Children {
		walk(c, v)
	}
}

// FolderType returns the resource type of the folder containing path,
// without qualifiers: "res/values-night/colors.xml" gives "values".
func FolderType(path string) string {
	folder := filepath.Base(filepath.Dir(path))
	typ, _, _ := strings.Cut(folder, "-")
	return typ
}

// IsResourcePath reports whether path is an XML file inside a resource
// folder (<something>/res/<folder>/<file>.xml).
func IsResourcePath(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		return false
	}
	dir := filepath.Dir(path)
	return filepath.Base(filepath.Dir(dir)) == "res"
}
