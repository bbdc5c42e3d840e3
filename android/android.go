// Package android reads, rewrites and writes Android strings.xml resource
// documents.
//
// Supported resource types:
//   - <string>        simple key/value string
//   - <string-array>  ordered list of <item> strings
//   - <plurals>       quantity-keyed <item> strings
//
// Unlike a parse-to-struct model, a Document keeps the full XML tree:
// comments, whitespace, unknown elements and attribute order survive a
// rewrite untouched, so generated files diff cleanly against the source.
package android

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// Element names used by Android resource files.
const (
	TagResources   = "resources"
	TagString      = "string"
	TagStringArray = "string-array"
	TagPlurals     = "plurals"
	TagItem        = "item"
)

var (
	// ErrParse is returned when the document is not well-formed XML.
	ErrParse = errors.New("cannot parse resource document")
	// ErrMissingRoot is returned when the document has no <resources> element.
	ErrMissingRoot = errors.New("no <resources> element")
	// ErrSerialize is returned when the document cannot be written.
	ErrSerialize = errors.New("cannot write resource document")
	// ErrIndexOutOfRange is returned when a key has no translation for the
	// requested column.
	ErrIndexOutOfRange = errors.New("translation column out of range")
)

// Document is a parsed strings.xml file.
type Document struct {
	doc  *etree.Document
	root *etree.Element
}

// ParseFile reads and parses an Android strings.xml file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse parses Android strings.xml data. The first <resources> element in
// document order becomes the root container.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	root := findElement(&doc.Element, TagResources)
	if root == nil {
		return nil, ErrMissingRoot
	}

	// Only &, < and > are escaped in text, as aapt expects; &apos; would
	// reach the app as a bare apostrophe and fail the resource build.
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true

	if !hasDeclaration(doc) {
		doc.InsertChildAt(0, etree.NewText("\n"))
		doc.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="utf-8"`))
	}

	return &Document{doc: doc, root: root}, nil
}

// findElement returns the first element named tag at or below e, walking
// depth-first in document order.
func findElement(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func hasDeclaration(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		if p, ok := tok.(*etree.ProcInst); ok && p.Target == "xml" {
			return true
		}
	}
	return false
}

// Root returns the <resources> element.
func (d *Document) Root() *etree.Element { return d.root }

// Entries returns a snapshot of the root's child elements in document order.
// Comments and whitespace between elements are not entries. The snapshot is
// safe to iterate while removing entries from the document.
func (d *Document) Entries() []*etree.Element {
	return d.root.ChildElements()
}

// Remove detaches an entry from the root container.
func (d *Document) Remove(e *etree.Element) {
	d.root.RemoveChild(e)
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	data, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	return data, nil
}

// WriteFile writes the document to path, creating parent directories.
func (d *Document) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: creating directory: %w", ErrSerialize, err)
	}
	if err := d.doc.WriteToFile(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSerialize, path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Entry helpers
// ---------------------------------------------------------------------------

// Name returns the name="…" attribute of an entry.
func Name(e *etree.Element) string {
	return e.SelectAttrValue("name", "")
}

// IsTranslatable reports whether an entry should appear in translated
// output. Only translatable="false" (any case) opts out.
func IsTranslatable(e *etree.Element) bool {
	attr := e.SelectAttr("translatable")
	if attr == nil {
		return true
	}
	return !strings.EqualFold(attr.Value, "false")
}

// IsList reports whether an entry wraps several <item> strings.
func IsList(e *etree.Element) bool {
	return e.Tag == TagStringArray || e.Tag == TagPlurals
}

// TextContent returns the concatenated character data of e and all of its
// descendants, CDATA included and comments excluded.
func TextContent(e *etree.Element) string {
	var b strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				b.WriteString(t.Data)
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(e)
	return b.String()
}

// SetTextContent replaces every child of e with a single text node. When the
// previous content was wrapped in CDATA, the new text is as well.
func SetTextContent(e *etree.Element, text string) {
	cdata := usesCDATA(e)
	for len(e.Child) > 0 {
		e.RemoveChildAt(0)
	}
	if cdata {
		e.CreateCData(text)
		return
	}
	e.SetText(text)
}

// usesCDATA reports whether e holds a CDATA section and no child elements.
func usesCDATA(e *etree.Element) bool {
	found := false
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if t.IsCData() {
				found = true
			}
		case *etree.Element:
			return false
		}
	}
	return found
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Summary counts the top-level contents of a document.
type Summary struct {
	Strings         int
	StringArrays    int
	Plurals         int
	// Items counts <item> children of string-array and plurals entries.
	Items           int
	Other           int
	NonTranslatable int
	Comments        int
}

// Summarize counts entries by kind. Non-translatable entries are counted both
// under their kind and in NonTranslatable.
func (d *Document) Summarize() Summary {
	var s Summary
	for _, tok := range d.root.Child {
		switch t := tok.(type) {
		case *etree.Comment:
			s.Comments++
		case *etree.Element:
			switch t.Tag {
			case TagString:
				s.Strings++
			case TagStringArray:
				s.StringArrays++
				s.Items += countItems(t)
			case TagPlurals:
				s.Plurals++
				s.Items += countItems(t)
			default:
				s.Other++
			}
			if !IsTranslatable(t) {
				s.NonTranslatable++
			}
		}
	}
	return s
}

func countItems(e *etree.Element) int {
	return len(e.SelectElements(TagItem))
}
