package android

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
)

// Table supplies translations for source text, one per output column.
type Table interface {
	Translations(key string) ([]string, bool)
}

// MissingColumnPolicy decides what happens when a key is found in the table
// but has no translation for the column being generated.
type MissingColumnPolicy string

const (
	// MissingColumnError aborts the rewrite with ErrIndexOutOfRange.
	MissingColumnError MissingColumnPolicy = "error"
	// MissingColumnKeep leaves the source text in place.
	MissingColumnKeep MissingColumnPolicy = "keep"
)

// ParseMissingColumnPolicy converts a config value to a MissingColumnPolicy.
// An empty string selects MissingColumnError.
func ParseMissingColumnPolicy(s string) (MissingColumnPolicy, error) {
	switch p := MissingColumnPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MissingColumnError, nil
	case MissingColumnError, MissingColumnKeep:
		return p, nil
	}
	return "", fmt.Errorf("unknown missing-column policy %q (valid: error, keep)", s)
}

// Options control a rewrite.
type Options struct {
	OnMissingColumn MissingColumnPolicy
	// EscapeApostrophes applies aapt apostrophe escaping (' -> \') to
	// inserted translations.
	EscapeApostrophes bool
	Logger            zerolog.Logger
}

// Stats counts what a rewrite did. Replaced and Untouched count leaf
// elements, so a string-array with three items contributes three.
type Stats struct {
	Removed   int
	Replaced  int
	Untouched int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Removed += o.Removed
	s.Replaced += o.Replaced
	s.Untouched += o.Untouched
}

// Rewrite translates the document in place for output column col (zero-based).
//
// Entries marked translatable="false" are removed. Every other entry has its
// text looked up in table; a match is replaced with the col-th translation,
// anything else is left as is. List entries (<string-array>, <plurals>) have
// each child rewritten independently.
func (d *Document) Rewrite(table Table, col int, opts Options) (Stats, error) {
	var st Stats
	for _, e := range d.Entries() {
		if !IsTranslatable(e) {
			d.Remove(e)
			st.Removed++
			opts.Logger.Debug().Str("name", Name(e)).Msg("dropped non-translatable entry")
			continue
		}
		if err := rewriteElement(e, table, col, opts, &st); err != nil {
			return st, fmt.Errorf("<%s name=%q>: %w", e.Tag, Name(e), err)
		}
	}
	return st, nil
}

func rewriteElement(e *etree.Element, table Table, col int, opts Options, st *Stats) error {
	if IsList(e) {
		for _, child := range e.ChildElements() {
			if err := rewriteElement(child, table, col, opts, st); err != nil {
				return err
			}
		}
		return nil
	}

	key := TextContent(e)
	translations, ok := table.Translations(key)
	if !ok {
		st.Untouched++
		return nil
	}
	if col < 0 || col >= len(translations) {
		if opts.OnMissingColumn == MissingColumnKeep {
			opts.Logger.Warn().Str("text", key).Int("column", col+1).Msg("no translation for column, keeping source text")
			st.Untouched++
			return nil
		}
		return fmt.Errorf("%w: %q has %d translation(s), column %d requested",
			ErrIndexOutOfRange, key, len(translations), col+1)
	}

	value := translations[col]
	if opts.EscapeApostrophes {
		value = escapeAndroidApostrophe(value)
	}
	SetTextContent(e, value)
	st.Replaced++
	return nil
}

// escapeAndroidApostrophe escapes apostrophes for Android AAPT without
// double-escaping (strips any existing \' first, then re-escapes).
func escapeAndroidApostrophe(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
