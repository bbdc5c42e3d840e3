// Package generate turns a translation table and a default strings.xml into
// one translated resource file per table column.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minios-linux/resmap/android"
	"github.com/rs/zerolog"
)

// ErrLanguageCount is returned when the configured languages do not line up
// with the table columns.
var ErrLanguageCount = errors.New("language count does not match translation columns")

// Layout selects how output files are named.
type Layout string

const (
	// LayoutIndex writes index_<n>_.xml files (n is 1-based) into DestDir.
	LayoutIndex Layout = "index"
	// LayoutAndroid writes values-<locale>/strings.xml under DestDir, which
	// is then expected to be a res/ directory.
	LayoutAndroid Layout = "android"
)

// ParseLayout converts a config value to a Layout. An empty string selects
// LayoutIndex.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LayoutIndex, nil
	case LayoutIndex, LayoutAndroid:
		return l, nil
	}
	return "", fmt.Errorf("unknown layout %q (valid: index, android)", s)
}

// Table is the translation source for a run.
type Table interface {
	android.Table
	Columns() int
}

// Options describe a generation run.
type Options struct {
	// DefaultXML is the source strings.xml, re-read for every column.
	DefaultXML string
	// DestDir receives the output files.
	DestDir string
	Layout  Layout
	// Languages names each column, in column order. Required for
	// LayoutAndroid, informational otherwise.
	Languages []string
	Rewrite   android.Options
	Logger    zerolog.Logger
}

// File describes one generated file.
type File struct {
	Column   int // 1-based
	Language string
	Path     string
	Stats    android.Stats
}

// Result lists the files written by Run, in column order.
type Result struct {
	Files []File
	Total android.Stats
}

// OutputPath returns the file written for zero-based column col.
func OutputPath(destDir string, layout Layout, languages []string, col int) string {
	if layout == LayoutAndroid && col < len(languages) {
		return android.StringsXMLPath(destDir, languages[col])
	}
	return filepath.Join(destDir, fmt.Sprintf("index_%d_.xml", col+1))
}

// Run generates one output document per table column, in order.
//
// The first error stops the run. Files written for earlier columns are left
// in place and reported in the returned Result alongside the error.
func Run(ctx context.Context, table Table, opts Options) (*Result, error) {
	res := &Result{}
	columns := table.Columns()

	if len(opts.Languages) > 0 || opts.Layout == LayoutAndroid {
		if len(opts.Languages) != columns {
			return res, fmt.Errorf("%w: %d language(s) for %d column(s)", ErrLanguageCount, len(opts.Languages), columns)
		}
	}
	if columns == 0 {
		opts.Logger.Warn().Msg("translation table is empty, nothing to generate")
		return res, nil
	}

	for col := 0; col < columns; col++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		f, err := generateColumn(table, col, opts)
		if err != nil {
			return res, fmt.Errorf("column %d: %w", col+1, err)
		}
		res.Files = append(res.Files, f)
		res.Total.Add(f.Stats)
	}

	return res, nil
}

func generateColumn(table Table, col int, opts Options) (File, error) {
	f := File{
		Column: col + 1,
		Path:   OutputPath(opts.DestDir, opts.Layout, opts.Languages, col),
	}
	if col < len(opts.Languages) {
		f.Language = opts.Languages[col]
	}

	logger := opts.Logger.With().Int("column", f.Column).Str("lang", f.Language).Logger()

	doc, err := android.ParseFile(opts.DefaultXML)
	if err != nil {
		return f, err
	}

	ro := opts.Rewrite
	ro.Logger = logger
	f.Stats, err = doc.Rewrite(table, col, ro)
	if err != nil {
		return f, err
	}

	if err := doc.WriteFile(f.Path); err != nil {
		return f, err
	}

	logger.Info().
		Str("path", f.Path).
		Int("replaced", f.Stats.Replaced).
		Int("untouched", f.Stats.Untouched).
		Int("removed", f.Stats.Removed).
		Msg("wrote resource file")
	return f, nil
}
