// Command resmap generates translated Android strings.xml files from a CSV table.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/minios-linux/resmap/android"
	"github.com/minios-linux/resmap/config"
	"github.com/minios-linux/resmap/csvtable"
	"github.com/minios-linux/resmap/generate"
	"github.com/minios-linux/resmap/i18n"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// sampleSize caps how many keys are listed in warnings and reports.
const sampleSize = 5

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	verbose    bool
)

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resmap",
		Short: i18n.T("Generate translated Android strings.xml files from a CSV table"),
		Long: i18n.T(`resmap maps a CSV translation table onto a default Android strings.xml.

Each CSV line is "source text,translation 1,translation 2,...". For every
translation column resmap writes one copy of the default strings.xml in
which matching text is replaced and translatable="false" entries are dropped.

Settings come from .resmap.yaml, a .env file, RESMAP_* environment
variables and flags, in increasing order of precedence.

Commands:
  generate    Write one translated strings.xml per CSV column
  inspect     Show what the CSV table and default strings.xml contain
  version     Show version information`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", i18n.T("Config file (default <root>/.resmap.yaml)"))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, i18n.T("Log every dropped entry"))

	root.AddCommand(
		newGenerateCmd(),
		newInspectCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	setupLogging(false)

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg(i18n.T("resmap failed"))
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  i18n.T(`Display version, commit hash, and build date.`),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "resmap version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Config flags shared by generate and inspect
// ---------------------------------------------------------------------------

type configFlags struct {
	csv               string
	defaultXML        string
	destDir           string
	columns           string
	onMissingColumn   string
	layout            string
	languages         []string
	escapeApostrophes bool
}

func (f *configFlags) registerTable(fs *pflag.FlagSet) {
	fs.StringVar(&f.csv, "csv", "", i18n.T("CSV translation table"))
	fs.StringVarP(&f.defaultXML, "default-xml", "x", "", i18n.T("Default strings.xml"))
	fs.StringVar(&f.columns, "columns", "", i18n.T("Column count policy: strict, min, last (default strict)"))
	fs.StringSliceVarP(&f.languages, "lang", "l", nil, i18n.T("Language code of each CSV column, in order (e.g. es,fr,pt-BR)"))
}

func (f *configFlags) registerOutput(fs *pflag.FlagSet) {
	fs.StringVarP(&f.destDir, "dest", "o", "", i18n.T("Output directory (default .)"))
	fs.StringVar(&f.onMissingColumn, "on-missing-column", "", i18n.T("When a key lacks a translation for a column: error, keep (default error)"))
	fs.StringVar(&f.layout, "layout", "", i18n.T("Output naming: index (index_N_.xml) or android (values-LANG/strings.xml)"))
	fs.BoolVar(&f.escapeApostrophes, "escape-apostrophes", false, i18n.T("Escape ' as \\' in inserted translations"))
}

// apply copies explicitly set flags over cfg.
func (f *configFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("csv") {
		cfg.CSV = f.csv
	}
	if fs.Changed("default-xml") {
		cfg.DefaultXML = f.defaultXML
	}
	if fs.Changed("columns") {
		cfg.Columns = f.columns
	}
	if fs.Changed("lang") {
		cfg.Languages = f.languages
	}
	if fs.Changed("dest") {
		cfg.DestDir = f.destDir
	}
	if fs.Changed("on-missing-column") {
		cfg.OnMissingColumn = f.onMissingColumn
	}
	if fs.Changed("layout") {
		cfg.Layout = f.layout
	}
	if fs.Changed("escape-apostrophes") {
		cfg.EscapeApostrophes = f.escapeApostrophes
	}
}

func loadConfig(fs *pflag.FlagSet, f *configFlags) (*config.Config, error) {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return nil, err
	}
	f.apply(fs, cfg)
	if cfg.Source != "" {
		log.Debug().Str("path", cfg.Source).Msg(i18n.T("Loaded config file"))
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

func newGenerateCmd() *cobra.Command {
	var f configFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: i18n.T("Write one translated strings.xml per CSV column"),
		Long: i18n.T(`Load the CSV table, then for every translation column re-read the
default strings.xml, drop translatable="false" entries, replace text found
in the table, and write the result.

Output files are named index_1_.xml, index_2_.xml, ... in the output
directory, or values-LANG/strings.xml with --layout android --lang ....

The first error stops generation. Files already written are kept.`),
		Example: `  resmap generate --csv strings.csv -x res/values/strings.xml -o out
  resmap generate --layout android --lang es,fr -o app/src/main/res`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, &f)
		},
	}

	f.registerTable(cmd.Flags())
	f.registerOutput(cmd.Flags())
	_ = cmd.RegisterFlagCompletionFunc("columns", fixedCompletion("strict", "min", "last"))
	_ = cmd.RegisterFlagCompletionFunc("on-missing-column", fixedCompletion("error", "keep"))
	_ = cmd.RegisterFlagCompletionFunc("layout", fixedCompletion("index", "android"))

	return cmd
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func runGenerate(cmd *cobra.Command, f *configFlags) error {
	cfg, err := loadConfig(cmd.Flags(), f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := csvtable.Load(cfg.CSV, cfg.ColumnPolicy())
	if err != nil {
		return err
	}
	log.Info().
		Str("csv", cfg.CSV).
		Int("keys", table.Len()).
		Int("columns", table.Columns()).
		Msg(i18n.T("Loaded translation table"))

	if short := table.Short(table.Columns()); len(short) > 0 {
		log.Warn().
			Int("keys", len(short)).
			Strs("sample", sample(short)).
			Msg(i18n.T("Some keys have fewer translations than columns"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.GenerateOptions()
	opts.Logger = log.Logger
	res, err := generate.Run(ctx, table, opts)
	if err != nil {
		if res != nil && len(res.Files) > 0 {
			log.Warn().Int("files", len(res.Files)).Msg(i18n.T("Files written before the failure were kept"))
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, i18n.N("Generated %d file", "Generated %d files", len(res.Files))+"\n", len(res.Files))
	for _, file := range res.Files {
		fmt.Fprintf(out, "  %s\n", file.Path)
	}
	fmt.Fprintf(out, i18n.T("Replaced: %d  Untouched: %d  Removed: %d")+"\n",
		res.Total.Replaced, res.Total.Untouched, res.Total.Removed)
	return nil
}

// ---------------------------------------------------------------------------
// inspect (read-only)
// ---------------------------------------------------------------------------

func newInspectCmd() *cobra.Command {
	var f configFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: i18n.T("Show what the CSV table and default strings.xml contain"),
		Long: i18n.T(`Load the CSV table and report its keys and columns. When a default
strings.xml is configured, also report its entries and how many of them
the table covers. Does not write any files.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, &f)
		},
	}

	f.registerTable(cmd.Flags())
	_ = cmd.RegisterFlagCompletionFunc("columns", fixedCompletion("strict", "min", "last"))

	return cmd
}

func runInspect(cmd *cobra.Command, f *configFlags) error {
	cfg, err := loadConfig(cmd.Flags(), f)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTable(); err != nil {
		return err
	}

	table, err := csvtable.Load(cfg.CSV, cfg.ColumnPolicy())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printTableReport(out, cfg, table)

	if cfg.DefaultXML == "" {
		return nil
	}
	doc, err := android.ParseFile(cfg.DefaultXML)
	if err != nil {
		return err
	}
	summary := doc.Summarize()

	// Column 0 is enough to measure coverage; keep mode avoids failing on
	// short rows.
	coverage, err := doc.Rewrite(table, 0, android.Options{
		OnMissingColumn: android.MissingColumnKeep,
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		return err
	}
	printDocumentReport(out, cfg.DefaultXML, summary, coverage)
	return nil
}

func printTableReport(out io.Writer, cfg *config.Config, table *csvtable.Table) {
	fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, i18n.T("Translation table"), colorReset)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("File:"), cfg.CSV)
	fmt.Fprintf(out, "  %-12s %d\n", i18n.T("Keys:"), table.Len())
	fmt.Fprintf(out, "  %-12s %d\n", i18n.T("Columns:"), table.Columns())

	for col := 0; col < table.Columns(); col++ {
		lang, name := "", ""
		if col < len(cfg.Languages) {
			lang = cfg.Languages[col]
			name = languageName(lang)
		}
		fmt.Fprintf(out, "    %2d  %-10s %s\n", col+1, lang, name)
	}

	if short := table.Short(table.Columns()); len(short) > 0 {
		fmt.Fprintf(out, "  %s%s%s %d (%s)\n", colorYellow, i18n.T("Short rows:"), colorReset,
			len(short), strings.Join(sample(short), ", "))
	}
}

func printDocumentReport(out io.Writer, path string, s android.Summary, coverage android.Stats) {
	fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, i18n.T("Default resources"), colorReset)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "  %-18s %s\n", i18n.T("File:"), path)
	fmt.Fprintf(out, "  %-18s %d\n", i18n.T("Strings:"), s.Strings)
	fmt.Fprintf(out, "  %-18s %d\n", i18n.T("String arrays:"), s.StringArrays)
	fmt.Fprintf(out, "  %-18s %d\n", i18n.T("Plurals:"), s.Plurals)
	fmt.Fprintf(out, "  %-18s %d\n", i18n.T("List items:"), s.Items)
	if s.Other > 0 {
		fmt.Fprintf(out, "  %-18s %d\n", i18n.T("Other elements:"), s.Other)
	}
	fmt.Fprintf(out, "  %-18s %d\n", i18n.T("Non-translatable:"), s.NonTranslatable)

	total := coverage.Replaced + coverage.Untouched
	percent := 0
	if total > 0 {
		percent = coverage.Replaced * 100 / total
	}
	fmt.Fprintf(out, "  %-18s %d/%d (%d%%)\n", i18n.T("Covered by table:"), coverage.Replaced, total, percent)
}

// languageName returns the native display name of a language tag, or ""
// when it cannot be determined.
func languageName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	return display.Self.Name(tag)
}

func sample(keys []string) []string {
	if len(keys) > sampleSize {
		return keys[:sampleSize]
	}
	return keys
}
