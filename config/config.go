// Package config loads resmap run configuration.
//
// Settings are layered, later layers winning:
//
//  1. .resmap.yaml (or .resmap.toml) in the project root, or an explicit
//     --config path;
//  2. a .env file in the project root, then RESMAP_* environment variables;
//  3. command-line flags, applied by the caller before Validate.
//
// Relative paths from the YAML file are resolved against the directory that
// holds it. Paths from the environment and flags are used as given.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/resmap/android"
	"github.com/minios-linux/resmap/csvtable"
	"github.com/minios-linux/resmap/generate"
)

// FileName is the default config file name.
const FileName = ".resmap.yaml"

// TOMLFileName is looked up when FileName is absent.
const TOMLFileName = ".resmap.toml"

// EnvFileName is the dotenv file read from the project root.
const EnvFileName = ".env"

// Config is the complete set of settings for a run.
type Config struct {
	// CSV is the translation table.
	CSV string `yaml:"csv" toml:"csv" env:"RESMAP_CSV"`
	// DefaultXML is the default-language strings.xml.
	DefaultXML string `yaml:"default_xml" toml:"default_xml" env:"RESMAP_DEFAULT_XML"`
	// DestDir receives the generated files (default ".").
	DestDir string `yaml:"dest_dir,omitempty" toml:"dest_dir" env:"RESMAP_DEST_DIR"`
	// Columns is the column-count policy: strict, min or last.
	Columns string `yaml:"columns,omitempty" toml:"columns" env:"RESMAP_COLUMNS"`
	// OnMissingColumn is what to do when a key lacks a column: error or keep.
	OnMissingColumn string `yaml:"on_missing_column,omitempty" toml:"on_missing_column" env:"RESMAP_ON_MISSING_COLUMN"`
	// Layout names the output files: index or android.
	Layout string `yaml:"layout,omitempty" toml:"layout" env:"RESMAP_LAYOUT"`
	// Languages names the CSV translation columns, in order.
	Languages []string `yaml:"languages,omitempty" toml:"languages" env:"RESMAP_LANGUAGES" envSeparator:","`
	// EscapeApostrophes escapes ' as \' in inserted translations.
	EscapeApostrophes bool `yaml:"escape_apostrophes,omitempty" toml:"escape_apostrophes" env:"RESMAP_ESCAPE_APOSTROPHES"`

	// Source is the config file that was loaded, if any.
	Source string `yaml:"-" toml:"-"`
}

// Load builds a Config from the config file and the environment.
//
// If configPath is empty, rootDir/.resmap.yaml or rootDir/.resmap.toml is
// used when present and silently skipped otherwise. An explicit configPath
// must exist.
func Load(rootDir, configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	} else {
		for _, name := range []string{FileName, TOMLFileName} {
			err := cfg.loadFile(filepath.Join(rootDir, name))
			if err == nil {
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(filepath.Join(rootDir, EnvFileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", EnvFileName, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return cfg, nil
}

// loadFile reads a YAML or TOML config file into cfg and resolves its
// relative paths. Files ending in .toml are TOML, anything else is YAML.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}
	if err := unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	base := filepath.Dir(path)
	c.CSV = resolve(base, c.CSV)
	c.DefaultXML = resolve(base, c.DefaultXML)
	c.DestDir = resolve(base, c.DestDir)
	c.Source = path
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate applies defaults and checks every setting needed to generate.
func (c *Config) Validate() error {
	if err := c.ValidateTable(); err != nil {
		return err
	}
	if c.DefaultXML == "" {
		return errors.New("default resource file is not set (default_xml, RESMAP_DEFAULT_XML or --default-xml)")
	}
	if c.DestDir == "" {
		c.DestDir = "."
	}

	if _, err := android.ParseMissingColumnPolicy(c.OnMissingColumn); err != nil {
		return err
	}
	layout, err := generate.ParseLayout(c.Layout)
	if err != nil {
		return err
	}
	if layout == generate.LayoutAndroid && len(c.Languages) == 0 {
		return errors.New("layout \"android\" requires languages")
	}
	return nil
}

// ValidateTable checks only what is needed to load the CSV table.
func (c *Config) ValidateTable() error {
	if c.CSV == "" {
		return errors.New("CSV file is not set (csv, RESMAP_CSV or --csv)")
	}
	if _, err := csvtable.ParseColumnPolicy(c.Columns); err != nil {
		return err
	}

	for i, lang := range c.Languages {
		tag, err := language.Parse(strings.TrimSpace(lang))
		if err != nil {
			return fmt.Errorf("languages[%d]: %q is not a valid BCP-47 tag: %w", i, lang, err)
		}
		c.Languages[i] = tag.String()
	}
	return nil
}

// ColumnPolicy returns the parsed column policy. Call after Validate.
func (c *Config) ColumnPolicy() csvtable.ColumnPolicy {
	p, _ := csvtable.ParseColumnPolicy(c.Columns)
	return p
}

// GenerateOptions converts the config into pipeline options. Call after
// Validate.
func (c *Config) GenerateOptions() generate.Options {
	layout, _ := generate.ParseLayout(c.Layout)
	missing, _ := android.ParseMissingColumnPolicy(c.OnMissingColumn)
	return generate.Options{
		DefaultXML: c.DefaultXML,
		DestDir:    c.DestDir,
		Layout:     layout,
		Languages:  c.Languages,
		Rewrite: android.Options{
			OnMissingColumn:   missing,
			EscapeApostrophes: c.EscapeApostrophes,
		},
	}
}
