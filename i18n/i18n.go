// Package i18n provides internationalization support for resmap's own
// command-line messages.
//
// It wraps the gotext library to provide simple T() and N() functions
// for translating resmap's user-facing strings. Translations are embedded
// in the binary via //go:embed and loaded at startup via Init().
//
// Usage:
//
//	import "github.com/minios-linux/resmap/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from RESMAP_LANG, then LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Generate translated resource files"))
//	    fmt.Println(i18n.N("Wrote %d file", "Wrote %d files", count))
//	}
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the compiled .po/.mo translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/resmap.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for resmap.
const domain = "resmap"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init initializes the i18n system. If lang is empty, it is taken from
// RESMAP_LANG or, failing that, from LANGUAGE, LC_ALL, LC_MESSAGES and
// LANG in GNU gettext order.
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string, passing it through unchanged when no
// translation is available.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// LangEnv overrides the locale environment for resmap's own messages, so
// the CLI language can differ from the rest of the desktop.
const LangEnv = "RESMAP_LANG"

// detectLanguage picks the message language from RESMAP_LANG, then the GNU
// gettext variables LANGUAGE > LC_ALL > LC_MESSAGES > LANG.
func detectLanguage() string {
	for _, env := range []string{LangEnv, "LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == LangEnv || env == "LANGUAGE" {
			// colon-separated preference list; first usable entry wins
			for _, v := range strings.Split(val, ":") {
				if loc := normalizeLocale(v); loc != "" {
					return loc
				}
			}
			continue
		}
		if loc := normalizeLocale(val); loc != "" {
			return loc
		}
	}
	return "en"
}

// normalizeLocale turns a POSIX locale or BCP-47 tag into the ll_CC form
// used by the catalog directories. "C", "POSIX" and empty values yield "".
//
//	ru_RU.UTF-8  -> ru_RU
//	sr_RS@latin  -> sr_RS
//	pt-BR        -> pt_BR
func normalizeLocale(val string) string {
	val = strings.TrimSpace(val)
	if idx := strings.IndexAny(val, ".@"); idx >= 0 {
		val = val[:idx]
	}
	if val == "" || val == "C" || val == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(val, "-", "_")
}
