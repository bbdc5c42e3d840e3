package android

import (
	"path/filepath"
	"strings"
)

// AndroidLocaleDirName converts a BCP-47 language tag to an Android values
// directory name.
//
//	ru          -> values-ru
//	pt-BR       -> values-pt-rBR
//	zh-Hant-TW  -> values-b+zh+Hant+TW
func AndroidLocaleDirName(lang string) string {
	return "values-" + standardToAndroidLocale(lang)
}

// StringsXMLPath returns the path to strings.xml for a given language.
func StringsXMLPath(resDir, lang string) string {
	return filepath.Join(resDir, AndroidLocaleDirName(lang), "strings.xml")
}

// standardToAndroidLocale converts BCP-47 to Android locale qualifier format.
// Language+region pairs use the legacy "-r" form; anything with a script or
// variant needs the "b+" form introduced in API 24.
func standardToAndroidLocale(lang string) string {
	parts := strings.Split(lang, "-")
	switch {
	case len(parts) == 1:
		return lang
	case len(parts) == 2 && isRegion(parts[1]):
		return parts[0] + "-r" + parts[1]
	}
	return "b+" + strings.Join(parts, "+")
}

// isRegion reports whether s is an ISO 3166 alpha-2 or UN M.49 region subtag.
func isRegion(s string) bool {
	switch len(s) {
	case 2:
		return isUpperOrLower(s[0]) && isUpperOrLower(s[1])
	case 3:
		for i := 0; i < 3; i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	}
	return false
}

func isUpperOrLower(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
