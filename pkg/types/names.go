// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

var keywordReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// SanitizeKeyword turns a search keyword into a file-name fragment.
func SanitizeKeyword(keyword string) string {
	return keywordReplacer.Replace(strings.TrimSpace(keyword))
}

var languageSuffixes = map[string]string{
	"korean":   "ko",
	"japanese": "ja",
	"chinese":  "zh",
	"english":  "en",
	"german":   "de",
	"french":   "fr",
	"spanish":  "es",
}

// LanguageSuffix returns the report file suffix for a target language: an
// ISO 639-1 code for common languages, otherwise the sanitized lowercase name.
func LanguageSuffix(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if code, ok := languageSuffixes[l]; ok {
		return code
	}
	return SanitizeKeyword(l)
}
