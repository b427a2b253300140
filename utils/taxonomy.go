package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TaxonomyKey turns free-form curriculum input into its canonical key:
// "Acto Jurídico" and "acto-juridico" both become "ACTO_JURIDICO".
func TaxonomyKey(raw string) string {
	s := slug.MakeLang(strings.TrimSpace(raw), "es")
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}

// TaxonomyLabel builds a readable fallback label from a key with no curated one.
func TaxonomyLabel(key string) string {
	return cases.Title(language.Spanish).String(strings.ReplaceAll(strings.ToLower(key), "_", " "))
}
