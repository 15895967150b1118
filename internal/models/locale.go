// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale selects one side of a locale-keyed field.
type Locale string

const (
	LocaleTR Locale = "tr"
	LocaleEN Locale = "en"

	// DefaultLocale is used when a request does not ask for a language.
	DefaultLocale = LocaleTR
)

// Locales lists every supported locale in storage order.
var Locales = []Locale{LocaleTR, LocaleEN}

var localeMatcher = language.NewMatcher([]language.Tag{language.Turkish, language.English})

// ParseLocale resolves a lang query value such as "en", "en-GB" or "TR"
// to a supported locale. Unknown or empty values fall back to DefaultLocale.
func ParseLocale(raw string) Locale {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	return Locales[idx]
}
