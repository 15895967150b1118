// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Localized is a string stored as parallel Turkish and English translations.
// It is persisted as a JSONB document.
type Localized struct {
	TR string `json:"tr"`
	EN string `json:"en"`
}

// Get returns the translation for the given locale.
func (l Localized) Get(loc Locale) string {
	if loc == LocaleEN {
		return l.EN
	}
	return l.TR
}

// Complete reports whether both translations are non-blank.
func (l Localized) Complete() bool {
	return strings.TrimSpace(l.TR) != "" && strings.TrimSpace(l.EN) != ""
}

// Merge returns l with every blank translation replaced by the one in fallback.
func (l Localized) Merge(fallback Localized) Localized {
	if l.TR == "" {
		l.TR = fallback.TR
	}
	if l.EN == "" {
		l.EN = fallback.EN
	}
	return l
}

// Value implements driver.Valuer.
func (l Localized) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *Localized) Scan(src any) error {
	return scanJSON(src, l)
}

// LocalizedList is a list of strings per locale, used for keywords.
type LocalizedList struct {
	TR []string `json:"tr"`
	EN []string `json:"en"`
}

// Get returns the list for the given locale, never nil.
func (l LocalizedList) Get(loc Locale) []string {
	v := l.TR
	if loc == LocaleEN {
		v = l.EN
	}
	if v == nil {
		return []string{}
	}
	return v
}

// Merge returns l with every nil list replaced by the one in fallback.
func (l LocalizedList) Merge(fallback LocalizedList) LocalizedList {
	if l.TR == nil {
		l.TR = fallback.TR
	}
	if l.EN == nil {
		l.EN = fallback.EN
	}
	return l
}

// Normalize replaces nil lists with empty ones so they serialize as [].
func (l LocalizedList) Normalize() LocalizedList {
	if l.TR == nil {
		l.TR = []string{}
	}
	if l.EN == nil {
		l.EN = []string{}
	}
	return l
}

// Value implements driver.Valuer.
func (l LocalizedList) Value() (driver.Value, error) {
	b, err := json.Marshal(l.Normalize())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *LocalizedList) Scan(src any) error {
	return scanJSON(src, l)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("scan json: unsupported type %T", src)
	}
}
