// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and a sequential probe that makes a bilingual slug pair unique.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"jellyarcade/internal/models"
)

// GameSuffix is appended to the English slug of every game.
const GameSuffix = "-play"

// MaxAttempts bounds the uniqueness probe.
const MaxAttempts = 1000

var (
	// ErrEmpty is returned when a title contains nothing slug-worthy.
	ErrEmpty = errors.New("title does not produce a usable slug")
	// ErrExhausted is returned when MaxAttempts candidates are all taken.
	ErrExhausted = errors.New("no free slug candidate")
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of whitespace between words.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Letters that do not decompose into a base letter plus a combining mark.
var foldReplacer = strings.NewReplacer(
	"ı", "i", "İ", "i",
	"ß", "ss", "æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o", "ł", "l", "Ł", "l",
	"đ", "d", "Đ", "d",
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Araba Yarışı 2026!" → "araba-yarisi-2026"
func Generate(s string) string {
	result := foldReplacer.Replace(strings.TrimSpace(s))

	// transform.Chain keeps state, so a fresh chain is built per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, result); err == nil {
		result = folded
	}

	result = strings.ToLower(result)
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Base slugifies both translations of title and appends suffixEN to the
// English one. It fails with ErrEmpty when either side slugifies to nothing.
func Base(title models.Localized, suffixEN string) (models.Localized, error) {
	base := models.Localized{TR: Generate(title.TR), EN: Generate(title.EN)}
	if base.TR == "" || base.EN == "" {
		return models.Localized{}, ErrEmpty
	}
	base.EN += suffixEN
	return base, nil
}

// TakenFunc reports whether candidate is already used in loc by an entity
// other than the one being written.
type TakenFunc func(ctx context.Context, loc models.Locale, candidate string) (bool, error)

// Resolve probes base, then base-1, base-2, ... on both locales at once and
// returns the first pair where neither side is taken. The probe is
// sequential so the same sequence of writes always yields the same slugs.
func Resolve(ctx context.Context, base models.Localized, taken TakenFunc) (models.Localized, error) {
	candidate := base
	for counter := 1; counter <= MaxAttempts; counter++ {
		collides, err := anyTaken(ctx, candidate, taken)
		if err != nil {
			return models.Localized{}, err
		}
		if !collides {
			return candidate, nil
		}
		candidate = models.Localized{
			TR: fmt.Sprintf("%s-%d", base.TR, counter),
			EN: fmt.Sprintf("%s-%d", base.EN, counter),
		}
	}
	return models.Localized{}, ErrExhausted
}

func anyTaken(ctx context.Context, candidate models.Localized, taken TakenFunc) (bool, error) {
	for _, loc := range models.Locales {
		ok, err := taken(ctx, loc, candidate.Get(loc))
		if err != nil {
			return false, fmt.Errorf("check slug %q: %w", candidate.Get(loc), err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
