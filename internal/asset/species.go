package asset

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CanonicalSpecies returns the stored form of a species name: trimmed, first
// letter upper case and the remainder lower case ("great TIT" -> "Great tit").
func CanonicalSpecies(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = cases.Lower(language.Und).String(name)
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToTitle(r)) + name[size:]
}

// CanonicalSet canonicalizes, deduplicates and drops empty names.
func CanonicalSet(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c := CanonicalSpecies(n)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ParseTagPair parses a "species,count" string as used by bulk tagging.
// The count must be a positive integer.
func ParseTagPair(s string) (string, int64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("%w: tag %q must have the form species,count", ErrValidation, s)
	}
	species := CanonicalSpecies(parts[0])
	if species == "" {
		return "", 0, fmt.Errorf("%w: tag %q has an empty species", ErrValidation, s)
	}
	count, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: tag %q has an invalid count", ErrValidation, s)
	}
	if count < 1 {
		return "", 0, fmt.Errorf("%w: tag %q count must be positive", ErrValidation, s)
	}
	return species, count, nil
}

// ParseTagPairs parses a list of "species,count" strings into a map.
// When a species repeats the last pair wins.
func ParseTagPairs(tags []string) (map[string]int64, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: no tags given", ErrValidation)
	}
	out := make(map[string]int64, len(tags))
	for _, t := range tags {
		species, count, err := ParseTagPair(t)
		if err != nil {
			return nil, err
		}
		out[species] = count
	}
	return out, nil
}
