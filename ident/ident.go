// Package ident holds the deterministic identifier and name-normalization
// rules for synthesized entities. Everything here is a pure function so the
// idempotence of regeneration can be tested without a database.
package ident

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCity canonicalizes a city name for matching and hashing:
// lowercase, diacritics stripped (NFD, combining marks removed), and every
// rune outside [a-z0-9а-я] dropped.
func NormalizeCity(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	flat, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		flat = strings.ToLower(name)
	}
	var b strings.Builder
	for _, r := range flat {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= 'а' && r <= 'я':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VirtualStopID derives the stable identifier for a city's virtual stop.
// Hashing the normalized name makes regeneration idempotent.
func VirtualStopID(city string) string {
	h := fnv.New64a()
	h.Write([]byte(NormalizeCity(city)))
	return fmt.Sprintf("vs-%016x", h.Sum64())
}

// VirtualRouteID derives the identifier for a virtual route leg. The two
// directions of a bidirectional pair get distinct ids.
func VirtualRouteID(fromStopID, toStopID string) string {
	return fmt.Sprintf("vr-%s-%s", fromStopID, toStopID)
}

// VirtualFlightID derives the identifier for one synthesized trip instance.
func VirtualFlightID(routeID string, dayOffset, slot int) string {
	return fmt.Sprintf("vf-%s-d%03d-s%d", routeID, dayOffset, slot)
}
