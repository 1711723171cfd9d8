package service

import (
	"regexp"
	"strings"
)

// Sentinel is the marker a persona emits to close the dialog.
const Sentinel = "FINALIZAR API"

var sentinelPattern = regexp.MustCompile(`(?i)\s*` + regexp.QuoteMeta(Sentinel) + `\s*`)

// ContainsSentinel reports whether text carries the sentinel, ignoring case.
func ContainsSentinel(text string) bool {
	return sentinelPattern.MatchString(text)
}

// DetectSentinel strips every sentinel occurrence, with the whitespace around
// it, from text. Text left on both sides of a removed sentinel is joined by
// a single space. finished reports whether any sentinel was found.
func DetectSentinel(text string) (visible string, finished bool) {
	locs := sentinelPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, false
	}

	parts := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		if piece := text[prev:loc[0]]; piece != "" {
			parts = append(parts, piece)
		}
		prev = loc[1]
	}
	if piece := text[prev:]; piece != "" {
		parts = append(parts, piece)
	}

	// The pattern consumes the whitespace around each sentinel, so the
	// surviving pieces need one space between them.
	return strings.Join(parts, " "), true
}
