// Package textutil prepares raw text for segmentation.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// NFC composes text to Unicode Normalization Form C. Models trained on
// composed text see fewer OOV tokens this way.
func NFC(text string) string {
	return norm.NFC.String(text)
}

// Lines splits text into non-empty, trimmed lines.
func Lines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

var spaceRe = regexp.MustCompile(`\s+`)

// Chunks splits a line on whitespace. Spaces already mark boundaries, so
// each chunk is segmented on its own.
func Chunks(line string) []string {
	return spaceRe.Split(strings.TrimSpace(line), -1)
}
