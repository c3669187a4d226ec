package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

const excerptLength = 160

// stripHTML removes tags and trims the result.
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRegex.ReplaceAllString(s, ""))
}

// buildExcerpt takes the first 160 characters of the tag-free content,
// adding "..." when it was cut.
func buildExcerpt(content string) string {
	text := stripHTML(content)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	return string([]rune(text)[:excerptLength]) + "..."
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
