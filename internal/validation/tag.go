package validation

import (
	"errors"
	"regexp"
	"strings"
)

var (
	hexColorRegex     = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugInvalidRegex  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashRunsRegex = regexp.MustCompile(`-{2,}`)
)

const maxTagNameLen = 50

// ValidateHexColor accepts #RRGGBB.
func ValidateHexColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return errors.New("color must be a hex value like #3B82F6")
	}
	return nil
}

// ValidateTagName expects an already trimmed name.
func ValidateTagName(name string) error {
	if name == "" {
		return errors.New("tag name is required")
	}
	if len([]rune(name)) > maxTagNameLen {
		return errors.New("tag name must not exceed 50 characters")
	}
	return nil
}

// Slugify lower-cases name, turns whitespace into hyphens, drops anything
// outside [a-z0-9-] and collapses hyphen runs. An empty result becomes "tag".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	s = slugInvalidRegex.ReplaceAllString(s, "")
	s = slugDashRunsRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "tag"
	}
	return s
}
