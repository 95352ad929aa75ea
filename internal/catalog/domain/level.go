package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel indicates a display label or backend level string that
// does not resolve to a known level code. Unknown labels fail loudly
// instead of silently mapping to the lowest level.
var ErrUnknownLevel = errors.New("unknown level")

// DisplayLabel returns the label shown for a level in user-facing output.
func (l LevelCode) DisplayLabel() string {
	switch l {
	case LevelPreJunior:
		return "Pre Junior"
	case LevelJunior:
		return "Junior"
	}
	return string(l)
}

// Valid reports whether the level code belongs to the closed set.
func (l LevelCode) Valid() bool {
	switch l {
	case LevelPreJunior, LevelJunior:
		return true
	}
	return false
}

// LevelFromLabel maps a display label (or any common spelling of it) to a
// level code. Matching ignores case, spaces, hyphens, and underscores, so
// "Pre Junior", "pre-junior", and "preJunior" all resolve to the same code.
func LevelFromLabel(label string) (LevelCode, error) {
	switch normalizeLabel(label) {
	case "prejunior":
		return LevelPreJunior, nil
	case "junior":
		return LevelJunior, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, label)
}

func normalizeLabel(label string) string {
	s := strings.ToLower(label)
	for _, cut := range []string{" ", "-", "_"} {
		s = strings.ReplaceAll(s, cut, "")
	}
	return s
}
