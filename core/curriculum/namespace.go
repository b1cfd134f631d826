package curriculum

import (
	"fmt"
	"strings"
)

// CourseUID returns the token tagging every entity copied for a course: "[{name}-{id}]".
func CourseUID(courseName string, courseID int) string {
	return fmt.Sprintf("[%s-%d]", courseName, courseID)
}

// WithPrefix returns "{uid} {name}".
// It does not check for an existing prefix: call it at most once per entity per copy.
func WithPrefix(name, uid string) string {
	return uid + " " + name
}

// HasPrefix reports whether name starts with a bracketed token.
// A leading '[' without a closing ']' is not a prefix.
func HasPrefix(name string) bool {
	return strings.HasPrefix(name, "[") && strings.Contains(name, "]")
}

// HasUID reports whether name carries the given uid as its prefix.
func HasUID(name, uid string) bool {
	prefix, _ := StripPrefix(name)
	return prefix != "" && prefix == uid
}

// StripPrefix splits a namespaced name at the first space following its closing ']'
// into the bracketed token and the trimmed remainder. Without such a space the whole name is the token.
// Names without a prefix are returned unchanged with an empty prefix.
func StripPrefix(name string) (prefix, rest string) {
	if !HasPrefix(name) {
		return "", name
	}
	end := strings.Index(name, "]")
	sp := strings.IndexByte(name[end:], ' ')
	if sp < 0 {
		return name, ""
	}
	return name[:end+sp], strings.TrimSpace(name[end+sp:])
}
