package participant

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Directive is one memory instruction extracted from model output, written
// as a line of the form:
//
//	DIRECTIVE[category]: payload
type Directive struct {
	Category string
	Payload  string
}

var directivePattern = regexp.MustCompile(`(?m)^[ \t]*DIRECTIVE\[([\w-]+)\]:[ \t]*(.+?)[ \t]*$`)

// ParseDirectives extracts every directive line from text and returns the
// directives plus the text with those lines removed. Extraction is
// deterministic: directives appear in source order.
func ParseDirectives(text string) ([]Directive, string) {
	matches := directivePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	directives := make([]Directive, 0, len(matches))
	for _, m := range matches {
		directives = append(directives, Directive{Category: m[1], Payload: m[2]})
	}

	cleaned := directivePattern.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(regexp.MustCompile(`\n{3,}`).ReplaceAllString(cleaned, "\n\n"))
	return directives, cleaned
}

// MemoryStore holds a participant's categorized memory entries. Entries
// accumulate per category in insertion order. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]string)}
}

// Apply records each directive's payload under its category.
func (s *MemoryStore) Apply(directives []Directive) {
	if len(directives) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range directives {
		s.entries[d.Category] = append(s.entries[d.Category], d.Payload)
	}
}

// Get returns the entries recorded under category, oldest first.
func (s *MemoryStore) Get(category string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries[category]))
	copy(out, s.entries[category])
	return out
}

// Categories returns the known categories, sorted.
func (s *MemoryStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for c := range s.entries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the total entry count across categories.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		n += len(e)
	}
	return n
}

// Snapshot returns a copy of all entries keyed by category.
func (s *MemoryStore) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.entries))
	for c, e := range s.entries {
		cp := make([]string, len(e))
		copy(cp, e)
		out[c] = cp
	}
	return out
}

// FormatForPrompt renders the store as a prompt block, empty string when
// nothing is stored.
func (s *MemoryStore) FormatForPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return ""
	}

	categories := make([]string, 0, len(s.entries))
	for c := range s.entries {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("Your memory:\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "[%s]\n", c)
		for _, e := range s.entries[c] {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
