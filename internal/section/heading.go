package section

import "regexp"

// Matcher reports whether a line of text is a section heading. Heading
// detection is a pluggable predicate set: new document styles add a matcher
// instead of touching the identifier's control flow.
type Matcher func(line string) bool

var (
	chapterPattern  = regexp.MustCompile(`^(?:Chapter|CHAPTER)\s+\d+[.:]?\s*.*$`)
	allCapsPattern  = regexp.MustCompile(`^[A-Z][A-Z\s]{3,}$`)
	numberedPattern = regexp.MustCompile(`^\d+\.\s+[A-Z].*$`)
	mdHeadPattern   = regexp.MustCompile(`^#{1,6}\s+\S`)
)

// DefaultMatchers covers the heading styles common in rulebooks: chapter
// markers, short all-caps lines, numbered headings, and markdown headings.
func DefaultMatchers() []Matcher {
	return []Matcher{
		chapterPattern.MatchString,
		allCapsPattern.MatchString,
		numberedPattern.MatchString,
		mdHeadPattern.MatchString,
	}
}
