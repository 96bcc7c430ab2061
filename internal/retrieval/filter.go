package retrieval

import "strings"

// Filter keeps summaries whose decoded From and Subject contain the given
// substrings, case-insensitively. Empty fields match everything.
type Filter struct {
	from    string
	subject string
}

// NewFilter builds a Filter from the request's optional substrings.
func NewFilter(from, subject string) Filter {
	return Filter{
		from:    strings.ToLower(from),
		subject: strings.ToLower(subject),
	}
}

// Allows reports whether s passes both filters.
func (f Filter) Allows(s Summary) bool {
	if f.from != "" && !strings.Contains(strings.ToLower(s.From), f.from) {
		return false
	}
	if f.subject != "" && !strings.Contains(strings.ToLower(s.Subject), f.subject) {
		return false
	}
	return true
}
