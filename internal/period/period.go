// Package period models the 24 biweekly pay periods of an annual payroll
// cycle and set operations over them. Period tokens follow the payroll
// convention "QNA1".."QNA24".
package period

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// FullCycle is the number of biweekly periods in one annual payroll cycle.
const FullCycle = 24

var tokenPattern = regexp.MustCompile(`^QNA([1-9]|1[0-9]|2[0-4])$`)

// IsToken reports whether s is a valid period token (QNA1..QNA24).
func IsToken(s string) bool {
	return tokenPattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// Token builds the period token for a 1-based period number.
func Token(n int) string {
	return "QNA" + strconv.Itoa(n)
}

// AllTokens lists every token of the full cycle in ascending order.
func AllTokens() []string {
	out := make([]string, 0, FullCycle)
	for i := 1; i <= FullCycle; i++ {
		out = append(out, Token(i))
	}
	return out
}

// Number extracts the numeric part of a period token, 0 if none.
func Number(token string) int {
	digits := strings.TrimFunc(token, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// Set is an unordered collection of period tokens. The zero value is empty
// but not usable; construct with NewSet.
type Set map[string]struct{}

// NewSet builds a Set from tokens, normalizing case and dropping anything
// that is not a valid period token.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		t = strings.ToUpper(strings.TrimSpace(t))
		if tokenPattern.MatchString(t) {
			s[t] = struct{}{}
		}
	}
	return s
}

// Add inserts a token into the set if it is valid.
func (s Set) Add(token string) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if tokenPattern.MatchString(token) {
		s[token] = struct{}{}
	}
}

// Contains reports whether the set holds the given token.
func (s Set) Contains(token string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(token))]
	return ok
}

// Len returns the number of periods in the set.
func (s Set) Len() int { return len(s) }

// Intersect returns the periods present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for t := range s {
		if _, ok := other[t]; ok {
			out[t] = struct{}{}
		}
	}
	return out
}

// Union returns the periods present in either set.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// Sorted returns the tokens in numeric order (QNA2 before QNA10).
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return Number(out[i]) < Number(out[j]) })
	return out
}

// Equal reports whether both sets hold exactly the same periods.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if _, ok := other[t]; !ok {
			return false
		}
	}
	return true
}
