// Package filter holds the content rules applied to inbound prompts.
package filter

import (
	"fmt"
	"regexp"
)

// Spec is a rule before compilation, as it appears in config.
type Spec struct {
	ID      string
	Pattern string
	Reason  string
}

type rule struct {
	id     string
	re     *regexp.Regexp
	reason string
}

// RuleSet is an ordered, immutable set of compiled rules. Safe for
// unsynchronized concurrent use after Compile.
type RuleSet struct {
	rules []rule
}

// Match identifies which rule flagged the text and why.
type Match struct {
	RuleID string
	Reason string
}

// Compile builds a RuleSet from specs, preserving declaration order.
// A pattern that does not compile fails the whole set; the caller is
// expected to treat that as a startup error rather than run with a
// partial ruleset.
func Compile(specs []Spec) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]rule, 0, len(specs))}
	for _, s := range specs {
		// (?is): case-insensitive, and multi-line payloads are one
		// searchable unit.
		re, err := regexp.Compile("(?is)" + s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("filter: rule %q: %w", s.ID, err)
		}
		reason := s.Reason
		if reason == "" {
			reason = "matched rule " + s.ID
		}
		rs.rules = append(rs.rules, rule{id: s.ID, re: re, reason: reason})
	}
	return rs, nil
}

// Evaluate scans text against the rules in declaration order and returns
// the first match. Empty text never matches. Pure: no state is touched.
func (rs *RuleSet) Evaluate(text string) (Match, bool) {
	if text == "" {
		return Match{}, false
	}
	for _, r := range rs.rules {
		if r.re.MatchString(text) {
			return Match{RuleID: r.id, Reason: r.reason}, true
		}
	}
	return Match{}, false
}

// Len reports the number of compiled rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }
