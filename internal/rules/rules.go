// Playlistforge - IPTV Playlist Rewriting and Publishing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playlistforge

// Package rules implements the ordered search/replace engine applied to
// playlist text before publishing and on every auto-update cycle.
//
// Rules are applied in list order, each operating on the output of the
// previous one. Application is a pure fold over the rule list: it never
// mutates shared state and the same rule list always produces the same
// output for the same input. Applying a list twice is not guaranteed to be
// idempotent (a rule may re-match its own replacement); that is accepted
// behavior.
package rules

import (
	"fmt"
	"regexp"
)

// Rule is a single search/replace step.
//
// Plain rules (IsRegex false) replace every literal occurrence of Search.
// Case-insensitive plain matching finds occurrences without regard to case
// but never alters the case of surrounding text; matched text is substituted
// with the literal Replace string.
//
// Regex rules compile Search as a regular expression. CaseSensitive false
// adds the case-insensitive flag to the pattern.
type Rule struct {
	Search        string `json:"search" koanf:"search"`
	Replace       string `json:"replace" koanf:"replace"`
	IsRegex       bool   `json:"is_regex" koanf:"is_regex"`
	CaseSensitive bool   `json:"case_sensitive" koanf:"case_sensitive"`
}

// InvalidRuleError reports a rule that cannot be applied, typically a regex
// rule whose pattern does not compile. Index is the zero-based position of
// the offending rule in the submitted list.
type InvalidRuleError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule at index %d: pattern %q: %v", e.Index, e.Pattern, e.Err)
}

func (e *InvalidRuleError) Unwrap() error {
	return e.Err
}

// Apply runs the ordered rule list over content and returns the rewritten
// text. Rules with an empty Search are skipped. The first invalid rule
// aborts the whole application with an *InvalidRuleError; rules after it are
// not applied and the partial result is discarded.
func Apply(content string, ruleList []Rule) (string, error) {
	result := content
	for i, rule := range ruleList {
		if rule.Search == "" {
			continue
		}

		pattern := rule.Search
		if !rule.IsRegex {
			pattern = regexp.QuoteMeta(rule.Search)
		}
		if !rule.CaseSensitive {
			pattern = "(?i)" + pattern
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", &InvalidRuleError{Index: i, Pattern: rule.Search, Err: err}
		}

		replacement := rule.Replace
		if !rule.IsRegex {
			// Literal replacement: $ must not be treated as a group reference.
			replacement = escapeReplacement(rule.Replace)
		}
		result = re.ReplaceAllString(result, replacement)
	}
	return result, nil
}

// Validate compiles every regex rule without applying anything. It returns
// the same *InvalidRuleError Apply would, letting callers reject a rule list
// at submission time.
func Validate(ruleList []Rule) error {
	for i, rule := range ruleList {
		if rule.Search == "" || !rule.IsRegex {
			continue
		}
		pattern := rule.Search
		if !rule.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return &InvalidRuleError{Index: i, Pattern: rule.Search, Err: err}
		}
	}
	return nil
}

// escapeReplacement doubles $ signs so ReplaceAllString treats the
// replacement text literally.
func escapeReplacement(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '$' {
			out = append(out, '$', '$')
		} else {
			out = append(out, s[i])
		}
	}
	return string(out)
}
