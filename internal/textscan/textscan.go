// Package textscan finds the boundaries of nested brace-delimited structures
// inside minified script or markup text, where regular expressions cannot
// bound the content reliably.
package textscan

import (
	"fmt"
)

// Balanced returns the substring of s beginning at open, which must index an
// opening brace, through its matching closing brace inclusive. The scan is
// string-literal aware: braces inside single-quoted, double-quoted and
// template-literal strings do not affect nesting depth, backslash escapes are
// honored, and ${...} expressions inside template literals re-enter code
// context.
func Balanced(s string, open int) (string, error) {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return "", fmt.Errorf("textscan: no opening brace at offset %d", open)
	}

	// Each stack element is either '{' for a code block or the quote
	// character of an open string literal.
	stack := []byte{'{'}
	escaped := false

	for i := open + 1; i < len(s); i++ {
		c := s[i]
		top := stack[len(stack)-1]

		if top == '\'' || top == '"' || top == '`' {
			if escaped {
				escaped = false
				continue
			}
			switch {
			case c == '\\':
				escaped = true
			case c == top:
				stack = stack[:len(stack)-1]
			case top == '`' && c == '$' && i+1 < len(s) && s[i+1] == '{':
				stack = append(stack, '{')
				i++
			}
			continue
		}

		switch c {
		case '{':
			stack = append(stack, '{')
		case '}':
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[open : i+1], nil
			}
		case '\'', '"', '`':
			stack = append(stack, c)
		}
	}
	return "", fmt.Errorf("textscan: unterminated structure at offset %d", open)
}
