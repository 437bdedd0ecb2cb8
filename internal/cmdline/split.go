// Package cmdline splits browser command lines into words with shell-like
// quoting.
package cmdline

import (
	"fmt"
	"strings"
	"unicode"
)

// Split breaks input into words. Single and double quotes group words and a
// backslash escapes the next rune. A line starting with # is empty.
func Split(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv    []string
		current strings.Builder
		quote   rune
		escape  bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		argv = append(argv, current.String())
		current.Reset()
	}

	for _, r := range input {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if escape {
		return nil, fmt.Errorf("unterminated escape sequence in command line: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command line: %q", input)
	}

	flush()
	return argv, nil
}

// Join renders words as a command line Split turns back into the same
// words. Empty words do not survive the round trip.
func Join(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, quote(w))
	}
	return strings.Join(out, " ")
}

func quote(word string) string {
	if word != "" && !strings.ContainsAny(word, " \t\n\\'\"#") {
		return word
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range word {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
