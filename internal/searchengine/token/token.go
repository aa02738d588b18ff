// Package token provides whitespace tokenisation and control-character
// validation for the search engine. Splitting happens on the ASCII space
// byte only — tabs and newlines are data, not separators, and are rejected
// as control characters if they appear inside a token.
package token

import (
	"strings"

	"github.com/kestrel-search/searchplatform/internal/searchengine/apperr"
)

// Split breaks text into maximal runs of non-space bytes, splitting only on
// the ASCII space character (0x20). Empty input yields a nil slice.
func Split(text string) []string {
	var tokens []string
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			if start >= 0 {
				tokens = append(tokens, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// Validate fails with apperr.ErrInvalidCharacter if word contains an ASCII
// control byte (< 0x20). The reported message is sanitised so it can be
// displayed safely.
func Validate(word string) error {
	for i := 0; i < len(word); i++ {
		if word[i] < 0x20 {
			return apperr.Newf(apperr.ErrInvalidCharacter, "word %q contains invalid characters", Sanitize(word))
		}
	}
	return nil
}

// Sanitize strips ASCII control bytes from s so it can be embedded safely in
// an error message.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x20 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// SplitValidated splits text and validates every resulting token, returning
// the first invalid-character error encountered.
func SplitValidated(text string) ([]string, error) {
	words := Split(text)
	for _, w := range words {
		if err := Validate(w); err != nil {
			return nil, err
		}
	}
	return words, nil
}
