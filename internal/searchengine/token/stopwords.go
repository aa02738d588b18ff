package token

// StopWords is an immutable set of tokens to drop from documents and
// queries. It is fixed at construction time; there is deliberately no
// mutation API — a mid-life stop-word change would invalidate existing
// postings keys (see the core engine's invariant 3).
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a StopWords set from a list of raw words. Empty
// strings are discarded and duplicates collapsed. Fails with
// apperr.ErrInvalidCharacter if any word contains a control byte.
func NewStopWords(words []string) (*StopWords, error) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if err := Validate(w); err != nil {
			return nil, err
		}
		set[w] = struct{}{}
	}
	return &StopWords{words: set}, nil
}

// NewStopWordsFromText splits text on ASCII spaces and builds a StopWords
// set from the resulting tokens.
func NewStopWordsFromText(text string) (*StopWords, error) {
	return NewStopWords(Split(text))
}

// Contains reports whether w is a stop-word. A nil StopWords (the
// zero-value "no stop-words configured" case) never matches.
func (s *StopWords) Contains(w string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[w]
	return ok
}

// Len returns the number of distinct stop-words.
func (s *StopWords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}
