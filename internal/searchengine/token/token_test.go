package token

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kestrel-search/searchplatform/internal/searchengine/apperr"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"cat", []string{"cat"}},
		{"cat dog", []string{"cat", "dog"}},
		{"  cat   dog  ", []string{"cat", "dog"}},
		{"cat\tdog", []string{"cat\tdog"}},
	}
	for _, c := range cases {
		got := Split(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Split(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestValidateRejectsControlBytes(t *testing.T) {
	if err := Validate("cat"); err != nil {
		t.Errorf("Validate(cat) = %v, want nil", err)
	}
	err := Validate("ca\x01t")
	if !errors.Is(err, apperr.ErrInvalidCharacter) {
		t.Errorf("Validate(ca\\x01t) = %v, want ErrInvalidCharacter", err)
	}
}

func TestSanitizeStripsControlBytes(t *testing.T) {
	got := Sanitize("ca\x01t\x02dog")
	if got != "catdog" {
		t.Errorf("Sanitize = %q, want %q", got, "catdog")
	}
}

func TestSplitValidatedPropagatesFirstError(t *testing.T) {
	_, err := SplitValidated("cat \x01dog fish")
	if !errors.Is(err, apperr.ErrInvalidCharacter) {
		t.Errorf("SplitValidated = %v, want ErrInvalidCharacter", err)
	}
}

func TestStopWordsContainsAndLen(t *testing.T) {
	sw, err := NewStopWords([]string{"the", "a", "the", ""})
	if err != nil {
		t.Fatalf("NewStopWords: %v", err)
	}
	if sw.Len() != 2 {
		t.Fatalf("want 2 distinct stop-words, got %d", sw.Len())
	}
	if !sw.Contains("the") || !sw.Contains("a") {
		t.Fatalf("expected stop-words not found")
	}
	if sw.Contains("cat") {
		t.Fatalf("unexpected stop-word match")
	}
}

func TestNilStopWordsContainsNothing(t *testing.T) {
	var sw *StopWords
	if sw.Contains("the") {
		t.Fatalf("nil StopWords matched %q", "the")
	}
	if sw.Len() != 0 {
		t.Fatalf("nil StopWords.Len() = %d, want 0", sw.Len())
	}
}

func TestNewStopWordsFromText(t *testing.T) {
	sw, err := NewStopWordsFromText("the a an")
	if err != nil {
		t.Fatalf("NewStopWordsFromText: %v", err)
	}
	if sw.Len() != 3 {
		t.Fatalf("want 3 stop-words, got %d", sw.Len())
	}
}
