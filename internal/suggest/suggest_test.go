package suggest

import (
	"reflect"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"spring", "spring", 0},
		{"spring", "sprint", 1},
		{"spring", "", 6},
		{"kitten", "sitting", 3},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

type fakeSource map[string]int

func (f fakeSource) Terms() []string {
	terms := make([]string, 0, len(f))
	for t := range f {
		terms = append(terms, t)
	}
	return terms
}

func (f fakeSource) TermDocFreq(term string) int { return f[term] }

func TestSuggest(t *testing.T) {
	src := fakeSource{"spring": 5, "string": 2, "sprint": 1, "unrelated": 9}

	// spring is one edit away; string and sprint are two, tie broken by
	// higher section frequency.
	got := New().Suggest("sprang", src)
	want := []string{"spring", "string", "sprint"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest(sprang) = %v, want %v", got, want)
	}
}

func TestSuggestKnownTermReturnsNothing(t *testing.T) {
	src := fakeSource{"spring": 5}
	if got := New().Suggest("spring", src); got != nil {
		t.Errorf("known term got suggestions: %v", got)
	}
}

func TestSuggestNothingClose(t *testing.T) {
	src := fakeSource{"spring": 5}
	if got := New().Suggest("xylophone", src); got != nil {
		t.Errorf("got %v, want none", got)
	}
}

func TestSuggestMaxSuggestions(t *testing.T) {
	src := fakeSource{"cat": 1, "bat": 1, "hat": 1, "mat": 1, "rat": 1}
	got := New(WithMaxSuggestions(2)).Suggest("fat", src)
	if len(got) != 2 {
		t.Errorf("got %d suggestions, want 2", len(got))
	}
}
