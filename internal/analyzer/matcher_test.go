package analyzer

import (
	"testing"
)

func TestFindMentions(t *testing.T) {
	text := "Acme builds widgets. Widgets ship fast! Do acme widgets last? They do. widgets widgets."
	got := FindMentions(text, []string{"widgets", "Acme", "gadgets", "  "})

	if len(got) != 2 {
		t.Fatalf("expected 2 mentions, got %+v", got)
	}

	if got[0].Keyword != "widgets" || got[0].Count != 5 {
		t.Errorf("unexpected widgets mention %+v", got[0])
	}
	want := []string{"Acme builds widgets.", "Widgets ship fast!", "Do acme widgets last?"}
	if len(got[0].Sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %v", len(want), got[0].Sentences)
	}
	for i, s := range want {
		if got[0].Sentences[i] != s {
			t.Errorf("sentence %d: want %q, got %q", i, s, got[0].Sentences[i])
		}
	}

	if got[1].Keyword != "Acme" || got[1].Count != 2 {
		t.Errorf("unexpected acme mention %+v", got[1])
	}

	if c := Coverage(got, 3); c < 0.66 || c > 0.67 {
		t.Errorf("expected coverage 2/3, got %f", c)
	}
}

func TestFindMentions_Empty(t *testing.T) {
	if got := FindMentions("", []string{"a"}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := FindMentions("text", nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if c := Coverage(nil, 0); c != 0 {
		t.Errorf("expected 0 coverage, got %f", c)
	}
}

func TestSplitIntoSentences_TrailingText(t *testing.T) {
	got := splitIntoSentences("One.  Two? three")
	if len(got) != 3 || got[2].original != "three" || got[1].lower != "two?" {
		t.Errorf("unexpected split %+v", got)
	}
}
