package query

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("How has Representative Mamdani voted on Healthcare?")
	want := []string{"representative", "mamdani", "voted", "healthcare"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDropsShortAndStopWords(t *testing.T) {
	got := Tokenize("What is the tax on a job?")
	if len(got) != 0 {
		t.Errorf("expected no tokens (all short or stop words), got %v", got)
	}
}

func TestPersonNamesFromText(t *testing.T) {
	q := Query{Text: "How has Chuck Schumer voted on healthcare?"}
	got := PersonNames(q)
	want := []string{"chuck", "schumer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PersonNames = %v, want %v", got, want)
	}
}

func TestPersonNamesExcludesOfficeWords(t *testing.T) {
	q := Query{Text: "What Policies does the Senator support on Healthcare?"}
	if got := PersonNames(q); len(got) != 0 {
		t.Errorf("expected no names, got %v", got)
	}
}

func TestPersonNamesIgnoresSentenceInitialCapital(t *testing.T) {
	q := Query{Text: "Mamdani spoke about Housing"}
	got := PersonNames(q)
	// "Mamdani" opens the sentence so capitalization proves nothing;
	// "Housing" is an excluded topic word.
	if len(got) != 0 {
		t.Errorf("expected no names, got %v", got)
	}
}

func TestPersonNamesFromContext(t *testing.T) {
	q := Query{
		Text:    "what is the voting record on housing",
		Context: Context{Representative: "Zohran Mamdani"},
	}
	got := PersonNames(q)
	want := []string{"zohran", "mamdani"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PersonNames = %v, want %v", got, want)
	}
}

func TestPersonNamesDeduplicates(t *testing.T) {
	q := Query{
		Text:    "Did Schumer vote for the Schumer amendment?",
		Context: Context{Representative: "Chuck Schumer"},
	}
	got := PersonNames(q)
	count := 0
	for _, n := range got {
		if n == "schumer" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected schumer once, got %v", got)
	}
}

func TestPolicyKeywordsHealthcare(t *testing.T) {
	got := PolicyKeywords("How did they vote on medicare and prescription drug pricing?")
	if len(got) == 0 {
		t.Fatal("expected keywords")
	}
	hasArea := false
	for _, k := range got {
		if k == "healthcare" {
			hasArea = true
		}
	}
	if !hasArea {
		t.Errorf("expected the general healthcare area alongside matched terms, got %v", got)
	}
}

func TestPolicyKeywordsEmptyForOffTopic(t *testing.T) {
	if got := PolicyKeywords("what is your favorite color"); len(got) != 0 {
		t.Errorf("expected no keywords, got %v", got)
	}
}

func TestClassifyPolicyArea(t *testing.T) {
	tests := []struct {
		text string
		want PolicyArea
	}{
		{"How do they vote on medicare and medicaid?", Healthcare},
		{"What is the climate and emissions record?", Environment},
		{"Position on border and asylum policy?", Immigration},
		{"tell me a joke", ""},
	}
	for _, tt := range tests {
		if got := ClassifyPolicyArea(tt.text); got != tt.want {
			t.Errorf("ClassifyPolicyArea(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestContextHasRepresentative(t *testing.T) {
	if (Context{}).HasRepresentative() {
		t.Error("empty context should not have a representative")
	}
	if (Context{Representative: "   "}).HasRepresentative() {
		t.Error("whitespace name should not count")
	}
	if !(Context{Representative: "Chuck Schumer"}).HasRepresentative() {
		t.Error("expected representative to be resolved")
	}
}
