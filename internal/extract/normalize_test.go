package extract

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Plain Text", "plain text"},
		{"trims ends", "  padded out\t\n", "padded out"},
		{"chapter abbreviation", "Ch. 1 begins", "chapter 1 begins"},
		{"chapter abbreviation uppercase", "CH. 12", "chapter 12"},
		{"chapter abbreviation mid sentence", "see Ch. 4 for details", "see chapter 4 for details"},
		{"part abbreviation", "Pt. 2 of the saga", "part 2 of the saga"},
		{"abbreviation without space stays", "Ch.apter", "ch.apter"},
		{"ampersand spoken", "Tom & Jerry", "tom and jerry"},
		{"percent spoken", "about 20% done", "about 20 percent done"},
		{"trailing percent keeps artifact space", "100%", "100 percent "},
		{"punctuation runs collapse", "What?! Really...", "what. really."},
		{"ellipsis collapses", "wait… and see", "wait. and see"},
		{"comma runs collapse", "one,,, two", "one, two"},
		{"interior hyphen survives", "a well-known fact", "a well-known fact"},
		{"dangling hyphen dropped", "odd - dash", "odd dash"},
		{"leading hyphen dropped", "-start", "start"},
		{"trailing hyphen dropped", "end-", "end"},
		{"interior apostrophe survives", "don't stop", "don't stop"},
		{"quoting apostrophes dropped", "'quoted words'", "quoted words"},
		{"brackets dropped", "(an [aside] {here})", "an aside here"},
		{"double quotes dropped", `she said "go"`, "she said go"},
		{"curly quotes dropped", "“smart” and ‘fancy’", "smart and fancy"},
		{"decoration dropped", "a *bold* ~strike~ _under_", "a bold strike under"},
		{"whitespace collapses", "too   many\n\twords", "too many words"},
		{"blank becomes empty", "   \n\t ", ""},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripUnlessInWord(t *testing.T) {
	strip := stripUnlessInWord('-')
	tests := []struct {
		input string
		want  string
	}{
		{"self-contained", "self-contained"},
		{"x-1", "x-1"},
		{"- lone", " lone"},
		{"end-", "end"},
		{"--", ""},
		{"no dash", "no dash"},
	}
	for _, tt := range tests {
		if got := strip(tt.input); got != tt.want {
			t.Errorf("strip(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
