package classify

import (
	"errors"
	"image"
	"testing"
)

func TestHasMeaningfulText(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"empty", nil, false},
		{"five long tokens", []string{"these", "words", "carry", "actual", "prose"}, true},
		{"four tokens only", []string{"these", "words", "carry", "prose"}, false},
		{"five tokens none significant", []string{"a", "bb", "ccc", "dd", "e"}, false},
		{"one significant among five", []string{"word", "a", "b", "c", "d"}, true},
		{"whitespace tokens ignored", []string{"  ", "\t", "word", "a", "b", "c", "d"}, true},
		{"padded token counts trimmed", []string{"  abc  ", "a", "b", "c", "d"}, false},
		{"exactly four chars is significant", []string{"abcd", "a", "b", "c", "d"}, true},
		{"exactly three chars is not", []string{"abc", "x", "y", "z", "w"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasMeaningfulText(tc.tokens); got != tc.want {
				t.Errorf("HasMeaningfulText(%v) = %v, want %v", tc.tokens, got, tc.want)
			}
		})
	}
}

type stubDoc struct {
	tokens  []string
	textErr error
}

func (d *stubDoc) NumPages() int                            { return 1 }
func (d *stubDoc) TextTokens(int) ([]string, error)         { return d.tokens, d.textErr }
func (d *stubDoc) Viewport(int) (float64, float64, error)   { return 612, 792, nil }
func (d *stubDoc) Render(int, float64) (image.Image, error) { return nil, errors.New("no render") }
func (d *stubDoc) Close() error                             { return nil }

func TestPageExtractionFailureDefaultsToTextBearing(t *testing.T) {
	doc := &stubDoc{textErr: errors.New("damaged content stream")}
	if !Page(doc, 0) {
		t.Fatal("extraction failure must classify the page as text-bearing")
	}
}

func TestPageImageOnly(t *testing.T) {
	doc := &stubDoc{tokens: []string{"42"}}
	if Page(doc, 0) {
		t.Fatal("a lone page number must not count as meaningful text")
	}
}
