package extract

import (
	"strings"
	"unicode"
)

// Mention summarises how a brand appears in an answer
type Mention struct {
	Count    int    // Total occurrences of any term
	Sentence int    // 1-based index of the first sentence mentioning a term, 0 if none
	Text     string // The first sentence mentioning a term
}

// Found reports whether any term was mentioned
func (m Mention) Found() bool {
	return m.Count > 0
}

// Mentions finds case-insensitive occurrences of terms (brand name, domain) in answer.
// Empty terms are ignored.
func Mentions(answer string, terms ...string) Mention {
	var needles []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			needles = append(needles, t)
		}
	}
	if len(needles) == 0 {
		return Mention{}
	}

	var m Mention
	for i, sentence := range Sentences(answer) {
		lower := strings.ToLower(sentence)
		count := 0
		for _, n := range needles {
			count += strings.Count(lower, n)
		}
		if count == 0 {
			continue
		}
		if m.Sentence == 0 {
			m.Sentence = i + 1
			m.Text = sentence
		}
		m.Count += count
	}
	return m
}

// Sentences splits text on sentence terminators and line breaks.
// A period directly followed by a letter or digit (a domain, a decimal) does not end a sentence.
func Sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0

	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i, r := range runes {
		switch r {
		case '\n':
			flush(i + 1)
		case '.', '!', '?':
			if i+1 < len(runes) && (unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1])) {
				continue
			}
			flush(i + 1)
		}
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return out
}
