package terms

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// maxEntityWords caps entity runs that exceed the n-gram range.
const maxEntityWords = 4

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+(?:[.,]\p{N}+)*|[.!?;:,()\[\]"“”\n]+`)

type token struct {
	surface     string
	norm        string
	initial     bool
	capitalized bool
	number      bool
}

type candidate struct {
	key     string
	surface string
	tag     domain.TermTag
	n       int
}

// segments splits text into runs of word tokens separated by punctuation.
// A token is initial when it opens the text or follows sentence punctuation.
func segments(text string) [][]token {
	var (
		out     [][]token
		current []token
		initial = true
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}
	for _, m := range tokenPattern.FindAllString(text, -1) {
		r, _ := utf8.DecodeRuneInString(m)
		switch {
		case unicode.IsLetter(r):
			current = append(current, token{
				surface:     m,
				norm:        normalise(m),
				initial:     initial,
				capitalized: unicode.IsUpper(r),
			})
			initial = false
		case unicode.IsNumber(r):
			current = append(current, token{surface: m, norm: m, initial: initial, number: true})
			initial = false
		default:
			flush()
			if strings.ContainsAny(m, ".!?\n") {
				initial = true
			}
		}
	}
	flush()
	return out
}

func normalise(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "’", "'"))
}

// candidates mines n-grams within [minN, maxN] and capitalised entity runs.
// Each span yields at most one candidate; spans that are entities carry the
// entity tag.
func candidates(text string, minN, maxN int, stops map[string]struct{}) []candidate {
	var out []candidate
	for _, seg := range segments(text) {
		for i := range seg {
			for n := minN; n <= maxN && i+n <= len(seg); n++ {
				span := seg[i : i+n]
				if !validSpan(span, stops) {
					continue
				}
				tag := domain.TagNGram
				if isEntity(span) {
					tag = domain.TagEntity
				}
				out = append(out, newCandidate(span, tag))
			}
		}
		out = append(out, longEntities(seg, maxN, stops)...)
	}
	return out
}

func longEntities(seg []token, maxN int, stops map[string]struct{}) []candidate {
	var out []candidate
	for i := 0; i < len(seg); {
		j := i
		for j < len(seg) && seg[j].capitalized {
			j++
		}
		if n := j - i; n > maxN && n <= maxEntityWords && validSpan(seg[i:j], stops) {
			out = append(out, newCandidate(seg[i:j], domain.TagEntity))
		}
		if j == i {
			j++
		}
		i = j
	}
	return out
}

func newCandidate(span []token, tag domain.TermTag) candidate {
	norms := make([]string, len(span))
	surfaces := make([]string, len(span))
	for i, t := range span {
		norms[i] = t.norm
		surfaces[i] = t.surface
	}
	return candidate{
		key:     strings.Join(norms, " "),
		surface: strings.Join(surfaces, " "),
		tag:     tag,
		n:       len(span),
	}
}

// validSpan rejects spans with numbers or one-letter words, and spans that
// start or end with a stopword. Interior stopwords are allowed.
func validSpan(span []token, stops map[string]struct{}) bool {
	for _, t := range span {
		if t.number || utf8.RuneCountInString(t.norm) < 2 {
			return false
		}
	}
	if _, ok := stops[span[0].norm]; ok {
		return false
	}
	if _, ok := stops[span[len(span)-1].norm]; ok {
		return false
	}
	return true
}

// isEntity treats a fully capitalised span as an entity unless it is a
// single word opening a sentence.
func isEntity(span []token) bool {
	for _, t := range span {
		if !t.capitalized {
			return false
		}
	}
	return len(span) > 1 || !span[0].initial
}
