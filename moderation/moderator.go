// Package moderation censors forbidden words in relayed chat text.
// Matching is resilient to leet speak, casing, and inserted punctuation:
// the text is normalized before the automaton runs, and hits are mapped
// back to the original rune positions for masking.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	apperrors "moodmatch/errors"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	maskingChar rune
}

// textMapping links a normalized rune stream back to the positions of the
// original text, so masking can preserve spacing and punctuation.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// dictionary. An empty dictionary is refused: a silently permissive
// moderator is worse than a loud startup failure.
func NewModerator(words []string, maskingChar rune) (Moderator, error) {
	if len(words) == 0 {
		return Moderator{}, apperrors.ErrEmptyDictionary
	}

	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		normalized := normalizeRunes([]rune(word))
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}
	if len(patterns) == 0 {
		return Moderator{}, apperrors.ErrEmptyDictionary
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, maskingChar: maskingChar}, nil
}

// Censor masks forbidden patterns in the text and returns the matched
// dictionary words for stats. The original is returned untouched when
// nothing matches.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := m.normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	found := make([]string, 0, len(spans))
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.maskingChar
		}
	}

	return string(origRunes), found
}

func (m *Moderator) normalize(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak substitutions back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
