// Package textnorm implements the lightweight question cleanup used for
// token-count metadata. Its output never reaches the provider.
package textnorm

import "strings"

// punctuation is the ASCII punctuation set stripped from input.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalized is a cleaned string and its whitespace tokens.
type Normalized struct {
	Cleaned string   `json:"cleaned"`
	Tokens  []string `json:"tokens"`
}

// Normalize lowercases text, strips punctuation, collapses whitespace and
// splits on single spaces. Empty input yields an empty token slice.
func Normalize(text string) Normalized {
	lowered := strings.ToLower(text)
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, lowered)

	tokens := strings.Fields(stripped)
	if tokens == nil {
		tokens = []string{}
	}
	return Normalized{
		Cleaned: strings.Join(tokens, " "),
		Tokens:  tokens,
	}
}
