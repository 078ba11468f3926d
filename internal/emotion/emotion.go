// Package emotion derives a coarse emotion tag from memory text using
// fixed keyword lists.
package emotion

import "strings"

// wordLists are checked in order; the first list with any hit wins, so text
// containing both a sad and a happy keyword is tagged sad.
var wordLists = []struct {
	tag   string
	words []string
}{
	{"sad", []string{"sad", "depressed", "tired", "lonely"}},
	{"happy", []string{"happy", "joy", "excited", "great"}},
	{"angry", []string{"angry", "mad", "furious", "upset"}},
}

// Classify returns the emotion tag for text and true, or "" and false when
// no keyword matches. Matching is case-insensitive substring containment.
func Classify(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, list := range wordLists {
		for _, w := range list.words {
			if strings.Contains(lower, w) {
				return list.tag, true
			}
		}
	}
	return "", false
}
