package session

import (
	"strings"
	"unicode"
)

// stopwords excluded from topic candidates.
var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "before": {}, "being": {},
	"could": {}, "doing": {}, "every": {}, "going": {}, "having": {},
	"hello": {}, "maybe": {}, "other": {}, "please": {}, "really": {},
	"right": {}, "should": {}, "something": {}, "thanks": {}, "that": {},
	"their": {}, "there": {}, "these": {}, "thing": {}, "think": {},
	"this": {}, "those": {}, "today": {}, "tomorrow": {}, "want": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"will": {}, "with": {}, "would": {}, "your": {},
}

// extractTopics derives the active-topic list from the most recent
// turns: proper-noun-looking words and longer content words, newest
// first, deduplicated, capped at maxTopics.
func extractTopics(turns []Turn, window, maxTopics int) []string {
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	seen := make(map[string]struct{})
	var topics []string

	// Walk newest to oldest so the cap keeps the freshest topics.
	for i := len(turns) - 1; i >= 0; i-- {
		for _, word := range strings.Fields(turns[i].Text) {
			candidate := topicCandidate(word)
			if candidate == "" {
				continue
			}
			lower := strings.ToLower(candidate)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			topics = append(topics, candidate)
			if len(topics) >= maxTopics {
				return topics
			}
		}
	}
	return topics
}

// topicCandidate trims punctuation and keeps capitalized words or
// content words of five letters or more.
func topicCandidate(word string) string {
	word = strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	runes := []rune(word)
	if len(runes) < 3 {
		return ""
	}
	if _, stop := stopwords[strings.ToLower(word)]; stop {
		return ""
	}

	if unicode.IsUpper(runes[0]) {
		return word
	}
	if len(runes) >= 5 {
		return word
	}
	return ""
}
