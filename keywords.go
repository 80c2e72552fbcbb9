package questionbank

import (
	"regexp"
	"sort"
	"strings"
)

// TopicPlaceholder stands in for a topic when a paragraph yields no keywords
const TopicPlaceholder = "topic"

var nonWordChars = regexp.MustCompile(`[^a-z0-9\s]`)

// stopWords are conjunctions, auxiliaries, determiners and similar filler
// that never make a useful topic. Only words longer than two characters
// need listing since shorter tokens are dropped anyway.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "with": {}, "were": {}, "was": {}, "are": {},
	"for": {}, "but": {}, "nor": {}, "yet": {}, "not": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "from": {}, "into": {}, "onto": {},
	"than": {}, "then": {}, "them": {}, "they": {}, "their": {}, "there": {},
	"have": {}, "has": {}, "had": {}, "been": {}, "being": {}, "does": {},
	"did": {}, "doing": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"can": {}, "could": {}, "may": {}, "might": {}, "must": {}, "its": {},
	"his": {}, "her": {}, "hers": {}, "our": {}, "ours": {}, "your": {},
	"yours": {}, "what": {}, "which": {}, "who": {}, "whom": {}, "whose": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "all": {}, "any": {},
	"both": {}, "each": {}, "few": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "such": {}, "only": {}, "own": {}, "same": {}, "very": {},
	"also": {}, "just": {}, "about": {}, "above": {}, "after": {},
	"again": {}, "against": {}, "before": {}, "below": {}, "between": {},
	"during": {}, "over": {}, "under": {}, "while": {}, "because": {},
	"although": {}, "though": {}, "unless": {}, "until": {}, "upon": {},
	"within": {}, "without": {}, "through": {}, "per": {}, "via": {},
	"here": {}, "she": {}, "him": {}, "you": {}, "out": {}, "off": {},
	"too": {}, "once": {}, "either": {}, "neither": {}, "whether": {},
	"every": {}, "another": {}, "much": {}, "many": {}, "one": {},
}

// Tokenize lower-cases text, blanks out everything but [a-z0-9] and
// whitespace, and returns the tokens longer than two characters that are
// not stop words, in input order.
func Tokenize(text string) []string {
	cleaned := nonWordChars.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// RankKeywords returns at most max tokens ordered by descending frequency.
// Equal frequencies keep first-occurrence order. An empty result is normal
// and callers substitute TopicPlaceholder.
func RankKeywords(text string, max int) []string {
	if max <= 0 {
		return []string{}
	}

	freq := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range Tokenize(text) {
		if freq[tok] == 0 {
			order = append(order, tok)
		}
		freq[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	return order
}
