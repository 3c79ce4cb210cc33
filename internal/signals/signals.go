// Package signals extracts keyword, sentiment and urgency signals from raw
// text. Everything here is rule-based and deterministic: the same input always
// produces the same output, with no clock and no external calls.
package signals

import (
	"regexp"
	"sort"
	"strings"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Signals is the full analysis of one piece of text.
type Signals struct {
	Keywords  []string  `json:"keywords"`
	Sentiment Sentiment `json:"sentiment"`
	Urgency   float64   `json:"urgency"`
}

// DefaultKeywordCount is how many ranked keywords Analyze returns.
const DefaultKeywordCount = 10

// Urgency formula weights.
const (
	urgencyKeywordWeight  = 0.6
	exclamationWeight     = 0.2
	deadlineMentionWeight = 0.2

	// One urgency cue per this many tokens saturates the keyword term.
	urgencySaturationSpan = 20.0
)

// wordPattern keeps embedded hyphens and apostrophes ("follow-up", "don't")
// but strips all other punctuation.
var wordPattern = regexp.MustCompile(`[a-z0-9]+(?:['-][a-z0-9]+)*`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "so",
		"i", "me", "my", "we", "us", "our", "you", "your", "he", "him", "his",
		"she", "her", "it", "its", "they", "them", "their", "this", "that",
		"these", "those", "who", "what", "which",
		"in", "on", "at", "to", "for", "of", "with", "by", "from", "into",
		"about", "as", "up", "out", "over", "under",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"do", "does", "did", "have", "has", "had", "will", "would", "can",
		"could", "not", "no",
	} {
		stopwords[w] = struct{}{}
	}
}

// Sentiment lexicons. Disjoint by construction; intensifiers carry extra
// weight on the negative side.
var positiveLexicon = map[string]float64{
	"good": 1, "great": 1, "excellent": 1, "amazing": 1, "wonderful": 1,
	"happy": 1, "glad": 1, "thanks": 1, "love": 1, "perfect": 1,
	"success": 1, "progress": 1, "done": 1, "well": 1, "nice": 1,
}

var negativeLexicon = map[string]float64{
	"bad": 1, "terrible": 1, "awful": 1, "problem": 1, "issue": 1,
	"fail": 1, "failed": 1, "broken": 1, "worried": 1, "angry": 1,
	"late": 1, "delay": 1, "delayed": 1, "missed": 1, "wrong": 1,
	"urgent": 2, "critical": 2, "emergency": 2,
}

var urgencyLexicon = map[string]struct{}{
	"urgent": {}, "asap": {}, "immediately": {}, "deadline": {},
	"critical": {}, "emergency": {},
}

var deadlinePhrases = []string{
	"today", "tomorrow", "tonight", "end of day", "end of week",
	"this week", "by monday", "by tuesday", "by wednesday", "by thursday",
	"by friday", "by saturday", "by sunday",
}

// datePattern matches explicit dates like 2025-07-04, 04/07/2025 or "July 4".
var datePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(/\d{2,4})?|(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2})\b`)

// Analyze runs the full pipeline over text. Empty text, or text that is all
// stopwords, yields no keywords, neutral sentiment and zero urgency.
func Analyze(text string) Signals {
	tokens := Tokenize(text)
	return Signals{
		Keywords:  rankKeywords(tokens, DefaultKeywordCount),
		Sentiment: classifySentiment(tokens),
		Urgency:   urgencyScore(text, tokens),
	}
}

// Keywords returns the top k keywords of text. k <= 0 falls back to the
// default.
func Keywords(text string, k int) []string {
	if k <= 0 {
		k = DefaultKeywordCount
	}
	return rankKeywords(Tokenize(text), k)
}

// Tokenize lowercases text and splits it on word boundaries, keeping
// embedded hyphens and apostrophes.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// rankKeywords counts surviving tokens and orders them by frequency,
// breaking ties by first occurrence.
func rankKeywords(tokens []string, k int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for i, tok := range tokens {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		if _, seen := counts[tok]; !seen {
			firstSeen[tok] = i
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})

	if len(order) > k {
		order = order[:k]
	}
	return order
}

func classifySentiment(tokens []string) Sentiment {
	var score float64
	for _, tok := range tokens {
		if w, ok := positiveLexicon[tok]; ok {
			score += w
		}
		if w, ok := negativeLexicon[tok]; ok {
			score -= w
		}
	}
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// urgencyScore combines urgency-keyword density, exclamation density and
// deadline mentions into a [0,1] score. Sentiment plays no part here.
func urgencyScore(text string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	hits := 0
	for _, tok := range tokens {
		if _, ok := urgencyLexicon[tok]; ok {
			hits++
		}
	}
	keywordTerm := clamp01(float64(hits) * urgencySaturationSpan / float64(len(tokens)))

	sentences := SplitSentences(text)
	sentenceCount := len(sentences)
	if sentenceCount < 1 {
		sentenceCount = 1
	}
	exclamationTerm := clamp01(float64(strings.Count(text, "!")) / float64(sentenceCount))

	deadlineTerm := 0.0
	if mentionsDeadline(text) {
		deadlineTerm = 1.0
	}

	return clamp01(urgencyKeywordWeight*keywordTerm +
		exclamationWeight*exclamationTerm +
		deadlineMentionWeight*deadlineTerm)
}

// SplitSentences splits text on terminal punctuation and newlines, dropping
// empty fragments.
func SplitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mentionsDeadline(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range deadlinePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return datePattern.MatchString(lower)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
