package mcpkit

import (
	"math"
	"regexp"
	"strings"
)

// TextStatistics is the structured result of analyze_text.
type TextStatistics struct {
	CharacterCount    int     `json:"character_count"`
	WordCount         int     `json:"word_count"`
	LineCount         int     `json:"line_count"`
	SentenceCount     int     `json:"sentence_count"`
	AverageWordLength float64 `json:"average_word_length"`
	LongestWord       string  `json:"longest_word"`
	ShortestWord      string  `json:"shortest_word"`
}

var sentenceEndings = regexp.MustCompile(`[.!?]+`)

const wordPunctuation = `.,!?;:()[]{}"'-`

// AnalyzeText computes statistics over text. Words are stripped of
// surrounding punctuation before length statistics; the sentence count is
// approximate and never below 1.
func AnalyzeText(text string) TextStatistics {
	stats := TextStatistics{
		CharacterCount: len(text),
		LineCount:      len(strings.Split(text, "\n")),
	}

	words := strings.Fields(text)
	stats.WordCount = len(words)

	var actual []string
	for _, w := range words {
		if trimmed := strings.Trim(w, wordPunctuation); trimmed != "" {
			actual = append(actual, trimmed)
		}
	}

	if len(actual) > 0 {
		total := 0
		longest, shortest := actual[0], actual[0]
		for _, w := range actual {
			total += len(w)
			if len(w) > len(longest) {
				longest = w
			}
			if len(w) < len(shortest) {
				shortest = w
			}
		}
		stats.AverageWordLength = math.Round(float64(total)/float64(len(actual))*100) / 100
		stats.LongestWord = longest
		stats.ShortestWord = shortest
	}

	if n := len(sentenceEndings.FindAllString(text, -1)); n > 0 {
		stats.SentenceCount = n
	} else {
		stats.SentenceCount = 1
	}

	return stats
}
