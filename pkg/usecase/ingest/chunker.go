package ingest

import (
	"regexp"
	"strings"
)

// Sentence boundary: terminal punctuation followed by whitespace and an
// upper-case or digit start. Abbreviations will occasionally split early;
// chunk overlap absorbs that.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+(?:[A-Z0-9"'(\[])`)

// splitSentences breaks text into sentences, whitespace-normalized.
func splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	var sentences []string
	rest := normalized
	for {
		loc := sentenceBoundary.FindStringSubmatchIndex(rest)
		if loc == nil {
			sentences = append(sentences, rest)
			break
		}
		// Cut right after the terminal punctuation (end of group 1).
		cut := loc[3]
		sentences = append(sentences, strings.TrimSpace(rest[:cut]))
		rest = strings.TrimSpace(rest[cut:])
	}
	return sentences
}

// chunkText packs sentences into chunks of at most size characters with
// roughly overlap characters of trailing context repeated at the start of
// the next chunk. A single sentence longer than size becomes its own chunk.
func chunkText(text string, size, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		length := 0
		j := i
		for j < len(sentences) {
			sep := 0
			if j > i {
				sep = 1
			}
			if length+sep+len(sentences[j]) > size && j > i {
				break
			}
			length += sep + len(sentences[j])
			j++
		}

		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Back up whole sentences until the overlap budget is spent.
		next := j
		carried := 0
		for next > i+1 && carried+len(sentences[next-1]) <= overlap {
			next--
			carried += len(sentences[next])
		}
		i = next
	}

	return chunks
}
