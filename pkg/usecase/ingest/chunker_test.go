package ingest

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First sentence. Second one! Third?  Fourth here.")
	gt.V(t, sentences).Equal([]string{
		"First sentence.",
		"Second one!",
		"Third?",
		"Fourth here.",
	})
}

func TestSplitSentencesNormalizesWhitespace(t *testing.T) {
	sentences := splitSentences("Line one\ncontinues here.\n\nNext   sentence.")
	gt.V(t, sentences).Equal([]string{
		"Line one continues here.",
		"Next sentence.",
	})
}

func TestSplitSentencesEmpty(t *testing.T) {
	gt.V(t, len(splitSentences("   \n\t"))).Equal(0)
}

func TestChunkTextRespectsSize(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota. Kappa lambda mu."
	chunks := chunkText(text, 40, 0)

	gt.True(t, len(chunks) > 1)
	for _, chunk := range chunks {
		gt.Number(t, len(chunk)).LessOrEqual(40)
	}
	// Every sentence survives somewhere.
	joined := strings.Join(chunks, " ")
	gt.S(t, joined).Contains("Alpha beta gamma.")
	gt.S(t, joined).Contains("Kappa lambda mu.")
}

func TestChunkTextOverlap(t *testing.T) {
	text := "One two three four. Five six seven eight. Nine ten eleven twelve."
	chunks := chunkText(text, 45, 25)

	gt.True(t, len(chunks) >= 2)
	// The last sentence of a chunk is carried into the next one.
	gt.S(t, chunks[0]).Contains("Five six seven eight.")
	gt.S(t, chunks[1]).Contains("Five six seven eight.")
}

func TestChunkTextOversizedSentence(t *testing.T) {
	long := strings.Repeat("word ", 50) + "end."
	chunks := chunkText(long, 30, 10)

	// A sentence beyond the size limit still lands in exactly one chunk.
	gt.V(t, len(chunks)).Equal(1)
	gt.S(t, chunks[0]).Contains("end.")
}

func TestChunkTextEmpty(t *testing.T) {
	gt.V(t, len(chunkText("", 800, 100))).Equal(0)
}
