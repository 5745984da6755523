package qa

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Chunk is a piece of the document with the label it is cited by
type Chunk struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// tagChunks labels every chunk with its first line, or with its position
// when the chunk is a single line
func tagChunks(texts []string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		name := fmt.Sprintf("Section %d", i+1)
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			name = text[:idx]
		}
		chunks[i] = Chunk{Source: "[" + name + "]", Text: text}
	}
	return chunks
}

type scored struct {
	index int
	score float64
}

// topK returns the indexes of the k vectors most similar to query, best first.
// Ties keep document order.
func topK(query []float32, vectors [][]float32, k int) []int {
	scores := make([]scored, len(vectors))
	for i, v := range vectors {
		scores[i] = scored{index: i, score: cosine(query, v)}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = scores[i].index
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
