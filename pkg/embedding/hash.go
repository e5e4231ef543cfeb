package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const stemLength = 6

var stopWords = map[string]bool{
	"a": true, "all": true, "an": true, "and": true, "are": true, "as": true, "be": true,
	"by": true, "can": true, "do": true, "for": true, "how": true, "i": true, "if": true,
	"in": true, "is": true, "it": true, "my": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "was": true, "what": true, "when": true, "will": true,
	"with": true, "you": true, "your": true,
}

// HashEmbedder is an offline bag-of-words embedder. Tokens are lowercased,
// cut to a short prefix stem and hashed into a fixed number of buckets. It
// needs no network and is deterministic, which suits tests and local runs.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Dimensions() int   { return h.dims }
func (h *HashEmbedder) ModelName() string { return "hash-bow" }

func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, h.dims)
		for _, tok := range Tokenize(text) {
			f := fnv.New32a()
			_, _ = f.Write([]byte(tok))
			vec[f.Sum32()%uint32(h.dims)]++
		}
		out[i] = vec
	}
	return out, nil
}

// Tokenize splits text into lowercase stems with stop words removed.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		if r := []rune(f); len(r) > stemLength {
			f = string(r[:stemLength])
		}
		out = append(out, f)
	}
	return out
}
