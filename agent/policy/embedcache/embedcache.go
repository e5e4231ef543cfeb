// Package embedcache persists embedding vectors in a bbolt file so policy
// indexes can be rebuilt without re-embedding unchanged chunks.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

var bucketVectors = []byte("vectors")

// Cache wraps an Embedder. Vectors are keyed by model name and text, so a
// model switch never serves stale vectors.
type Cache struct {
	db   *bbolt.DB
	next contractx.Embedder

	hits   atomic.Int64
	misses atomic.Int64
}

func Open(path string, next contractx.Embedder) (*Cache, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: embedder is required", contractx.ErrValidation)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, next: next}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Dimensions() int   { return c.next.Dimensions() }
func (c *Cache) ModelName() string { return c.next.ModelName() }

// Stats reports lookups served from disk and lookups passed through.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len reports how many vectors are stored.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	return n, err
}

func (c *Cache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	var missing []int
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for i, k := range keys {
			data := b.Get(k)
			if data == nil {
				missing = append(missing, i)
				continue
			}
			var vec []float32
			if err := json.Unmarshal(data, &vec); err != nil || len(vec) != c.next.Dimensions() {
				missing = append(missing, i)
				continue
			}
			out[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.hits.Add(int64(len(texts) - len(missing)))
	c.misses.Add(int64(len(missing)))
	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vectors, err := c.next.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", contractx.ErrUpstream, len(vectors), len(batch))
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for j, i := range missing {
			out[i] = vectors[j]
			data, err := json.Marshal(vectors[j])
			if err != nil {
				return err
			}
			if err := b.Put(keys[i], data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store embeddings: %w", err)
	}
	return out, nil
}

func (c *Cache) key(text string) []byte {
	sum := sha256.Sum256([]byte(c.next.ModelName() + "\x00" + text))
	return []byte(hex.EncodeToString(sum[:]))
}
