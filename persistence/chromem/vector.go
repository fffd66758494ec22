package chromem

import (
	"context"
	"math"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/docblade/docblade/vector"
)

func NewChromemVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	if cfg.Metric != "" && cfg.Metric != vector.MetricCosine {
		return nil, vector.ErrUnsupportedMetric
	}

	var db *chromem.DB
	if !cfg.Persistent {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, err
		}

		db = d
	}

	dim := cfg.Dimension
	if dim <= 0 {
		dim = 384
	}

	return &chromemVectorDB{db: db, dim: dim}, nil
}

type chromemVectorDB struct {
	db  *chromem.DB
	dim int
}

func (v *chromemVectorDB) Collection(name string) (vector.Collection, error) {
	c, err := v.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, err
	}

	return &collection{
		db:         v.db,
		name:       name,
		dim:        v.dim,
		collection: c,
	}, nil
}

func (v *chromemVectorDB) Close() error {
	return nil
}

type collection struct {
	db   *chromem.DB
	name string
	dim  int

	// Guards collection against a concurrent Clear, which swaps the
	// underlying chromem collection for a fresh one.
	mu         sync.RWMutex
	collection *chromem.Collection
}

func (c *collection) Upsert(ctx context.Context, points []vector.Point) error {
	docs := make([]chromem.Document, len(points))
	for i, point := range points {
		if len(point.Embedding) != c.dim {
			return vector.ErrDimensionMismatch
		}

		docs[i] = chromem.Document{
			ID:        point.ID,
			Metadata:  point.Payload,
			Embedding: point.Embedding,
			Content:   point.Content,
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.collection.AddDocuments(ctx, docs, 1)
}

func (c *collection) Search(ctx context.Context, query []float32, limit int, filter vector.Filter) ([]vector.Hit, error) {
	if len(query) != c.dim {
		return nil, vector.ErrDimensionMismatch
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// chromem rejects nResults above the document count.
	if count := c.collection.Count(); limit > count {
		limit = count
	}

	if limit <= 0 {
		return []vector.Hit{}, nil
	}

	results, err := c.collection.QueryEmbedding(ctx, query, limit, filter.Where(), nil)
	if err != nil {
		return nil, err
	}

	hits := make([]vector.Hit, len(results))
	for i, result := range results {
		hits[i] = vector.Hit{
			Point: vector.Point{
				ID:        result.ID,
				Content:   result.Content,
				Embedding: result.Embedding,
				Payload:   result.Metadata,
			},
			Score: result.Similarity,
		}
	}

	return hits, nil
}

func (c *collection) Scan(ctx context.Context) ([]vector.Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := c.collection.Count()
	if count == 0 {
		return []vector.Point{}, nil
	}

	// chromem has no list-all API; a constant unit probe vector returns
	// every document regardless of score.
	probe := make([]float32, c.dim)
	unit := float32(1 / math.Sqrt(float64(c.dim)))
	for i := range probe {
		probe[i] = unit
	}

	results, err := c.collection.QueryEmbedding(ctx, probe, count, nil, nil)
	if err != nil {
		return nil, err
	}

	points := make([]vector.Point, len(results))
	for i, result := range results {
		points[i] = vector.Point{
			ID:        result.ID,
			Content:   result.Content,
			Embedding: result.Embedding,
			Payload:   result.Metadata,
		}
	}

	return points, nil
}

func (c *collection) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.DeleteCollection(c.name); err != nil {
		return err
	}

	fresh, err := c.db.GetOrCreateCollection(c.name, nil, nil)
	if err != nil {
		return err
	}

	c.collection = fresh
	return nil
}

func (c *collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.collection.Count()
}
