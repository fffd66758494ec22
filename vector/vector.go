package vector

import (
	"context"
	"errors"
)

var (
	ErrDimensionMismatch = errors.New("vector length does not match collection dimension")
	ErrUnsupportedMetric = errors.New("unsupported similarity metric")
)

type Metric string

const MetricCosine Metric = "cosine"

type Config struct {
	Persistent bool   `yaml:"persistent"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
	Metric     Metric `yaml:"metric"`
}

// VectorDB hands out collection handles. Collection is the idempotent
// ensure: it creates the named collection when absent and returns the
// existing one otherwise.
type VectorDB interface {
	Collection(name string) (Collection, error)
	Close() error
}

// Collection stores immutable points and answers similarity queries.
type Collection interface {

	// Upsert writes all points in one batch, each keyed by its unique ID.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to limit hits ordered by descending similarity.
	// An empty collection yields an empty result, not an error.
	Search(ctx context.Context, query []float32, limit int, filter Filter) ([]Hit, error)

	// Scan returns every stored point, in no particular order.
	Scan(ctx context.Context) ([]Point, error)

	// Clear deletes all points and recreates the empty collection with the
	// same dimension and metric.
	Clear(ctx context.Context) error

	Count() int
}

// Point is the stored unit: a unique ID, an embedding, the chunk content
// and its payload metadata. Points are never mutated in place.
type Point struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
}

type Hit struct {
	Point
	Score float32 `json:"score"`
}

// Filter restricts a search to points whose payload field equals a value.
// The zero value means no filtering.
type Filter struct {
	field string
	value string
}

func NoFilter() Filter {
	return Filter{}
}

func FieldEquals(field, value string) Filter {
	return Filter{field: field, value: value}
}

func (f Filter) Empty() bool {
	return f.field == ""
}

// Where renders the filter as a metadata equality map, nil when empty.
func (f Filter) Where() map[string]string {
	if f.Empty() {
		return nil
	}

	return map[string]string{f.field: f.value}
}
