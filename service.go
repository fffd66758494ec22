package docblade

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docblade/docblade/answer"
	"github.com/docblade/docblade/chunker"
	"github.com/docblade/docblade/embedding"
	"github.com/docblade/docblade/extract"
	"github.com/docblade/docblade/vector"
)

// Service defines the core logic of docblade.
type Service interface {

	// Close releases the vector store and category registry handles.
	Close() error

	// Ingest extracts, chunks, embeds and indexes one document.
	Ingest(ctx context.Context, filePath string, category CategoryID) (*IngestSummary, error)

	// Query answers a natural-language question from the indexed chunks.
	Query(ctx context.Context, question string, limit int, category CategoryID) (*QueryResult, error)

	// ClearCollection destroys and recreates the named collection; an
	// empty name targets the configured one.
	ClearCollection(ctx context.Context, name string) (*ClearSummary, error)

	// ListFiles inventories the collection grouped by source file.
	ListFiles(ctx context.Context) ([]FileSummary, error)

	// CreateCategory registers a category name.
	CreateCategory(ctx context.Context, name string) (Category, error)

	// ListCategories returns all registered categories.
	ListCategories(ctx context.Context) ([]Category, error)
}

type ServiceMiddleware func(Service) Service

// Dependencies are the external collaborators the core orchestrates.
// Generator and Categories are optional; their absence degrades the
// matching features instead of failing startup.
type Dependencies struct {
	Vector     vector.VectorDB
	Extractor  extract.Extractor
	Generator  answer.Generator
	Categories CategoryRegistry
}

// embedConcurrency bounds the worker pool embedding a document's chunks.
const embedConcurrency = 8

func NewService(cfg Config, deps Dependencies) (Service, error) {
	cfg.ApplyDefaults()

	log := zap.L().With(
		zap.String("service", "docblade"),
	)

	tc, err := chunker.NewTokenChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	collection, err := deps.Vector.Collection(cfg.Vector.Collection)
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:        cfg,
		log:        log,
		vector:     deps.Vector,
		collection: collection,
		chunker:    tc,
		embedder:   embedding.NewEmbedder(cfg.Vector.Dimension),
		extractor:  deps.Extractor,
		generator:  deps.Generator,
		categories: deps.Categories,
	}, nil
}

type service struct {
	cfg Config
	log *zap.Logger

	vector     vector.VectorDB
	collection vector.Collection
	chunker    *chunker.TokenChunker
	embedder   *embedding.Embedder
	extractor  extract.Extractor
	generator  answer.Generator
	categories CategoryRegistry
}

func (svc *service) Close() error {
	if closer, ok := svc.categories.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}

	return svc.vector.Close()
}

func (svc *service) Ingest(ctx context.Context, filePath string, category CategoryID) (*IngestSummary, error) {
	log := svc.log.With(
		zap.String("action", "ingest"),
		zap.String("file_path", filePath),
	)

	text, err := svc.extractor.Extract(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filePath, err)
	}

	if n := extract.CountNonWhitespace(text); n < MinContentLength {
		return nil, fmt.Errorf("%w: %d non-whitespace characters in %s", ErrExtractionTooShort, n, filePath)
	}

	chunks := svc.chunker.Chunk(text)
	vectors := svc.embedChunks(chunks)

	canonical := category.Canonical()

	points := make([]vector.Point, 0, len(chunks))
	for i, chunk := range chunks {
		// The store normalizes embeddings; a zero vector would normalize
		// to NaN and poison the score of every later query.
		if isZeroVector(vectors[i]) {
			log.Warn("chunk has no embeddable words", zap.Int("chunk_id", i))
			continue
		}

		payload := map[string]string{
			payloadFilePath:      filePath,
			payloadChunkID:       strconv.Itoa(i),
			payloadContentLength: strconv.Itoa(len(chunk)),
		}

		// Absence, not an empty value, marks an uncategorized chunk.
		if canonical != "" {
			payload[payloadCategoryID] = canonical
		}

		points = append(points, vector.Point{
			ID:        uuid.NewString(),
			Content:   chunk,
			Embedding: vectors[i],
			Payload:   payload,
		})
	}

	if len(points) > 0 {
		if err := svc.collection.Upsert(ctx, points); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	log.Info("document ingested", zap.Int("chunks", len(points)))

	message := fmt.Sprintf("Successfully ingested %s with %d chunks", filePath, len(points))
	if canonical != "" {
		message += fmt.Sprintf(" (category %s)", canonical)
	}

	return &IngestSummary{
		Message:    message,
		FilePath:   filePath,
		Chunks:     len(points),
		CategoryID: canonical,
	}, nil
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}

	return true
}

// embedChunks runs the pure per-chunk embedding through a bounded worker
// pool. Slots are index-addressed, so completion order does not matter.
func (svc *service) embedChunks(chunks []string) [][]float32 {
	vectors := make([][]float32, len(chunks))

	sem := make(chan struct{}, embedConcurrency)

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, chunk string) {
			defer wg.Done()
			defer func() { <-sem }()

			vectors[i] = svc.embedder.Embed(chunk)
		}(i, chunk)
	}
	wg.Wait()

	return vectors
}

func (svc *service) Query(ctx context.Context, question string, limit int, category CategoryID) (*QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	queryVector := svc.embedder.Embed(question)

	// A question with no usable words embeds to the zero vector, which the
	// store cannot score; answer it like a query against an empty collection.
	if isZeroVector(queryVector) {
		result := &QueryResult{
			Question:       question,
			Results:        []SearchResult{},
			CategoryFilter: category.String(),
		}

		result.Answer = svc.generateAnswer(ctx, question, nil)

		return result, nil
	}

	hits, err := svc.search(ctx, queryVector, limit, category)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	contextChunks := make([]string, 0, len(hits))

	for _, hit := range hits {
		results = append(results, hitToResult(hit))

		if hit.Score > svc.cfg.ScoreThreshold {
			contextChunks = append(contextChunks, hit.Content)
		}
	}

	result := &QueryResult{
		Question:       question,
		Results:        results,
		TotalResults:   len(results),
		ContextUsed:    len(contextChunks),
		CategoryFilter: category.String(),
	}

	result.Answer = svc.generateAnswer(ctx, question, contextChunks)

	return result, nil
}

// search issues the primary (optionally filtered) query. When a filtered
// query finds nothing, it retries unfiltered and post-filters by category
// in process: native filters miss points whose category was stored with a
// different type rendering, and only the matching category may be returned.
func (svc *service) search(ctx context.Context, queryVector []float32, limit int, category CategoryID) ([]vector.Hit, error) {
	if category.Empty() {
		hits, err := svc.collection.Search(ctx, queryVector, limit, vector.NoFilter())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		return hits, nil
	}

	filter := vector.FieldEquals(payloadCategoryID, category.Canonical())

	hits, err := svc.collection.Search(ctx, queryVector, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if len(hits) > 0 {
		return hits, nil
	}

	unfiltered, err := svc.collection.Search(ctx, queryVector, limit, vector.NoFilter())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	matched := unfiltered[:0]
	for _, hit := range unfiltered {
		if category.Matches(hit.Payload[payloadCategoryID]) {
			matched = append(matched, hit)
		}
	}

	return matched, nil
}

func (svc *service) generateAnswer(ctx context.Context, question string, contextChunks []string) string {
	if svc.generator == nil {
		return answer.DegradedAnswer
	}

	contextText := strings.Join(contextChunks, "\n\n")

	text, err := svc.generator.Generate(ctx, question, contextText)
	if err != nil {
		svc.log.Warn("answer generation failed",
			zap.String("action", "query"),
			zap.Error(err),
		)

		return answer.DegradedAnswer
	}

	return text
}

func (svc *service) ClearCollection(ctx context.Context, name string) (*ClearSummary, error) {
	if name == "" || name == svc.cfg.Vector.Collection {
		name = svc.cfg.Vector.Collection

		if err := svc.collection.Clear(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	} else {
		collection, err := svc.vector.Collection(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if err := collection.Clear(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return &ClearSummary{
		Message:    fmt.Sprintf("Successfully cleared and recreated collection %s", name),
		Collection: name,
	}, nil
}

func (svc *service) ListFiles(ctx context.Context) ([]FileSummary, error) {
	points, err := svc.collection.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	type group struct {
		chunks     int
		categories map[string]struct{}
	}

	groups := make(map[string]*group)
	for _, point := range points {
		path := point.Payload[payloadFilePath]

		g, ok := groups[path]
		if !ok {
			g = &group{categories: make(map[string]struct{})}
			groups[path] = g
		}

		g.chunks++

		if category := point.Payload[payloadCategoryID]; category != "" {
			g.categories[category] = struct{}{}
		}
	}

	files := make([]FileSummary, 0, len(groups))
	for path, g := range groups {
		categories := make([]string, 0, len(g.categories))
		for category := range g.categories {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		files = append(files, FileSummary{
			FilePath:   path,
			ChunkCount: g.chunks,
			Categories: categories,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].FilePath < files[j].FilePath
	})

	return files, nil
}

func (svc *service) CreateCategory(ctx context.Context, name string) (Category, error) {
	if svc.categories == nil {
		return Category{}, ErrCategoriesNotEnabled
	}

	return svc.categories.Create(name)
}

func (svc *service) ListCategories(ctx context.Context) ([]Category, error) {
	if svc.categories == nil {
		return nil, ErrCategoriesNotEnabled
	}

	return svc.categories.List()
}
