package docblade

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/docblade/docblade/answer"
	"github.com/docblade/docblade/persistence/chromem"
	"github.com/docblade/docblade/vector"
)

type mapExtractor map[string]string

func (m mapExtractor) Extract(ctx context.Context, path string) (string, error) {
	text, ok := m[path]
	if !ok {
		return "", fs.ErrNotExist
	}

	return text, nil
}

func (m mapExtractor) Supports(path string) bool {
	_, ok := m[path]
	return ok
}

type staticGenerator struct {
	text string
	err  error
}

func (g staticGenerator) Generate(ctx context.Context, question, context string) (string, error) {
	if g.err != nil {
		return "", g.err
	}

	return g.text, nil
}

// wordRun produces n distinct whitespace-delimited tokens.
func wordRun(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%sword%d", prefix, i)
	}

	return strings.Join(words, " ")
}

type docBladeTestSuite struct {
	suite.Suite
	ctx context.Context
	svc Service
}

func (suite *docBladeTestSuite) SetupTest() {
	ctx := context.Background()

	cfg := Config{
		Vector: vector.Config{
			Persistent: false,
			Collection: "file_vectors",
		},
		Chunking: ChunkingConfig{
			Size:    100,
			Overlap: 20,
		},
	}

	vdb, err := chromem.NewChromemVectorDB(cfg.Vector)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	extractor := mapExtractor{
		"docs/raft.txt": "raft consensus leader election happens when followers " +
			"time out and request votes from the rest of the cluster until a " +
			"candidate collects a majority and starts replicating its log",
		"docs/gopher.txt": "gophers dig extensive burrow networks beneath " +
			"grasslands storing roots and tubers in dedicated chambers far " +
			"away from their nesting areas",
		"docs/guide.txt":      wordRun("guide", 260),
		"docs/stub.txt":       "too short",
		"docs/shortwords.txt": strings.Repeat("ab cd ef gh ij ", 10),
	}

	svc, err := NewService(cfg, Dependencies{
		Vector:    vdb,
		Extractor: extractor,
		Generator: staticGenerator{text: "generated answer"},
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.ctx = ctx
	suite.svc = svc
}

func (suite *docBladeTestSuite) TestIngest() {
	summary, err := suite.svc.Ingest(suite.ctx, "docs/guide.txt", "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	// 260 tokens in windows of 100 stepping by 80
	suite.Equal(3, summary.Chunks)
	suite.Equal("docs/guide.txt", summary.FilePath)
	suite.Empty(summary.CategoryID)
	suite.Contains(summary.Message, "3 chunks")

	result, err := suite.svc.Query(suite.ctx, "guideword0 guideword1 guideword2", 5, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	chunkIDs := make(map[int]bool)
	for _, hit := range result.Results {
		suite.Equal("docs/guide.txt", hit.FilePath)
		chunkIDs[hit.ChunkID] = true
	}

	suite.Equal(map[int]bool{0: true, 1: true, 2: true}, chunkIDs)
}

func (suite *docBladeTestSuite) TestIngestWithCategory() {
	summary, err := suite.svc.Ingest(suite.ctx, "docs/raft.txt", CategoryID("03"))
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("3", summary.CategoryID, "category stored in canonical form")
	suite.Contains(summary.Message, "category 3")
}

func (suite *docBladeTestSuite) TestIngestTooShort() {
	_, err := suite.svc.Ingest(suite.ctx, "docs/stub.txt", "")
	suite.ErrorIs(err, ErrExtractionTooShort)

	// nothing may have been written
	files, err := suite.svc.ListFiles(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(files)
}

func (suite *docBladeTestSuite) TestIngestNoEmbeddableWords() {
	// passes the length threshold, but every word is too short to embed
	summary, err := suite.svc.Ingest(suite.ctx, "docs/shortwords.txt", "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Zero(summary.Chunks, "zero-vector chunks must not be indexed")

	if _, err := suite.svc.Ingest(suite.ctx, "docs/raft.txt", ""); err != nil {
		suite.Fail(err.Error())
		return
	}

	result, err := suite.svc.Query(suite.ctx, "raft consensus leader election", 5, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if !suite.NotEmpty(result.Results) {
		return
	}

	for _, hit := range result.Results {
		suite.False(math.IsNaN(float64(hit.Score)))
		suite.NotEqual("docs/shortwords.txt", hit.FilePath)
	}

	_, err = json.Marshal(result)
	suite.NoError(err, "response must stay JSON-encodable")
}

func (suite *docBladeTestSuite) TestQueryNoUsableWords() {
	if _, err := suite.svc.Ingest(suite.ctx, "docs/raft.txt", ""); err != nil {
		suite.Fail(err.Error())
		return
	}

	// every word is below the minimum embeddable length
	result, err := suite.svc.Query(suite.ctx, "of it is", 5, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(result.Results)
	suite.Zero(result.TotalResults)
	suite.Zero(result.ContextUsed)

	_, err = json.Marshal(result)
	suite.NoError(err)
}

func (suite *docBladeTestSuite) TestQueryEmptyCollection() {
	result, err := suite.svc.Query(suite.ctx, "anything at all", 5, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(result.Results)
	suite.Zero(result.TotalResults)
	suite.Zero(result.ContextUsed)
}

func (suite *docBladeTestSuite) TestQuery() {
	for _, path := range []string{"docs/raft.txt", "docs/gopher.txt"} {
		if _, err := suite.svc.Ingest(suite.ctx, path, ""); err != nil {
			suite.Fail(err.Error())
			return
		}
	}

	result, err := suite.svc.Query(suite.ctx, "raft consensus leader election", 5, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if !suite.NotEmpty(result.Results) {
		return
	}

	suite.Equal("docs/raft.txt", result.Results[0].FilePath)
	suite.Equal(len(result.Results), result.TotalResults)
	suite.GreaterOrEqual(result.ContextUsed, 1, "top hit should clear the relevance threshold")
	suite.Equal("generated answer", result.Answer)
}

func (suite *docBladeTestSuite) TestQueryEmptyQuestion() {
	_, err := suite.svc.Query(suite.ctx, "   ", 5, "")
	suite.ErrorIs(err, ErrEmptyQuestion)
}

func (suite *docBladeTestSuite) TestQueryCategoryFilter() {
	if _, err := suite.svc.Ingest(suite.ctx, "docs/raft.txt", CategoryID("1")); err != nil {
		suite.Fail(err.Error())
		return
	}

	if _, err := suite.svc.Ingest(suite.ctx, "docs/gopher.txt", CategoryID("2")); err != nil {
		suite.Fail(err.Error())
		return
	}

	result, err := suite.svc.Query(suite.ctx, "burrow networks beneath grasslands", 5, CategoryID("02"))
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if !suite.NotEmpty(result.Results) {
		return
	}

	for _, hit := range result.Results {
		suite.Equal("2", hit.CategoryID)
		suite.Equal("docs/gopher.txt", hit.FilePath)
	}
}

func (suite *docBladeTestSuite) TestQueryCategoryMiss() {
	if _, err := suite.svc.Ingest(suite.ctx, "docs/raft.txt", CategoryID("1")); err != nil {
		suite.Fail(err.Error())
		return
	}

	result, err := suite.svc.Query(suite.ctx, "raft consensus", 5, CategoryID("99"))
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Zero(result.TotalResults)
	suite.Zero(result.ContextUsed)
}

func (suite *docBladeTestSuite) TestQueryDegradedAnswer() {
	cfg := Config{
		Vector: vector.Config{
			Persistent: false,
			Collection: "file_vectors",
		},
	}

	vdb, err := chromem.NewChromemVectorDB(cfg.Vector)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	svc, err := NewService(cfg, Dependencies{
		Vector: vdb,
		Extractor: mapExtractor{
			"docs/raft.txt": "raft consensus leader election happens when " +
				"followers time out and request votes from the cluster",
		},
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	defer svc.Close()

	if _, err := svc.Ingest(suite.ctx, "docs/raft.txt", ""); err != nil {
		suite.Fail(err.Error())
		return
	}

	result, err := svc.Query(suite.ctx, "raft consensus", 5, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(answer.DegradedAnswer, result.Answer)
	suite.NotEmpty(result.Results, "chunks are still returned without a generator")
}

func (suite *docBladeTestSuite) TestClearCollection() {
	if _, err := suite.svc.Ingest(suite.ctx, "docs/guide.txt", ""); err != nil {
		suite.Fail(err.Error())
		return
	}

	summary, err := suite.svc.ClearCollection(suite.ctx, "")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("file_vectors", summary.Collection)

	files, err := suite.svc.ListFiles(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(files)

	// clearing an already empty collection succeeds
	_, err = suite.svc.ClearCollection(suite.ctx, "")
	suite.NoError(err)
}

func (suite *docBladeTestSuite) TestListFiles() {
	if _, err := suite.svc.Ingest(suite.ctx, "docs/guide.txt", CategoryID("7")); err != nil {
		suite.Fail(err.Error())
		return
	}

	if _, err := suite.svc.Ingest(suite.ctx, "docs/raft.txt", ""); err != nil {
		suite.Fail(err.Error())
		return
	}

	files, err := suite.svc.ListFiles(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if !suite.Len(files, 2) {
		return
	}

	suite.Equal("docs/guide.txt", files[0].FilePath)
	suite.Equal(3, files[0].ChunkCount)
	suite.Equal([]string{"7"}, files[0].Categories)

	suite.Equal("docs/raft.txt", files[1].FilePath)
	suite.Equal(1, files[1].ChunkCount)
	suite.Empty(files[1].Categories)
}

func (suite *docBladeTestSuite) TestCategoriesNotEnabled() {
	_, err := suite.svc.CreateCategory(suite.ctx, "legal")
	suite.ErrorIs(err, ErrCategoriesNotEnabled)

	_, err = suite.svc.ListCategories(suite.ctx)
	suite.ErrorIs(err, ErrCategoriesNotEnabled)
}

func (suite *docBladeTestSuite) TearDownTest() {
	if suite.svc != nil {
		suite.svc.Close()
	}

	suite.ctx = nil
	suite.svc = nil
}

func TestDocBladeTestSuite(t *testing.T) {
	suite.Run(t, new(docBladeTestSuite))
}

// fakeCollection exercises the category fallback: the native filter only
// sees the raw stored rendering, so a canonical filter value misses and the
// in-process post-filter has to reconcile the two.
type fakeCollection struct {
	hits []vector.Hit
}

func (f *fakeCollection) Upsert(ctx context.Context, points []vector.Point) error { return nil }

func (f *fakeCollection) Search(ctx context.Context, query []float32, limit int, filter vector.Filter) ([]vector.Hit, error) {
	if filter.Empty() {
		return f.hits, nil
	}

	var hits []vector.Hit
	for _, hit := range f.hits {
		for field, value := range filter.Where() {
			if hit.Payload[field] == value {
				hits = append(hits, hit)
			}
		}
	}

	return hits, nil
}

func (f *fakeCollection) Scan(ctx context.Context) ([]vector.Point, error) { return nil, nil }
func (f *fakeCollection) Clear(ctx context.Context) error                  { return nil }
func (f *fakeCollection) Count() int                                       { return len(f.hits) }

type fakeVectorDB struct {
	collection *fakeCollection
}

func (f *fakeVectorDB) Collection(name string) (vector.Collection, error) {
	return f.collection, nil
}

func (f *fakeVectorDB) Close() error { return nil }

func TestQueryCategoryFallback(t *testing.T) {
	ctx := context.Background()

	vdb := &fakeVectorDB{
		collection: &fakeCollection{
			hits: []vector.Hit{
				{
					Point: vector.Point{
						Content: "tax law applies",
						Payload: map[string]string{
							"file_path":   "docs/tax.txt",
							"chunk_id":    "0",
							"category_id": "007",
						},
					},
					Score: 0.9,
				},
				{
					Point: vector.Point{
						Content: "unrelated",
						Payload: map[string]string{
							"file_path":   "docs/misc.txt",
							"chunk_id":    "0",
							"category_id": "misc",
						},
					},
					Score: 0.8,
				},
			},
		},
	}

	svc, err := NewService(Config{}, Dependencies{
		Vector:    vdb,
		Extractor: mapExtractor{},
	})
	if err != nil {
		t.Fatal(err.Error())
	}

	result, err := svc.Query(ctx, "tax law", 5, CategoryID("7"))
	if err != nil {
		t.Fatal(err.Error())
	}

	if result.TotalResults != 1 {
		t.Fatalf("expected 1 result, got %d", result.TotalResults)
	}

	if result.Results[0].CategoryID != "007" {
		t.Errorf("expected raw stored category, got %q", result.Results[0].CategoryID)
	}
}
