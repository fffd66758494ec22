package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/docblade/docblade/vector"
)

type chromemTestSuite struct {
	suite.Suite
	ctx        context.Context
	collection vector.Collection
}

func (suite *chromemTestSuite) SetupTest() {
	cfg := vector.Config{
		Persistent: false,
		Collection: "test_vectors",
		Dimension:  4,
	}

	vdb, err := NewChromemVectorDB(cfg)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	collection, err := vdb.Collection(cfg.Collection)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.ctx = context.Background()
	suite.collection = collection

	points := []vector.Point{
		{
			ID:        "p1",
			Content:   "alpha",
			Embedding: []float32{1, 0, 0, 0},
			Payload:   map[string]string{"file_path": "a.txt", "category_id": "1"},
		},
		{
			ID:        "p2",
			Content:   "beta",
			Embedding: []float32{0, 1, 0, 0},
			Payload:   map[string]string{"file_path": "b.txt", "category_id": "2"},
		},
		{
			ID:        "p3",
			Content:   "gamma",
			Embedding: []float32{0, 0, 1, 0},
			Payload:   map[string]string{"file_path": "b.txt"},
		},
	}

	if err := suite.collection.Upsert(suite.ctx, points); err != nil {
		suite.Fail(err.Error())
	}
}

func (suite *chromemTestSuite) TestCount() {
	suite.Equal(3, suite.collection.Count())
}

func (suite *chromemTestSuite) TestSearch() {
	hits, err := suite.collection.Search(suite.ctx, []float32{1, 0, 0, 0}, 1, vector.NoFilter())
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if !suite.Len(hits, 1) {
		return
	}

	suite.Equal("p1", hits[0].ID)
	suite.Equal("alpha", hits[0].Content)
	suite.InDelta(1.0, float64(hits[0].Score), 1e-5)
}

func (suite *chromemTestSuite) TestSearchClampsLimit() {
	hits, err := suite.collection.Search(suite.ctx, []float32{1, 0, 0, 0}, 10, vector.NoFilter())
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(hits, 3, "limit above the document count returns everything")
}

func (suite *chromemTestSuite) TestSearchFiltered() {
	filter := vector.FieldEquals("category_id", "2")

	hits, err := suite.collection.Search(suite.ctx, []float32{1, 0, 0, 0}, 3, filter)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if !suite.Len(hits, 1) {
		return
	}

	suite.Equal("p2", hits[0].ID)
}

func (suite *chromemTestSuite) TestSearchFilterMiss() {
	filter := vector.FieldEquals("category_id", "99")

	hits, err := suite.collection.Search(suite.ctx, []float32{1, 0, 0, 0}, 3, filter)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(hits)
}

func (suite *chromemTestSuite) TestSearchDimensionMismatch() {
	_, err := suite.collection.Search(suite.ctx, []float32{1, 0}, 1, vector.NoFilter())
	suite.ErrorIs(err, vector.ErrDimensionMismatch)
}

func (suite *chromemTestSuite) TestUpsertDimensionMismatch() {
	err := suite.collection.Upsert(suite.ctx, []vector.Point{
		{ID: "bad", Embedding: []float32{1, 0}},
	})

	suite.ErrorIs(err, vector.ErrDimensionMismatch)
}

func (suite *chromemTestSuite) TestScan() {
	points, err := suite.collection.Scan(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(points, 3)

	ids := make(map[string]bool)
	for _, point := range points {
		ids[point.ID] = true
	}

	suite.True(ids["p1"] && ids["p2"] && ids["p3"])
}

func (suite *chromemTestSuite) TestClear() {
	if err := suite.collection.Clear(suite.ctx); err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Zero(suite.collection.Count())

	points, err := suite.collection.Scan(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(points)

	// the handle stays usable after the swap
	err = suite.collection.Upsert(suite.ctx, []vector.Point{
		{ID: "p4", Content: "delta", Embedding: []float32{0, 0, 0, 1}},
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(1, suite.collection.Count())
}

func (suite *chromemTestSuite) TestUnsupportedMetric() {
	_, err := NewChromemVectorDB(vector.Config{Metric: "dot"})
	suite.ErrorIs(err, vector.ErrUnsupportedMetric)
}

func TestChromemTestSuite(t *testing.T) {
	suite.Run(t, new(chromemTestSuite))
}
