package docblade

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docblade/docblade/answer"
	"github.com/docblade/docblade/chunker"
	"github.com/docblade/docblade/embedding"
	"github.com/docblade/docblade/vector"
)

var (
	ErrExtractionTooShort   = errors.New("extracted content too short")
	ErrEmptyQuestion        = errors.New("question must not be empty")
	ErrStoreUnavailable     = errors.New("vector store unavailable")
	ErrCategoriesNotEnabled = errors.New("category registry not configured")
)

const (
	// DefaultCollection is the vector index partition documents land in.
	DefaultCollection = "file_vectors"

	// MinContentLength is the minimum number of non-whitespace characters
	// extraction must produce before any point is written.
	MinContentLength = 50

	// DefaultSearchLimit bounds a query when the caller does not.
	DefaultSearchLimit = 5

	// DefaultScoreThreshold separates context-worthy hits from ones
	// returned for visibility only.
	DefaultScoreThreshold = 0.1
)

// Payload keys attached to every indexed point.
const (
	payloadFilePath      = "file_path"
	payloadChunkID       = "chunk_id"
	payloadContentLength = "content_length"
	payloadCategoryID    = "category_id"
)

type Config struct {
	Vector         vector.Config  `yaml:"vector"`
	Chunking       ChunkingConfig `yaml:"chunking"`
	Answer         answer.Config  `yaml:"answer"`
	ScoreThreshold float32        `yaml:"scoreThreshold"`
	UploadDir      string         `yaml:"uploadDir"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

func (cfg *Config) ApplyDefaults() {
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = DefaultCollection
	}
	if cfg.Vector.Dimension <= 0 {
		cfg.Vector.Dimension = embedding.DefaultDimension
	}
	if cfg.Vector.Metric == "" {
		cfg.Vector.Metric = vector.MetricCosine
	}
	if cfg.Chunking.Size <= 0 {
		cfg.Chunking.Size = chunker.DefaultSize
	}
	if cfg.Chunking.Overlap <= 0 {
		cfg.Chunking.Overlap = chunker.DefaultOverlap
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = DefaultScoreThreshold
	}
}

// CategoryID carries a category value that callers supply as either a
// string or a number. "3" and 3 denote the same category; the canonical
// form is the decimal rendering for values that parse as integers.
type CategoryID string

func (c CategoryID) Empty() bool {
	return strings.TrimSpace(string(c)) == ""
}

func (c CategoryID) String() string {
	return string(c)
}

// Canonical returns the form used for payload storage and native filters.
func (c CategoryID) Canonical() string {
	return canonicalCategory(string(c))
}

// Matches reports whether a stored category value denotes this category,
// accepting both its raw and canonical renderings.
func (c CategoryID) Matches(stored string) bool {
	if c.Empty() || stored == "" {
		return false
	}

	if stored == strings.TrimSpace(string(c)) {
		return true
	}

	return canonicalCategory(stored) == c.Canonical()
}

func canonicalCategory(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}

	return value
}

func (c *CategoryID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*c = CategoryID(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}

	*c = CategoryID(num.String())
	return nil
}

func (c *CategoryID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("category_id must be a scalar, got %v", value.Kind)
	}

	*c = CategoryID(value.Value)
	return nil
}

type IngestSummary struct {
	Message    string `json:"message"`
	FilePath   string `json:"file_path"`
	Chunks     int    `json:"chunks"`
	CategoryID string `json:"category_id,omitempty"`
}

type SearchResult struct {
	Score      float32 `json:"score"`
	Content    string  `json:"content"`
	FilePath   string  `json:"file_path"`
	ChunkID    int     `json:"chunk_id"`
	CategoryID string  `json:"category_id,omitempty"`
}

type QueryResult struct {
	Question       string         `json:"question"`
	Answer         string         `json:"answer"`
	Results        []SearchResult `json:"results"`
	TotalResults   int            `json:"total_results"`
	ContextUsed    int            `json:"context_used"`
	CategoryFilter string         `json:"category_filter,omitempty"`
}

type ClearSummary struct {
	Message    string `json:"message"`
	Collection string `json:"collection"`
}

type FileSummary struct {
	FilePath   string   `json:"file_path"`
	ChunkCount int      `json:"chunk_count"`
	Categories []string `json:"categories,omitempty"`
}

// Category is a registered category name with its stable numeric ID.
type Category struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// CategoryRegistry is the optional bookkeeping collaborator behind the
// categories endpoints.
type CategoryRegistry interface {
	Create(name string) (Category, error)
	List() ([]Category, error)
}

func hitToResult(hit vector.Hit) SearchResult {
	result := SearchResult{
		Score:      hit.Score,
		Content:    hit.Content,
		FilePath:   hit.Payload[payloadFilePath],
		CategoryID: hit.Payload[payloadCategoryID],
	}

	if id, err := strconv.Atoi(hit.Payload[payloadChunkID]); err == nil {
		result.ChunkID = id
	}

	return result
}
