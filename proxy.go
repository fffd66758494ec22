package docblade

import (
	"context"
	"errors"
)

// ProxyMiddleware implements Service against a remote EndpointSet, so
// client binaries reuse the same interface over NATS.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) Ingest(ctx context.Context, filePath string, category CategoryID) (*IngestSummary, error) {
	req := IngestRequest{
		FilePath:   filePath,
		CategoryID: category,
	}

	resp, err := mw.endpoints.Ingest(ctx, req)
	if err != nil {
		return nil, err
	}

	summary, ok := resp.(*IngestSummary)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return summary, nil
}

func (mw *proxyMiddleware) Query(ctx context.Context, question string, limit int, category CategoryID) (*QueryResult, error) {
	req := QueryRequest{
		Question:   question,
		Limit:      limit,
		CategoryID: category,
	}

	resp, err := mw.endpoints.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	result, ok := resp.(*QueryResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return result, nil
}

func (mw *proxyMiddleware) ClearCollection(ctx context.Context, name string) (*ClearSummary, error) {
	resp, err := mw.endpoints.ClearCollection(ctx, ClearRequest{Collection: name})
	if err != nil {
		return nil, err
	}

	summary, ok := resp.(*ClearSummary)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return summary, nil
}

func (mw *proxyMiddleware) ListFiles(ctx context.Context) ([]FileSummary, error) {
	resp, err := mw.endpoints.ListFiles(ctx, nil)
	if err != nil {
		return nil, err
	}

	files, ok := resp.([]FileSummary)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return files, nil
}

func (mw *proxyMiddleware) CreateCategory(ctx context.Context, name string) (Category, error) {
	resp, err := mw.endpoints.CreateCategory(ctx, CreateCategoryRequest{Name: name})
	if err != nil {
		return Category{}, err
	}

	category, ok := resp.(Category)
	if !ok {
		return Category{}, errors.New("invalid response type")
	}

	return category, nil
}

func (mw *proxyMiddleware) ListCategories(ctx context.Context) ([]Category, error) {
	resp, err := mw.endpoints.ListCategories(ctx, nil)
	if err != nil {
		return nil, err
	}

	categories, ok := resp.([]Category)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return categories, nil
}
