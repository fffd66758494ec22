package docblade

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	Ingest          endpoint.Endpoint
	Query           endpoint.Endpoint
	ClearCollection endpoint.Endpoint
	ListFiles       endpoint.Endpoint
	CreateCategory  endpoint.Endpoint
	ListCategories  endpoint.Endpoint
}

type IngestRequest struct {
	FilePath   string     `json:"file_path"`
	CategoryID CategoryID `json:"category_id,omitempty"`
}

func IngestEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IngestRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Ingest(ctx, req.FilePath, req.CategoryID)
	}
}

type QueryRequest struct {
	Question   string     `json:"question"`
	Limit      int        `json:"limit,omitempty"`
	CategoryID CategoryID `json:"category_id,omitempty"`
}

func QueryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(QueryRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Query(ctx, req.Question, req.Limit, req.CategoryID)
	}
}

type ClearRequest struct {
	Collection string `json:"collection,omitempty"`
}

func ClearCollectionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ClearRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.ClearCollection(ctx, req.Collection)
	}
}

func ListFilesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.ListFiles(ctx)
	}
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

func CreateCategoryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(CreateCategoryRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.CreateCategory(ctx, req.Name)
	}
}

func ListCategoriesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.ListCategories(ctx)
	}
}
