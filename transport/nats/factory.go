package nats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/docblade/docblade"
)

// MakeEndpoints builds a client-side EndpointSet speaking the service's
// NATS topics, for use behind ProxyMiddleware.
func MakeEndpoints(nc *nats.Conn, prefix string) *docblade.EndpointSet {
	return &docblade.EndpointSet{
		Ingest:          IngestEndpoint(nc, prefix+".ingest"),
		Query:           QueryEndpoint(nc, prefix+".query"),
		ClearCollection: ClearEndpoint(nc, prefix+".clear"),
		ListFiles:       ListFilesEndpoint(nc, prefix+".list_files"),
		CreateCategory:  CreateCategoryEndpoint(nc, prefix+".create_category"),
		ListCategories:  ListCategoriesEndpoint(nc, prefix+".list_categories"),
	}
}

func IngestEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(docblade.IngestRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var summary docblade.IngestSummary
		if err := json.Unmarshal(resp.Data, &summary); err != nil {
			return nil, err
		}

		return &summary, nil
	}
}

func QueryEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(docblade.QueryRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var result docblade.QueryResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, err
		}

		return &result, nil
	}
}

func ClearEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(docblade.ClearRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var summary docblade.ClearSummary
		if err := json.Unmarshal(resp.Data, &summary); err != nil {
			return nil, err
		}

		return &summary, nil
	}
}

func ListFilesEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		resp, err := nc.Request(topic, nil, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var files []docblade.FileSummary
		if err := json.Unmarshal(resp.Data, &files); err != nil {
			return nil, err
		}

		return files, nil
	}
}

func CreateCategoryEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(docblade.CreateCategoryRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var category docblade.Category
		if err := json.Unmarshal(resp.Data, &category); err != nil {
			return nil, err
		}

		return category, nil
	}
}

func ListCategoriesEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		resp, err := nc.Request(topic, nil, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var categories []docblade.Category
		if err := json.Unmarshal(resp.Data, &categories); err != nil {
			return nil, err
		}

		return categories, nil
	}
}

func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	return errors.New(code + ":" + description)
}
