package nats

import (
	"context"
	"encoding/json"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/docblade/docblade"
)

// IngestHandler ingests a server-local path; uploads go through HTTP.
func IngestHandler(e endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req docblade.IngestRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := e(ctx, req)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		summary, ok := resp.(*docblade.IngestSummary)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(summary)
	}
}

func QueryHandler(e endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req docblade.QueryRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := e(ctx, req)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		result, ok := resp.(*docblade.QueryResult)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(result)
	}
}

func ClearHandler(e endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req docblade.ClearRequest
		if len(r.Data()) > 0 {
			if err := json.Unmarshal(r.Data(), &req); err != nil {
				r.Error("400", err.Error(), nil)
				return
			}
		}

		ctx := context.Background()
		resp, err := e(ctx, req)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		summary, ok := resp.(*docblade.ClearSummary)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(summary)
	}
}

func ListFilesHandler(e endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		resp, err := e(ctx, nil)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		files, ok := resp.([]docblade.FileSummary)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&files)
	}
}

func CreateCategoryHandler(e endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req docblade.CreateCategoryRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := e(ctx, req)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		category, ok := resp.(docblade.Category)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&category)
	}
}

func ListCategoriesHandler(e endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		resp, err := e(ctx, nil)
		if err != nil {
			r.Error("417", err.Error(), nil)
			return
		}

		categories, ok := resp.([]docblade.Category)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&categories)
	}
}
