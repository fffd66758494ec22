package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/docblade/docblade"
)

func AddEndpoints(group micro.Group, endpoints docblade.EndpointSet) {
	group.AddEndpoint("ingest", IngestHandler(endpoints.Ingest))
	group.AddEndpoint("query", QueryHandler(endpoints.Query))
	group.AddEndpoint("clear", ClearHandler(endpoints.ClearCollection))
	group.AddEndpoint("list_files", ListFilesHandler(endpoints.ListFiles))
	group.AddEndpoint("create_category", CreateCategoryHandler(endpoints.CreateCategory))
	group.AddEndpoint("list_categories", ListCategoriesHandler(endpoints.ListCategories))
}
