package api

import "github.com/listenupapp/exhibit-server/internal/service"

// IndexStats reports on the search index.
type IndexStats interface {
	DocumentCount() (uint64, error)
}

// Services groups the services used by the API server.
type Services struct {
	Catalog *service.CatalogService
	Ingest  *service.IngestService
	Index   IndexStats
}
