package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/bird-tagger/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	searchHandler := handlers.NewSearchHandler(s.services.Engine, s.services.Locator, s.log)
	tagsHandler := handlers.NewTagsHandler(s.services.Mutator, s.log)
	filesHandler := handlers.NewFilesHandler(s.services.Deleter, s.log)
	ingestHandler := handlers.NewIngestHandler(s.services.Pipeline, s.log)
	uploadHandler := handlers.NewUploadHandler(s.services.Pipeline, s.log)
	subscriptionsHandler := handlers.NewSubscriptionsHandler(s.services.Notifier, s.services.Catalog, s.log)
	speciesHandler := handlers.NewSpeciesHandler(s.services.Catalog)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck(s.services.Ready))

		// Search
		r.Get("/search/tags", searchHandler.Tags)
		r.Get("/search/species", searchHandler.Species)
		r.Get("/search/thumbnail", searchHandler.Thumbnail)
		r.Post("/search/file", searchHandler.File)

		// Mutation
		r.Post("/tags", tagsHandler.Update)
		r.Delete("/files", filesHandler.Delete)

		// Ingestion
		r.Post("/ingest", ingestHandler.Ingest)
		r.Post("/uploads", uploadHandler.Upload)
		r.Post("/uploads/presign", uploadHandler.Presign)

		// Notifications
		r.Post("/subscriptions", subscriptionsHandler.Subscribe)
		r.Get("/species", speciesHandler.List)
	})
}
