package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quotehub/quotehub-backend/api/controllers"
	"github.com/quotehub/quotehub-backend/api/middleware"
	"github.com/quotehub/quotehub-backend/internal/comparison"
	"github.com/quotehub/quotehub-backend/internal/docprocess"
	"github.com/quotehub/quotehub-backend/internal/groups"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/db"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	quotesService quotes.Service,
	processService docprocess.Service,
	filesRepo *docprocess.Repository,
	importedRepo *ingest.Repository,
	mappedRowsService mappedrows.Service,
	groupsService groups.Service,
	comparisonService comparison.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/quotes/{quoteId}", func(r chi.Router) {
			r.Post("/files/{fileId}/process", controllers.QuoteFileProcess(processService, quotesService, filesRepo, logg))

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", controllers.GroupList(groupsService, logg))
				r.Post("/", controllers.GroupCreate(groupsService, logg))
				r.Put("/select", controllers.GroupSelect(groupsService, logg))
				r.Put("/move", controllers.GroupMoveRows(groupsService, logg))
				r.Get("/{groupId}", controllers.GroupFind(groupsService, logg))
				r.Patch("/{groupId}", controllers.GroupUpdate(groupsService, logg))
				r.Delete("/{groupId}", controllers.GroupDelete(groupsService, logg))
			})
		})

		r.Route("/quote-files/{fileId}", func(r chi.Router) {
			r.Get("/rows", controllers.QuoteFileRows(filesRepo, importedRepo, logg))
			r.Get("/compare/{otherId}", controllers.QuoteFileCompare(comparisonService, logg))
		})

		r.Get("/versions/{versionId}/mapped-rows", controllers.MappedRowsList(mappedRowsService, quotesService, logg))
	})

	return r
}
