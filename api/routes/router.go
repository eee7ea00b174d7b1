package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/workshop-backend/api/controllers"
	"github.com/angelmondragon/workshop-backend/api/middleware"
	"github.com/angelmondragon/workshop-backend/internal/devices"
	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/internal/repairs"
	"github.com/angelmondragon/workshop-backend/internal/stats"
	"github.com/angelmondragon/workshop-backend/internal/usages"
	"github.com/angelmondragon/workshop-backend/pkg/config"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/workshop-backend/pkg/redis"
)

// Services groups the domain services served by the API.
type Services struct {
	Devices devices.Service
	Parts   inventory.Service
	Repairs repairs.Service
	Usages  usages.Service
	Stats   stats.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *pkgredis.Client,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	// A nil *Client must not leak into the interfaces below as a non-nil value.
	var (
		redisPinger controllers.Pinger
		idemStore   pkgredis.IdempotencyStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		if cfg.FeatureFlags.Idempotency {
			idemStore = redisClient
		}
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		r.Use(middleware.Idempotency(idemStore, cfg.FeatureFlags.IdempotencyTTL, logg))

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", controllers.DeviceList(svc.Devices, logg))
			r.Post("/", controllers.DeviceCreate(svc.Devices, logg))
			r.Get("/{deviceID}", controllers.DeviceGet(svc.Devices, logg))
			r.Put("/{deviceID}", controllers.DeviceUpdate(svc.Devices, logg))
			r.Delete("/{deviceID}", controllers.DeviceDelete(svc.Devices, logg))
		})

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", controllers.PartList(svc.Parts, logg))
			r.Post("/", controllers.PartCreate(svc.Parts, logg))
			r.Get("/{partID}", controllers.PartGet(svc.Parts, logg))
			r.Put("/{partID}", controllers.PartUpdate(svc.Parts, logg))
			r.Delete("/{partID}", controllers.PartDelete(svc.Parts, logg))
		})

		r.Route("/repairs", func(r chi.Router) {
			r.Get("/", controllers.RepairList(svc.Repairs, logg))
			r.Post("/", controllers.RepairCreate(svc.Repairs, logg))

			r.Route("/bulk", func(r chi.Router) {
				r.Post("/complete", controllers.RepairBulkComplete(svc.Repairs, logg))
				r.Post("/write-off", controllers.RepairBulkWriteOff(svc.Repairs, logg))
				r.Post("/release", controllers.RepairBulkRelease(svc.Repairs, logg))
			})

			r.Route("/{repairID}", func(r chi.Router) {
				r.Get("/", controllers.RepairGet(svc.Repairs, logg))
				r.Put("/", controllers.RepairUpdate(svc.Repairs, logg))
				r.Delete("/", controllers.RepairDelete(svc.Repairs, logg))
				r.Post("/status", controllers.RepairTransitionStatus(svc.Repairs, logg))
				r.Put("/status", controllers.RepairTransitionStatus(svc.Repairs, logg))
				r.Get("/validate", controllers.RepairValidate(svc.Repairs, logg))
				r.Post("/write-off", controllers.RepairWriteOff(svc.Repairs, logg))
				r.Post("/release", controllers.RepairRelease(svc.Repairs, logg))
				r.Get("/usages", controllers.UsageListByRepair(svc.Usages, logg))
				r.Post("/usages", controllers.UsageCreate(svc.Usages, logg))
			})
		})

		r.Route("/usages/{usageID}", func(r chi.Router) {
			r.Get("/", controllers.UsageGet(svc.Usages, logg))
			r.Put("/", controllers.UsageUpdate(svc.Usages, logg))
			r.Delete("/", controllers.UsageDelete(svc.Usages, logg))
		})

		r.Get("/stats", controllers.StatsSummary(svc.Stats, logg))
	})

	return r
}
