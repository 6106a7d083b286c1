package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/procurement-api/internal/config"
	"github.com/straye-as/procurement-api/internal/database"
	"github.com/straye-as/procurement-api/internal/http/handler"
	"github.com/straye-as/procurement-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	rateLimiter       *middleware.RateLimiter
	importHandler     *handler.ImportHandler
	packageHandler    *handler.PackageHandler
	inviteHandler     *handler.InviteHandler
	dealerHandler     *handler.DealerHandler
	bidHandler        *handler.BidHandler
	comparisonHandler *handler.ComparisonHandler
	awardHandler      *handler.AwardHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	rateLimiter *middleware.RateLimiter,
	importHandler *handler.ImportHandler,
	packageHandler *handler.PackageHandler,
	inviteHandler *handler.InviteHandler,
	dealerHandler *handler.DealerHandler,
	bidHandler *handler.BidHandler,
	comparisonHandler *handler.ComparisonHandler,
	awardHandler *handler.AwardHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		rateLimiter:       rateLimiter,
		importHandler:     importHandler,
		packageHandler:    packageHandler,
		inviteHandler:     inviteHandler,
		dealerHandler:     dealerHandler,
		bidHandler:        bidHandler,
		comparisonHandler: comparisonHandler,
		awardHandler:      awardHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeHealth(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		status := http.StatusOK
		overall := "healthy"

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		writeHealth(w, status, map[string]interface{}{
			"status": overall,
			"checks": checks,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/imports/preview", rt.importHandler.Preview)
		r.Post("/projects/{projectId}/packages/import", rt.importHandler.Commit)

		// Packages
		r.Route("/packages/{id}", func(r chi.Router) {
			r.Get("/", rt.packageHandler.Get)
			r.Patch("/", rt.packageHandler.Update)

			r.Post("/import", rt.importHandler.Append)
			r.Get("/imports", rt.importHandler.History)

			r.Get("/spec-items", rt.packageHandler.ListSpecItems)
			r.Delete("/spec-items/{itemId}", rt.packageHandler.RemoveSpecItem)
			r.Post("/spec-items/{itemId}/deactivate", rt.packageHandler.DeactivateSpecItem)
			r.Post("/spec-items/{itemId}/reactivate", rt.packageHandler.ReactivateSpecItem)

			r.Get("/invites", rt.inviteHandler.List)
			r.Post("/invites", rt.inviteHandler.Create)

			r.Get("/bids", rt.bidHandler.ListByPackage)
			r.Post("/comparison", rt.comparisonHandler.Compare)

			r.Post("/award", rt.awardHandler.Award)
			r.Post("/reaward", rt.awardHandler.Reaward)
			r.Post("/clear-award", rt.awardHandler.ClearAward)
			r.Get("/award-events", rt.awardHandler.Events)
		})

		// Invites
		r.Route("/invites/{inviteId}", func(r chi.Router) {
			r.Post("/disable", rt.inviteHandler.Disable)
			r.Post("/enable", rt.inviteHandler.Enable)
			r.Put("/password", rt.inviteHandler.ChangePassword)
		})

		// Bids
		r.Route("/bids/{bidId}", func(r chi.Router) {
			r.Get("/", rt.bidHandler.Get)
			r.Post("/reopen", rt.bidHandler.Reopen)
			r.Get("/versions", rt.bidHandler.Versions)
		})

		// Dealer routes, addressed by invite access token
		r.Route("/dealer/{token}", func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitByDealerToken)

			r.Post("/unlock", rt.dealerHandler.Unlock)
			r.Get("/bid", rt.dealerHandler.GetBid)
			r.Put("/bid", rt.dealerHandler.SaveBid)
			r.Post("/bid/submit", rt.dealerHandler.Submit)
		})
	})

	return r
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
