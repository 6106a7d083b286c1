package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/straye-as/procurement-api/internal/config"
	"go.uber.org/zap"
)

// DealerPathPrefix is the route prefix of the token-authenticated dealer portal
const DealerPathPrefix = "/api/v1/dealer/"

// CORS returns the cross-origin policy for the API. Admin routes use the
// configured options as-is. Dealer routes are authorized by the invite token in
// the path, so they never allow credentials and only accept GET and POST.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	admin := corsOptions(cfg, environment, logger)

	dealer := admin
	dealer.AllowCredentials = false
	dealer.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}

	adminCors := cors.New(admin)
	dealerCors := cors.New(dealer)

	return func(next http.Handler) http.Handler {
		adminHandler := adminCors.Handler(next)
		dealerHandler := dealerCors.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, DealerPathPrefix) {
				dealerHandler.ServeHTTP(w, r)
				return
			}
			adminHandler.ServeHTTP(w, r)
		})
	}
}

func corsOptions(cfg *config.CORSConfig, environment string, logger *zap.Logger) cors.Options {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	local := environment == "" || environment == "development" || environment == "local"
	anyOrigin := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !local {
			logger.Warn("CORS allows every origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS restricted to configured origins",
			zap.Strings("origins", cfg.AllowedOrigins))

	case local:
		options.AllowOriginFunc = anyOrigin
		logger.Info("CORS allows every origin in development")

	default:
		// an empty AllowedOrigins list means "*" to go-chi/cors
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins; cross-origin requests are denied",
			zap.String("environment", environment))
	}

	return options
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
