package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"kazino-api/internal/catalog"
	"kazino-api/internal/feed"
	"kazino-api/internal/pkg/db"
	"kazino-api/internal/service"
)

// Dependencies bundles everything the router wires together.
type Dependencies struct {
	Pool      *db.Pool
	Catalog   *catalog.Store
	Feed      *feed.Feed
	Accounts  *service.AccountService
	Cases     *service.CaseService
	Inventory *service.InventoryService
	Upgrades  *service.UpgradeService
	Giveaways *service.GiveawayService
}

// NewRouter builds the HTTP API.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", handleHealthz())
	r.Get("/readyz", handleReadyz(deps.Pool))

	r.Route("/api", func(r chi.Router) {
		r.Get("/bootstrap", HandleBootstrap(deps.Catalog))
		r.Get("/cases/{caseID}/weapons", HandleCaseContents(deps.Catalog))
		r.Get("/top", HandleTop(deps.Accounts))
		r.Get("/feed", HandleFeed(deps.Feed))
		r.Get("/feed/ws", HandleFeedWS(deps.Feed))
		r.Post("/auth/login", HandleLogin(deps.Accounts))

		// The giveaway list stays behind auth: each slot carries the
		// caller's joined flag.
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Accounts))

			r.Get("/me", HandleMe(deps.Accounts))
			r.Post("/balance/claim", HandleClaim(deps.Accounts))

			r.Post("/case/open", HandleOpenCase(deps.Cases))

			r.Get("/inventory", HandleInventory(deps.Inventory))
			r.Post("/item/sell", HandleSell(deps.Inventory))

			r.Post("/upgrade/targets", HandleUpgradeTargets(deps.Upgrades))
			r.Post("/upgrade/start", HandleUpgradeStart(deps.Upgrades))

			r.Get("/giveaways", HandleGiveaways(deps.Giveaways))
			r.Post("/giveaways/join", HandleJoinGiveaway(deps.Giveaways))
			r.Get("/notifications", HandleNotifications(deps.Giveaways))
		})
	})

	return r
}

func handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleReadyz(pool *db.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// requestLogger logs one line per request. Health probes and the
// websocket stream are skipped to keep the log readable.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/api/feed/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}
