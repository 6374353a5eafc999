package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/nzhukovskiy/fundlink-api/controllers"
	"github.com/nzhukovskiy/fundlink-api/middleware"
	"github.com/nzhukovskiy/fundlink-api/notifications"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

type Deps struct {
	Engine  *rounds.Engine
	Hub     *notifications.Hub
	CronKey string
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "fundlink-api",
	})
}

func InitRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// CORS origins from CORS_ALLOWED_ORIGINS (comma-separated) plus local defaults
	origins := []string{"http://localhost:3000", "http://localhost:4200", "http://127.0.0.1:3000"}
	for _, p := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-CRON-KEY", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	api := r.PathPrefix("/v3").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	cronLimiter := middleware.NewIPRateLimiter(60, time.Hour)
	wsLimiter := middleware.NewIPRateLimiter(120, time.Minute)

	fundingRounds := controllers.NewFundingRoundController(d.Engine)
	cron := controllers.NewCronController(d.Engine, d.CronKey)
	ws := controllers.NewNotificationController(d.Hub)

	startup := middleware.RequireRole(utils.RoleStartup)
	investor := middleware.RequireRole(utils.RoleInvestor)
	auth := func(h http.HandlerFunc, guards ...func(http.Handler) http.Handler) http.Handler {
		var next http.Handler = h
		for i := len(guards) - 1; i >= 0; i-- {
			next = guards[i](next)
		}
		return middleware.AuthMiddleware(next)
	}

	// Public reads
	api.HandleFunc("/startups/{id:[0-9]+}/funding-rounds", fundingRounds.ListForStartup).Methods(http.MethodGet)
	api.HandleFunc("/startups/{id:[0-9]+}/funding-rounds/current", fundingRounds.Current).Methods(http.MethodGet)
	api.HandleFunc("/funding-rounds/{id:[0-9]+}", fundingRounds.Get).Methods(http.MethodGet)

	roundLimit := middleware.MaxBody(middleware.RoundBodyBytes)
	investmentLimit := middleware.MaxBody(middleware.InvestmentBodyBytes)

	// Startup-owned round management
	api.Handle("/funding-rounds", roundLimit(auth(fundingRounds.Create, startup))).Methods(http.MethodPost)
	api.Handle("/funding-rounds/{id:[0-9]+}", roundLimit(auth(fundingRounds.Update, startup))).Methods(http.MethodPut)
	api.Handle("/funding-rounds/{id:[0-9]+}", auth(fundingRounds.Delete, startup)).Methods(http.MethodDelete)
	api.Handle("/funding-rounds/{id:[0-9]+}/proposal", auth(fundingRounds.CancelProposal, startup)).Methods(http.MethodDelete)

	// Investor deposits
	api.Handle("/funding-rounds/{id:[0-9]+}/investments", investmentLimit(auth(fundingRounds.Invest, investor))).Methods(http.MethodPost)

	api.Handle("/auth/logout", auth(controllers.LogoutHandler)).Methods(http.MethodPost)

	// Manual status sweep (protected via X-CRON-KEY header)
	api.Handle("/cron/funding-rounds/sweep", cronLimiter.Middleware(http.HandlerFunc(cron.Sweep))).Methods(http.MethodPost)

	// Notification feed; the token travels in the query string
	api.Handle("/ws/notifications", wsLimiter.Middleware(http.HandlerFunc(ws.Connect))).Methods(http.MethodGet)

	return r
}
