package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/auth"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/catalog"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/repo"
	"github.com/BetriebsIntelligenz/DAiS-Daily-System-sub001/internal/service"
)

type API struct {
	Repo    *repo.Repo
	Service *service.Service
	Catalog *catalog.Catalog
	Auth    *auth.Manager
	Origins []string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)
		r.Get("/me", a.handleMe)
		r.Post("/users/get-or-create", a.handleGetOrCreateUser)

		r.Route("/xp", func(r chi.Router) {
			r.Get("/summary", a.handleXpSummary)
			r.Get("/balance", a.handleTotalBalance)
			r.Get("/categories", a.handleCategoryBalances)
			r.Get("/transactions", a.handleListTransactions)
		})

		r.Route("/programs", func(r chi.Router) {
			r.Get("/", a.handleListPrograms)
			r.Get("/{id}", a.handleGetProgram)
		})
		r.Route("/program-runs", func(r chi.Router) {
			r.Get("/", a.handleListProgramRuns)
			r.Post("/", a.handleCompleteRun)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", a.handleListRewards)
			r.Post("/", a.handleCreateReward)
			r.Put("/{id}/active", a.handleUpdateRewardActive)
			r.Delete("/{id}", a.handleDeleteReward)
			r.Post("/redeem", a.handleRedeem)
			r.Post("/relist", a.handleRelist)
		})
	})

	return r
}
