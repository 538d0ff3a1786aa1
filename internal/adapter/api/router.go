package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/human-centric-engineering/sunrise/internal/adapter/api/handler"
	"github.com/human-centric-engineering/sunrise/internal/adapter/api/middleware"
	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/pkg/config"
	"github.com/human-centric-engineering/sunrise/internal/usecase"
)

// Deps bundles everything the router needs. Tail may be nil when the live
// stream endpoint is not wired up, everything else is required.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Auth       *usecase.AuthUseCase
	Users      *usecase.UserUseCase
	Flags      *usecase.FlagUseCase
	AdminLogs  *usecase.AdminLogsUseCase
	ClientLogs *usecase.ClientLogUseCase
	Tail       *handler.TailBroker
}

// NewRouter creates and configures the application's HTTP router.
func NewRouter(deps Deps) http.Handler {
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Logger, deps.Config.SecureCookies)
	userHandler := handler.NewUserHandler(deps.Users, deps.Logger)
	flagHandler := handler.NewFlagHandler(deps.Flags, deps.Logger)
	adminLogsHandler := handler.NewAdminLogsHandler(deps.AdminLogs, deps.Logger)
	clientLogHandler := handler.NewClientLogHandler(deps.ClientLogs, deps.Logger, deps.Config.MaxClientLogBytes)

	authenticated := middleware.Auth(deps.Auth, deps.Logger)
	adminOnly := middleware.RequireAdmin(deps.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(deps.Logger, deps.Metrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/token", authHandler.IssueToken)

		r.Get("/flags/{key}", flagHandler.Evaluate)
		r.Post("/v1/client-logs", clientLogHandler.Report)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/logs", adminLogsHandler.List)
				r.Delete("/logs", adminLogsHandler.Clear)
				r.Get("/logs/stats", adminLogsHandler.Stats)
				r.Get("/logs/export", adminLogsHandler.Export)
				if deps.Tail != nil {
					r.Method(http.MethodGet, "/logs/stream", deps.Tail)
				}

				r.Post("/users", userHandler.Create)
				r.Get("/users", userHandler.List)

				r.Get("/flags", flagHandler.List)
				r.Put("/flags/{key}", flagHandler.Upsert)
			})
		})
	})

	return r
}
