package server

//go:generate mockgen -source=server.go -destination=../mocks/mock_server.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/and161185/gamewallet/internal/config"
	"github.com/and161185/gamewallet/internal/deps"
	"github.com/and161185/gamewallet/internal/errs"
	"github.com/and161185/gamewallet/internal/middleware"
	"github.com/and161185/gamewallet/internal/model"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Decider interface {
	Decide(ctx context.Context, d model.Decision) (model.Outcome, error)
}

type Storage interface {
	GetRequest(ctx context.Context, source model.Source, id string) (model.Request, error)
	ListPending(ctx context.Context) ([]model.Request, error)
	Ping(ctx context.Context) error
}

type BotDirectory interface {
	GetBot(ctx context.Context, botID string) (model.Bot, error)
}

type CallbackAnswerer interface {
	AnswerCallback(callbackID, text string) error
}

type Server struct {
	decider  Decider
	storage  Storage
	bots     BotDirectory
	answerer CallbackAnswerer
	config   *config.Config
	deps     *deps.Deps
}

// NewServer wires the HTTP adapters. answerer may be nil when no Telegram token is configured.
func NewServer(decider Decider, storage Storage, bots BotDirectory, answerer CallbackAnswerer, config *config.Config, deps *deps.Deps) *Server {
	return &Server{
		decider:  decider,
		storage:  storage,
		bots:     bots,
		answerer: answerer,
		config:   config,
		deps:     deps,
	}
}

func (srv *Server) buildRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.deps.Logger))
	router.Use(chiMiddleware.Compress(5, "application/json"))

	router.Get("/api/health", srv.HealthHandler)
	if srv.deps.Registry != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(srv.deps.Registry, promhttp.HandlerOpts{}))
	}

	router.Post("/api/v1/telegram/{botID}/callback", srv.TelegramCallbackHandler)

	// admin
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(srv.deps.TokenManager))

		r.Get("/api/v1/admin/approvals/pending", srv.PendingHandler)
		r.Post("/api/v1/admin/approvals/{id}/action", srv.decisionHandler(model.Orders))
		r.Post("/api/v1/admin/wallet-loads/{id}/action", srv.decisionHandler(model.WalletLoads))
	})

	// bot API
	router.Group(func(r chi.Router) {
		r.Use(middleware.BotAuthMiddleware(srv.bots))

		r.Post("/api/v1/bot/orders/{id}/action", srv.decisionHandler(model.Orders))
		r.Post("/api/v1/bot/wallet-loads/{id}/action", srv.decisionHandler(model.WalletLoads))
	})

	return router
}

func (srv *Server) Run(ctx context.Context) error {
	router := srv.buildRouter()

	server := &http.Server{
		Addr:    srv.config.RunAddress,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srv.deps.Logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (srv *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	database := "PostgreSQL"
	if srv.config.DatabaseURI == "" {
		database = "memory"
	}

	if err := srv.storage.Ping(r.Context()); err != nil {
		srv.deps.Logger.Errorf("health check: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": database})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": database})
}

func (srv *Server) PendingHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := srv.storage.ListPending(r.Context())
	if err != nil {
		srv.deps.Logger.Errorf("list pending: %v", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if len(requests) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

func (srv *Server) decisionHandler(source model.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req model.ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		outcome, err := srv.decider.Decide(r.Context(), model.Decision{
			Source:          source,
			RequestID:       chi.URLParam(r, "id"),
			Action:          req.Action,
			Actor:           actor,
			FinalAmount:     req.FinalAmount,
			RejectionReason: req.Reason,
		})
		if err != nil {
			srv.writeDecisionError(w, err)
			return
		}

		status := http.StatusOK
		if outcome.AlreadyProcessed {
			status = http.StatusConflict
		}
		writeJSON(w, status, outcome)
	}
}

func (srv *Server) writeDecisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errs.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, errs.ErrInvalidAction), errors.Is(err, errs.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		srv.deps.Logger.Errorf("decide: %v", err)
		http.Error(w, "decision failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
