package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"oddsmatch/application"
	"oddsmatch/domain/entities"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const maxCommandSize = 1 << 20

// Server exposes health, metrics and read-only engine state over HTTP.
// When a processor is attached it also accepts commands on POST /api/commands.
type Server struct {
	queries    *application.QueryService
	processor  *application.CommandProcessor
	registry   *prometheus.Registry
	onFatal    func(error)
	httpServer *http.Server
}

// NewServer creates a new admin server
func NewServer(queries *application.QueryService, registry *prometheus.Registry) *Server {
	return &Server{
		queries:  queries,
		registry: registry,
		onFatal: func(err error) {
			log.WithError(err).Error("Fatal engine error")
		},
	}
}

// WithCommands enables command submission; onFatal runs when a command
// reports a consistency violation
func (s *Server) WithCommands(processor *application.CommandProcessor, onFatal func(error)) *Server {
	s.processor = processor
	if onFatal != nil {
		s.onFatal = onFatal
	}
	return s
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/properties", s.handleProperties).Methods(http.MethodGet)
	api.HandleFunc("/games", s.handleGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{uuid}", s.handleGame).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{name}", s.handleAccount).Methods(http.MethodGet)
	if s.processor != nil {
		api.HandleFunc("/commands", s.handleCommand).Methods(http.MethodPost)
	}
	return router
}

// Start serves on addr until Stop is called
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.WithField("addr", addr).Info("Admin server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Admin server shutdown error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	props, err := s.queries.Properties(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"head_block_num":  props.HeadBlockNum,
		"head_block_time": props.HeadBlockTime,
	})
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.queries.Properties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.queries.Games(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if games == nil {
		games = []*entities.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	gameUUID, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snapshot, err := s.queries.Game(r.Context(), gameUUID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snapshot == nil {
		writeError(w, http.StatusNotFound, entities.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(snapshot))
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	account, err := s.queries.Account(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, entities.ErrNotFound)
		return
	}
	history, err := s.queries.BalanceHistory(r.Context(), name, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, accountView{Account: account, History: history})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCommandSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmd, err := application.DecodeCommand(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.processor.Apply(r.Context(), cmd)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
	case application.IsFatal(err):
		writeError(w, http.StatusInternalServerError, err)
		s.onFatal(err)
	default:
		writeError(w, statusFor(err), err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
