package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/hexstones/game/config"
	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
	"github.com/wricardo/hexstones/game/service"
	"github.com/wricardo/hexstones/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *slog.Logger
}

// NewServer creates a new API server. hub may be nil, in which case /ws is
// not served.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game state
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/movable", s.handleMovable).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/water-connections", s.handleWaterConnections).Methods("GET")
	api.HandleFunc("/sessions/{id}/hex/{q}/{r}", s.handleHexInfo).Methods("GET")

	// Player actions
	api.HandleFunc("/sessions/{id}/place", s.handlePlace).Methods("POST")
	api.HandleFunc("/sessions/{id}/break", s.handleBreak).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/sacrifice", s.handleSacrifice).Methods("POST")
	api.HandleFunc("/sessions/{id}/end-turn", s.handleEndTurn).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/reveal-all", s.handleRevealAll).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// Mount serves h under prefix, e.g. the MCP endpoint.
func (s *Server) Mount(prefix string, h http.Handler) {
	s.router.PathPrefix(prefix).Handler(h)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message, "code": status})
}

// respondServiceError maps service errors to status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound),
		errors.Is(err, service.ErrHexNotFound):
		status = http.StatusNotFound
	case errors.Is(err, config.ErrInvalidConfig):
		status = http.StatusBadRequest
	}
	respondError(w, status, err.Error())
}

// respondResult writes an action result. A refused action is a conflict
// with the current game state.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, action string, result *service.ActionResult, attrs ...any) {
	status := http.StatusOK
	outcome := "OK"
	if !result.Success {
		status = http.StatusConflict
		outcome = "FAIL"
	}

	args := append([]any{"action", action, "session", mux.Vars(r)["id"]}, attrs...)
	args = append(args, "status", outcome)
	if result.ReasonCode != "" {
		args = append(args, "reason", result.ReasonCode)
	}
	args = append(args, "ap", result.AP.TotalAP)
	if result.PendingChain != nil {
		args = append(args, "chain", result.PendingChain.ID)
	}
	s.logger.Info("game action", args...)

	respondJSON(w, status, result)
}

type coordRequest struct {
	Q *int `json:"q"`
	R *int `json:"r"`
}

func (c coordRequest) coord() (hexmath.Coord, error) {
	if c.Q == nil || c.R == nil {
		return hexmath.Coord{}, errors.New("q and r are required")
	}
	return hexmath.Coord{Q: *c.Q, R: *c.R}, nil
}

// decodeCoord reads a JSON body with q and r plus any extra fields into dst.
func decodeCoord(r *http.Request, dst any, req *coordRequest) (hexmath.Coord, error) {
	if r.Body == nil {
		return hexmath.Coord{}, errors.New("request body required")
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return hexmath.Coord{}, fmt.Errorf("invalid request body: %w", err)
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return hexmath.Coord{}, fmt.Errorf("invalid request body: %w", err)
	}
	if dst != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			return hexmath.Coord{}, fmt.Errorf("invalid request body: %w", err)
		}
	}
	return req.coord()
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game State Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMovable(w http.ResponseWriter, r *http.Request) {
	moves, err := s.service.GetMovableHexes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"movable_hexes": moves})
}

func (s *Server) handleWaterConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.service.GetWaterConnections(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

func (s *Server) handleHexInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q, errQ := strconv.Atoi(vars["q"])
	rr, errR := strconv.Atoi(vars["r"])
	if errQ != nil || errR != nil {
		respondError(w, http.StatusBadRequest, "q and r must be integers")
		return
	}

	info, err := s.service.GetHexInfo(r.Context(), vars["id"], hexmath.Coord{Q: q, R: rr})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Action Handlers

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req coordRequest
	var body struct {
		Stone string `json:"stone"`
	}
	c, err := decodeCoord(r, &body, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	stone, err := engine.ParseStoneType(body.Stone)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.PlaceStone(r.Context(), mux.Vars(r)["id"], c, stone)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondResult(w, r, "place", result, "q", c.Q, "r", c.R, "stone", stone)
}

func (s *Server) handleBreak(w http.ResponseWriter, r *http.Request) {
	var req coordRequest
	c, err := decodeCoord(r, nil, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.BreakStone(r.Context(), mux.Vars(r)["id"], c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondResult(w, r, "break", result, "q", c.Q, "r", c.R)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req coordRequest
	c, err := decodeCoord(r, nil, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Move(r.Context(), mux.Vars(r)["id"], c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondResult(w, r, "move", result, "q", c.Q, "r", c.R)
}

func (s *Server) handleSacrifice(w http.ResponseWriter, r *http.Request) {
	var req coordRequest
	var body struct {
		Stones []string `json:"stones"`
	}
	c, err := decodeCoord(r, &body, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Stones) != 2 {
		respondError(w, http.StatusBadRequest, "exactly two stones must be sacrificed")
		return
	}
	a, errA := engine.ParseStoneType(body.Stones[0])
	b, errB := engine.ParseStoneType(body.Stones[1])
	if err := errors.Join(errA, errB); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Sacrifice(r.Context(), mux.Vars(r)["id"], c, a, b)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondResult(w, r, "sacrifice", result, "q", c.Q, "r", c.R, "stones", strings.Join(body.Stones, ","))
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.EndTurn(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondResult(w, r, "end_turn", result)
}

func (s *Server) handleRevealAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RevealAll(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.respondResult(w, r, "reveal_all", result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Reset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Game reset successfully",
		"state":   state,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig
	if err := json.NewDecoder(r.Body).Decode(&gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = gameConfig.Name
	}
	if configID == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}
	if err := engine.ValidateGameConfig(&gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
