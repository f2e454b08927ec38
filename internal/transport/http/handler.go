package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"riddle-game-service/internal/app"
	"riddle-game-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler exposes the game and admin services over JSON.
type Handler struct {
	game    *app.GameService
	admin   *app.AdminService
	ws      *WSHandler
	playURL string
	log     *slog.Logger
}

func NewHandler(game *app.GameService, admin *app.AdminService, playURL string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if playURL == "" {
		playURL = "/"
	}
	return &Handler{
		game:    game,
		admin:   admin,
		ws:      NewWSHandler(game, log),
		playURL: playURL,
		log:     log,
	}
}

// Router builds the chi route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	// Stable entry link handed out by the chat-bot front end.
	r.Get("/play", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, h.playURL, http.StatusFound)
	})
	r.Get("/ws/leaderboard", h.ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/start", h.startSession)
		r.Get("/riddle", h.nextRiddle)
		r.Post("/answer", h.submitAnswer)
		r.Get("/reveal", h.reveal)
		r.Post("/hints/use", h.useHint)
		r.Post("/hints/grant", h.grantHints)
		r.Get("/leaderboard", h.leaderboard)

		// Admin curation surface.
		r.Post("/riddles", h.createRiddle)
		r.Get("/riddles", h.listRiddles)
		r.Put("/riddles/{id}", h.updateRiddle)
		r.Delete("/riddles/{id}", h.deleteRiddle)
	})
	return r
}

type startRequest struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" {
		h.badRequest(w, "playerId is required")
		return
	}
	state, err := h.game.StartSession(r.Context(), req.PlayerID, req.DisplayName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *Handler) nextRiddle(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		h.badRequest(w, "category is required")
		return
	}
	card, err := h.game.NextRiddle(r.Context(), category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

type answerRequest struct {
	PlayerID string `json:"playerId"`
	RiddleID int64  `json:"riddleId"`
	Guess    string `json:"guess"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" || req.RiddleID == 0 {
		h.badRequest(w, "playerId and riddleId are required")
		return
	}
	result, err := h.game.SubmitAnswer(r.Context(), req.PlayerID, req.RiddleID, req.Guess)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) reveal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		h.badRequest(w, "id must be a number")
		return
	}
	revealed, err := h.game.Reveal(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, revealed)
}

type hintRequest struct {
	PlayerID string `json:"playerId"`
}

func (h *Handler) useHint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" {
		h.badRequest(w, "playerId is required")
		return
	}
	result, err := h.game.UseHint(r.Context(), req.PlayerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) grantHints(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" {
		h.badRequest(w, "playerId is required")
		return
	}
	result, err := h.game.GrantHints(r.Context(), req.PlayerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.game.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

type riddleRequest struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Category    string `json:"category"`
	Explanation string `json:"explanation"`
}

func (h *Handler) createRiddle(w http.ResponseWriter, r *http.Request) {
	var req riddleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Question == "" || req.Answer == "" || req.Category == "" {
		h.badRequest(w, "question, answer and category are required")
		return
	}
	created, err := h.admin.CreateRiddle(r.Context(), domain.Riddle{
		Question:    req.Question,
		Answer:      req.Answer,
		Category:    req.Category,
		Explanation: req.Explanation,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listRiddles(w http.ResponseWriter, r *http.Request) {
	riddles, err := h.admin.ListRiddles(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, riddles)
}

func (h *Handler) updateRiddle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, "id must be a number")
		return
	}
	var req riddleRequest
	if !h.decode(w, r, &req) {
		return
	}
	err = h.admin.UpdateRiddle(r.Context(), domain.Riddle{
		ID:          id,
		Question:    req.Question,
		Answer:      req.Answer,
		Category:    req.Category,
		Explanation: req.Explanation,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) deleteRiddle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.badRequest(w, "id must be a number")
		return
	}
	if err := h.admin.DeleteRiddle(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps domain sentinels to 404 empty-result responses; anything
// else is a store failure and surfaces as a 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoRiddles),
		errors.Is(err, domain.ErrRiddleNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.log.Error("request failed", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response", slog.String("error", err.Error()))
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}
